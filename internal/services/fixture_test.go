package services

import (
	"bytes"
	"context"
	"testing"

	"car-journal-backend/internal/models"

	"github.com/stretchr/testify/require"
)

const (
	testNamespace = "journal"
	alice         = "11111111-1111-1111-1111-111111111111"
	bob           = "22222222-2222-2222-2222-222222222222"
)

type fixture struct {
	users       *memTarget
	cars        *memCars
	contacts    *memContacts
	maintenance *memResources[models.Maintenance]
	fueling     *memResources[models.Fueling]
	accessory   *memResources[models.Accessory]
	insurance   *memResources[models.Insurance]
	inspection  *memResources[models.Inspection]

	images   *memImages
	media    *memMedia
	events   *recordingPublisher
	registry *ImageRegistry
	imageSvc *ImageService

	maintenanceSvc *ResourceService[models.Maintenance]
	fuelingSvc     *ResourceService[models.Fueling]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:    newMemTarget(),
		cars:     newMemCars(),
		contacts: newMemContacts(),
		images:   newMemImages(),
		media:    newMemMedia(),
		events:   &recordingPublisher{},
	}
	f.maintenance = newMemResources[models.Maintenance](models.KindMaintenance, f.contacts)
	f.fueling = newMemResources[models.Fueling](models.KindFueling, f.contacts)
	f.accessory = newMemResources[models.Accessory](models.KindAccessory, f.contacts)
	f.insurance = newMemResources[models.Insurance](models.KindInsurance, f.contacts)
	f.inspection = newMemResources[models.Inspection](models.KindInspection, f.contacts)

	f.users.add(alice, alice)
	f.users.add(bob, bob)

	f.registry = NewImageRegistry(testDefaults).
		Register(models.EntityAvatars, f.users).
		Register(models.EntityPosters, f.users).
		Register(models.EntityCars, f.cars).
		Register(models.EntityContacts, f.contacts).
		Register(models.EntityMaintenance, f.maintenance).
		Register(models.EntityFueling, f.fueling).
		Register(models.EntityAccessory, f.accessory).
		Register(models.EntityInsurance, f.insurance).
		Register(models.EntityInspection, f.inspection)
	require.NoError(t, f.registry.Validate())

	f.imageSvc = NewImageService(f.images, f.media, f.registry, f.events, testNamespace, 1<<20)

	validate := NewValidator()
	f.maintenanceSvc = NewResourceService[models.Maintenance](models.KindMaintenance, f.maintenance, f.cars, f.contacts, f.imageSvc, validate)
	f.fuelingSvc = NewResourceService[models.Fueling](models.KindFueling, f.fueling, f.cars, f.contacts, f.imageSvc, validate)
	return f
}

func jpeg(name string) FileUpload {
	body := []byte("\xff\xd8\xff fake jpeg " + name)
	return FileUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

func validMaintenance() models.Maintenance {
	return models.Maintenance{
		ServiceType:   "oil change",
		ProcessStatus: "planned",
		CostEstimate:  120,
		Mileage:       45000,
	}
}

// newMaintenance creates a maintenance record on a fresh car owned by owner
func (f *fixture) newMaintenance(t *testing.T, owner string) (*models.Car, *models.Resource[models.Maintenance]) {
	t.Helper()
	car := f.cars.add(owner)
	res, err := f.maintenanceSvc.Create(context.Background(), owner, car.ID, validMaintenance())
	require.NoError(t, err)
	return car, res
}

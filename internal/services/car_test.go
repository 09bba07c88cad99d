package services

import (
	"context"
	"errors"
	"testing"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/carinfo"
	"car-journal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	vehicle *carinfo.Vehicle
	err     error
	calls   int
}

func (d *stubDecoder) DecodeVIN(ctx context.Context, vin string) (*carinfo.Vehicle, error) {
	d.calls++
	return d.vehicle, d.err
}

func newCarService(f *fixture, decoder VINDecoder) *CarService {
	return NewCarService(f.cars, f.imageSvc, decoder, NewValidator())
}

func TestCarCRUD(t *testing.T) {
	f := newFixture(t)
	svc := newCarService(f, &stubDecoder{})
	ctx := context.Background()

	car, err := svc.Create(ctx, alice, CarInput{
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2016,
		Registration: models.CarRegistration{Plate: "AB-123", VIN: "JTDBR32E160012345"},
	})
	require.NoError(t, err)
	assert.Equal(t, alice, car.Owner)

	updated, err := svc.Update(ctx, alice, car.ID, []byte(`{"year":2017,"specs":{"fuel_type":"hybrid"}}`))
	require.NoError(t, err)
	assert.Equal(t, 2017, updated.Year)
	assert.Equal(t, "hybrid", updated.Specs.FuelType)
	assert.Equal(t, "AB-123", updated.Registration.Plate)

	_, err = svc.Update(ctx, alice, car.ID, []byte(`{"year":1700}`))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.GetByID(ctx, bob, car.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	cars, err := svc.List(ctx, alice, 1, 10)
	require.NoError(t, err)
	assert.Len(t, cars, 1)
}

func TestCarCreateValidates(t *testing.T) {
	f := newFixture(t)
	svc := newCarService(f, &stubDecoder{})

	_, err := svc.Create(context.Background(), alice, CarInput{Make: "Lada", Year: 1985})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.Create(context.Background(), alice, CarInput{
		Make: "Lada", Model: "Niva", Year: 1985,
		Registration: models.CarRegistration{VIN: "short"},
	})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestCarDeleteRemovesImages(t *testing.T) {
	f := newFixture(t)
	svc := newCarService(f, &stubDecoder{})
	ctx := context.Background()
	car := f.cars.add(alice)

	_, err := f.imageSvc.Upload(ctx, alice, car.ID, models.EntityCars, jpeg("a.jpg"))
	require.NoError(t, err)
	_, err = f.imageSvc.Upload(ctx, alice, car.ID, models.EntityCars, jpeg("b.jpg"))
	require.NoError(t, err)

	_, err = svc.Delete(ctx, bob, car.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Delete(ctx, alice, car.ID)
	require.NoError(t, err)
	assert.Len(t, f.media.deletedFiles, 2)
	assert.Equal(t, 0, f.images.count())

	_, err = f.cars.GetByID(ctx, car.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCarLookup(t *testing.T) {
	f := newFixture(t)
	decoder := &stubDecoder{vehicle: &carinfo.Vehicle{Make: "HONDA", Model: "Civic", Year: 2018}}
	svc := newCarService(f, decoder)
	ctx := context.Background()

	v, err := svc.Lookup(ctx, "2HGFC2F59JH000001")
	require.NoError(t, err)
	assert.Equal(t, "HONDA", v.Make)

	_, err = svc.Lookup(ctx, "not-a-vin")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, 1, decoder.calls)

	decoder.vehicle, decoder.err = nil, carinfo.ErrNotFound
	_, err = svc.Lookup(ctx, "2HGFC2F59JH000001")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	decoder.err = errors.New("timeout")
	_, err = svc.Lookup(ctx, "2HGFC2F59JH000001")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

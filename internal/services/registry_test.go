package services

import (
	"context"
	"testing"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryValidateReportsMissingTypes(t *testing.T) {
	r := NewImageRegistry(testDefaults).
		Register(models.EntityCars, newMemCars())

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "avatars")
	assert.NotContains(t, err.Error(), "cars")
}

func TestRegistryUnknownType(t *testing.T) {
	r := newFixture(t).registry

	_, err := r.Target("boats")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	assert.Panics(t, func() { r.Register("boats", newMemTarget()) })
}

func TestRegistryDefaults(t *testing.T) {
	r := NewImageRegistry(testDefaults)

	tests := map[models.EntityType]string{
		models.EntityAvatars:     testDefaults.UserAvatar,
		models.EntityPosters:     testDefaults.UserPoster,
		models.EntityCars:        testDefaults.CarPoster,
		models.EntityContacts:    testDefaults.NoImage,
		models.EntityMaintenance: testDefaults.NoImage,
		models.EntityFueling:     testDefaults.NoImage,
		models.EntityAccessory:   testDefaults.NoImage,
		models.EntityInsurance:   testDefaults.NoImage,
		models.EntityInspection:  testDefaults.NoImage,
	}
	for et, want := range tests {
		assert.Equal(t, want, r.DefaultImage(et), et)
	}
}

func TestRegistryDispatchesEveryType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, et := range models.EntityTypes {
		target, err := f.registry.Target(et)
		require.NoError(t, err, et)
		_, err = target.Owner(ctx, "88888888-8888-8888-8888-888888888888")
		assert.ErrorIs(t, err, apperr.ErrNotFound, et)
	}
}

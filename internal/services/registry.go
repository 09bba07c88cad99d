package services

import (
	"context"
	"fmt"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/config"
	"car-journal-backend/internal/models"
)

// PhotoTarget is an entity that can carry an image bundle
type PhotoTarget interface {
	// Owner returns the user that owns the entity.
	Owner(ctx context.Context, id string) (string, error)
	// SetImage points the entity at an image bundle; nil clears the pointer.
	SetImage(ctx context.Context, id string, imageID *string) error
}

// ImageRegistry maps each entity type to the entity that carries its images
// and to the default image shown when nothing is uploaded.
type ImageRegistry struct {
	targets  map[models.EntityType]PhotoTarget
	defaults config.DefaultImages
}

// NewImageRegistry creates an empty registry
func NewImageRegistry(defaults config.DefaultImages) *ImageRegistry {
	return &ImageRegistry{
		targets:  make(map[models.EntityType]PhotoTarget, len(models.EntityTypes)),
		defaults: defaults,
	}
}

// Register binds an entity type to its target. It panics on an unknown type,
// since the set of entity types is fixed at compile time.
func (r *ImageRegistry) Register(et models.EntityType, target PhotoTarget) *ImageRegistry {
	if _, ok := models.ParseEntityType(string(et)); !ok {
		panic(fmt.Sprintf("unknown entity type %q", et))
	}
	r.targets[et] = target
	return r
}

// Validate reports entity types that have no target
func (r *ImageRegistry) Validate() error {
	var missing []models.EntityType
	for _, et := range models.EntityTypes {
		if r.targets[et] == nil {
			missing = append(missing, et)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("image registry has no target for %v", missing)
	}
	return nil
}

// Target returns the entity carrying images of type et
func (r *ImageRegistry) Target(et models.EntityType) (PhotoTarget, error) {
	target, ok := r.targets[et]
	if !ok {
		return nil, apperr.BadRequest("unknown entity type %q", et)
	}
	return target, nil
}

// DefaultImage returns the fallback URL for et
func (r *ImageRegistry) DefaultImage(et models.EntityType) string {
	switch et {
	case models.EntityAvatars:
		return r.defaults.UserAvatar
	case models.EntityPosters:
		return r.defaults.UserPoster
	case models.EntityCars:
		return r.defaults.CarPoster
	default:
		return r.defaults.NoImage
	}
}

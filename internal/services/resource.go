package services

import (
	"context"
	"errors"

	"car-journal-backend/internal/access"
	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// ResourceStore persists one kind of car-owned record
type ResourceStore[T any] interface {
	Create(ctx context.Context, res *models.Resource[T]) (*models.Resource[T], error)
	FindByID(ctx context.Context, id string) (*models.Resource[T], error)
	UpdateByID(ctx context.Context, id string, details T) (*models.Resource[T], error)
	DeleteByID(ctx context.Context, id string) (*models.Resource[T], error)
	List(ctx context.Context, carID, userID string, skip, limit int) ([]*models.Resource[T], error)
	SetContact(ctx context.Context, id, contactID string) (*models.Resource[T], error)
}

// CarReader loads cars
type CarReader interface {
	GetByID(ctx context.Context, id string) (*models.Car, error)
}

// ContactReader loads contacts
type ContactReader interface {
	GetByID(ctx context.Context, id string) (*models.Contact, error)
}

// ImageCascade removes the image bundle of a deleted entity
type ImageCascade interface {
	RemoveAll(ctx context.Context, imageID string, et models.EntityType, entityID string) (*CascadeOutcome, error)
}

// ResourceService implements the lifecycle shared by every car-owned record:
// maintenance, fueling, accessory, insurance and inspection.
type ResourceService[T any] struct {
	kind     models.ResourceKind
	repo     ResourceStore[T]
	cars     CarReader
	contacts ContactReader
	images   ImageCascade
	validate *validator.Validate
}

// NewResourceService creates the service for one kind of record
func NewResourceService[T any](
	kind models.ResourceKind,
	repo ResourceStore[T],
	cars CarReader,
	contacts ContactReader,
	images ImageCascade,
	validate *validator.Validate,
) *ResourceService[T] {
	return &ResourceService[T]{
		kind:     kind,
		repo:     repo,
		cars:     cars,
		contacts: contacts,
		images:   images,
		validate: validate,
	}
}

// Kind returns the record kind the service manages
func (s *ResourceService[T]) Kind() models.ResourceKind {
	return s.kind
}

// loadOwned fetches a record and checks it belongs to userID and carID
func (s *ResourceService[T]) loadOwned(ctx context.Context, userID, carID, id string) (*models.Resource[T], error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CheckResource(res.Owner, res.CarID, userID, carID); err != nil {
		return nil, err
	}
	return res, nil
}

// Create adds a record to a car the user owns
func (s *ResourceService[T]) Create(ctx context.Context, userID, carID string, input T) (*models.Resource[T], error) {
	car, err := s.cars.GetByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(car.Owner, userID); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	res, err := s.repo.Create(ctx, &models.Resource[T]{
		CarID:   carID,
		Owner:   userID,
		Details: input,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("kind", s.kind.Name).
		Str("user_id", userID).
		Str("car_id", carID).
		Str("id", res.ID).
		Msg("Record created")
	return res, nil
}

// Update merges patch into the record's details
func (s *ResourceService[T]) Update(ctx context.Context, userID, carID, id string, patch []byte) (*models.Resource[T], error) {
	res, err := s.loadOwned(ctx, userID, carID, id)
	if err != nil {
		return nil, err
	}

	merged, err := applyPatch(res.Details, patch)
	if err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, merged); err != nil {
		return nil, err
	}

	return s.repo.UpdateByID(ctx, id, merged)
}

// Delete removes the record after removing its image bundle
func (s *ResourceService[T]) Delete(ctx context.Context, userID, carID, id string) (*models.Resource[T], error) {
	res, err := s.loadOwned(ctx, userID, carID, id)
	if err != nil {
		return nil, err
	}

	if err := s.deleteImages(ctx, res); err != nil {
		return nil, err
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("kind", s.kind.Name).
		Str("user_id", userID).
		Str("id", id).
		Msg("Record deleted")
	return deleted, nil
}

// deleteImages cascades to the image bundle when the photos pointer is set.
// A dangling pointer (bundle already gone) does not block the delete.
func (s *ResourceService[T]) deleteImages(ctx context.Context, res *models.Resource[T]) error {
	if res.Photos == nil {
		return nil
	}

	outcome, err := s.images.RemoveAll(ctx, *res.Photos, s.kind.Entity, res.ID)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNoImagesToDelete) {
		log.Warn().
			Str("kind", s.kind.Name).
			Str("id", res.ID).
			Str("image_id", *res.Photos).
			Msg("Photos pointer had no images to delete")
		return nil
	}

	ev := log.Error().Err(err).Str("kind", s.kind.Name).Str("id", res.ID)
	if outcome != nil {
		ev = ev.Str("status", string(outcome.Status)).Str("failed_step", string(outcome.Failed))
	}
	ev.Msg("Image cascade failed")
	return err
}

// GetByID returns one record
func (s *ResourceService[T]) GetByID(ctx context.Context, userID, carID, id string) (*models.Resource[T], error) {
	return s.loadOwned(ctx, userID, carID, id)
}

// List returns a page of the user's records for one car
func (s *ResourceService[T]) List(ctx context.Context, userID, carID string, page, limit int) ([]*models.Resource[T], error) {
	skip, size := pageBounds(page, limit)
	return s.repo.List(ctx, carID, userID, skip, size)
}

// BindContact links one of the user's contacts to the record
func (s *ResourceService[T]) BindContact(ctx context.Context, userID, carID, id, contactID string) (*models.Resource[T], error) {
	if _, err := s.loadOwned(ctx, userID, carID, id); err != nil {
		return nil, err
	}

	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(contact.Owner, userID); err != nil {
		return nil, err
	}

	return s.repo.SetContact(ctx, id, contactID)
}

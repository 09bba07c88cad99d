package services

import (
	"context"
	"errors"

	"car-journal-backend/internal/access"
	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/carinfo"
	"car-journal-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// CarStore persists cars
type CarStore interface {
	Create(ctx context.Context, car *models.Car) (*models.Car, error)
	GetByID(ctx context.Context, id string) (*models.Car, error)
	ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Car, error)
	Update(ctx context.Context, car *models.Car) (*models.Car, error)
	Delete(ctx context.Context, id string) error
}

// VINDecoder looks up the factory data of a vehicle
type VINDecoder interface {
	DecodeVIN(ctx context.Context, vin string) (*carinfo.Vehicle, error)
}

// CarInput is the editable part of a car
type CarInput struct {
	Make         string                 `json:"make" validate:"required,max=64"`
	Model        string                 `json:"model" validate:"required,max=64"`
	Year         int                    `json:"year" validate:"gte=1886,lte=2100"`
	Specs        models.CarSpecs        `json:"specs"`
	Registration models.CarRegistration `json:"registration"`
	Ownership    models.CarOwnership    `json:"ownership"`
}

func carInputOf(car *models.Car) CarInput {
	return CarInput{
		Make:         car.Make,
		Model:        car.Model,
		Year:         car.Year,
		Specs:        car.Specs,
		Registration: car.Registration,
		Ownership:    car.Ownership,
	}
}

// CarService handles car-related business logic
type CarService struct {
	cars     CarStore
	images   ImageCascade
	decoder  VINDecoder
	validate *validator.Validate
}

// NewCarService creates a new car service
func NewCarService(cars CarStore, images ImageCascade, decoder VINDecoder, validate *validator.Validate) *CarService {
	return &CarService{
		cars:     cars,
		images:   images,
		decoder:  decoder,
		validate: validate,
	}
}

func (s *CarService) loadOwned(ctx context.Context, userID, carID string) (*models.Car, error) {
	car, err := s.cars.GetByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(car.Owner, userID); err != nil {
		return nil, err
	}
	return car, nil
}

// Create registers a car for the user
func (s *CarService) Create(ctx context.Context, userID string, input CarInput) (*models.Car, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	car, err := s.cars.Create(ctx, &models.Car{
		Owner:        userID,
		Make:         input.Make,
		Model:        input.Model,
		Year:         input.Year,
		Specs:        input.Specs,
		Registration: input.Registration,
		Ownership:    input.Ownership,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("car_id", car.ID).Msg("Car created")
	return car, nil
}

// Update merges patch into the car's editable fields
func (s *CarService) Update(ctx context.Context, userID, carID string, patch []byte) (*models.Car, error) {
	car, err := s.loadOwned(ctx, userID, carID)
	if err != nil {
		return nil, err
	}

	merged, err := applyPatch(carInputOf(car), patch)
	if err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, merged); err != nil {
		return nil, err
	}

	car.Make = merged.Make
	car.Model = merged.Model
	car.Year = merged.Year
	car.Specs = merged.Specs
	car.Registration = merged.Registration
	car.Ownership = merged.Ownership
	return s.cars.Update(ctx, car)
}

// Delete removes a car and its image bundle
func (s *CarService) Delete(ctx context.Context, userID, carID string) (*models.Car, error) {
	car, err := s.loadOwned(ctx, userID, carID)
	if err != nil {
		return nil, err
	}

	if car.Photos != nil {
		if _, err := s.images.RemoveAll(ctx, *car.Photos, models.EntityCars, car.ID); err != nil &&
			!errors.Is(err, apperr.ErrNoImagesToDelete) {
			return nil, err
		}
	}

	if err := s.cars.Delete(ctx, carID); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("car_id", carID).Msg("Car deleted")
	return car, nil
}

// GetByID returns one of the user's cars
func (s *CarService) GetByID(ctx context.Context, userID, carID string) (*models.Car, error) {
	return s.loadOwned(ctx, userID, carID)
}

// List returns a page of the user's cars
func (s *CarService) List(ctx context.Context, userID string, page, limit int) ([]*models.Car, error) {
	skip, size := pageBounds(page, limit)
	return s.cars.ListByOwner(ctx, userID, skip, size)
}

// Lookup decodes a VIN through the external car-data service
func (s *CarService) Lookup(ctx context.Context, vin string) (*carinfo.Vehicle, error) {
	if err := s.validate.Var(vin, "required,len=17,alphanum"); err != nil {
		return nil, apperr.BadRequest("vin must be 17 letters or digits")
	}
	vehicle, err := s.decoder.DecodeVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, carinfo.ErrNotFound) {
			return nil, apperr.NotFound("vehicle")
		}
		return nil, apperr.Upstream(err, "car data lookup failed")
	}
	return vehicle, nil
}

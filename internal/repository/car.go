package repository

import (
	"context"
	"errors"
	"fmt"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CarRepository handles database operations for cars
type CarRepository struct {
	db *pgxpool.Pool
}

// NewCarRepository creates a new car repository
func NewCarRepository(db *pgxpool.Pool) *CarRepository {
	return &CarRepository{db: db}
}

const carSelect = `
	SELECT c.id, c.owner, c.make, c.model, c.year, c.specs, c.registration, c.ownership, c.photos,
		c.created_at, c.updated_at,
		i.id, i.owner, i.entity_id, i.entity_type, i.default_url, i.resources, i.selected, i.created_at, i.updated_at
	FROM cars c
	LEFT JOIN images i ON i.id = c.photos
`

func scanCar(row pgx.Row) (*models.Car, error) {
	var (
		car models.Car
		img nullableImage
	)
	targets := []any{
		&car.ID, &car.Owner, &car.Make, &car.Model, &car.Year, &car.Specs,
		&car.Registration, &car.Ownership, &car.Photos, &car.CreatedAt, &car.UpdatedAt,
	}
	targets = append(targets, img.targets()...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	car.Image = img.value()
	return &car, nil
}

// Create creates a new car
func (r *CarRepository) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	query := `
		INSERT INTO cars (owner, make, model, year, specs, registration, ownership)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		car.Owner, car.Make, car.Model, car.Year, car.Specs, car.Registration, car.Ownership,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a car by ID
func (r *CarRepository) GetByID(ctx context.Context, id string) (*models.Car, error) {
	car, err := scanCar(r.db.QueryRow(ctx, carSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("car")
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return car, nil
}

// ListByOwner retrieves the cars of a user with pagination
func (r *CarRepository) ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Car, error) {
	query := carSelect + `
		WHERE c.owner = $1
		ORDER BY c.created_at, c.id
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, owner, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	cars := make([]*models.Car, 0, limit)
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, car)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cars: %w", err)
	}
	return cars, nil
}

// Update replaces the descriptive fields of a car
func (r *CarRepository) Update(ctx context.Context, car *models.Car) (*models.Car, error) {
	query := `
		UPDATE cars
		SET make = $2, model = $3, year = $4, specs = $5, registration = $6, ownership = $7, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		car.ID, car.Make, car.Model, car.Year, car.Specs, car.Registration, car.Ownership,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update car: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperr.NotFound("car")
	}
	return r.GetByID(ctx, car.ID)
}

// Delete deletes a car by ID
func (r *CarRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("car")
	}
	return nil
}

// SetImage sets the photos pointer of a car; nil clears it
func (r *CarRepository) SetImage(ctx context.Context, id string, imageID *string) error {
	result, err := r.db.Exec(ctx, `UPDATE cars SET photos = $2, updated_at = now() WHERE id = $1`, id, imageID)
	if err != nil {
		return fmt.Errorf("failed to set car image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("car")
	}
	return nil
}

// Owner returns the user that owns the car
func (r *CarRepository) Owner(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.QueryRow(ctx, `SELECT owner FROM cars WHERE id = $1`, id).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("car")
		}
		return "", fmt.Errorf("failed to get car owner: %w", err)
	}
	return owner, nil
}

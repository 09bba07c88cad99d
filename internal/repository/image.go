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

const imageColumns = `id, owner, entity_id, entity_type, default_url, resources, selected, created_at, updated_at`

// ImageRepository handles database operations for image bundles
type ImageRepository struct {
	db *pgxpool.Pool
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{db: db}
}

func scanImage(row pgx.Row) (*models.Image, error) {
	var img models.Image
	err := row.Scan(
		&img.ID, &img.Owner, &img.EntityID, &img.EntityType, &img.Default,
		&img.Resources, &img.Selected, &img.CreatedAt, &img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Create stores a new image bundle
func (r *ImageRepository) Create(ctx context.Context, img *models.Image) (*models.Image, error) {
	query := `
		INSERT INTO images (owner, entity_id, entity_type, default_url, resources, selected)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + imageColumns
	created, err := scanImage(r.db.QueryRow(ctx, query,
		img.Owner, img.EntityID, img.EntityType, img.Default, img.Resources, img.Selected,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "image bundle already exists")
		}
		return nil, fmt.Errorf("failed to create image: %w", err)
	}
	return created, nil
}

// GetByID retrieves an image bundle by ID
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`
	img, err := scanImage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("image")
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// GetByEntity retrieves the bundle a user attached to one entity
func (r *ImageRepository) GetByEntity(ctx context.Context, owner, entityID string, entityType models.EntityType) (*models.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE owner = $1 AND entity_id = $2 AND entity_type = $3
	`
	img, err := scanImage(r.db.QueryRow(ctx, query, owner, entityID, entityType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("image")
		}
		return nil, fmt.Errorf("failed to get image by entity: %w", err)
	}
	return img, nil
}

// Update persists the resource list and selection of a bundle
func (r *ImageRepository) Update(ctx context.Context, img *models.Image) (*models.Image, error) {
	query := `
		UPDATE images SET resources = $2, selected = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + imageColumns
	updated, err := scanImage(r.db.QueryRow(ctx, query, img.ID, img.Resources, img.Selected))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("image")
		}
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	return updated, nil
}

// Delete removes a bundle. Deleting a missing bundle is not an error.
func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

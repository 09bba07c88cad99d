package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceRepository handles database operations for one kind of car-owned record.
// Every kind shares the same table layout; the kind-specific fields live in the
// details JSONB column and are decoded into T.
type ResourceRepository[T any] struct {
	db   *pgxpool.Pool
	kind models.ResourceKind
}

// NewResourceRepository creates a repository over kind's table
func NewResourceRepository[T any](db *pgxpool.Pool, kind models.ResourceKind) *ResourceRepository[T] {
	return &ResourceRepository[T]{db: db, kind: kind}
}

// selectJoined reads a record together with its image bundle and contact
func (r *ResourceRepository[T]) selectJoined() string {
	return fmt.Sprintf(`
		SELECT r.id, r.car_id, r.owner, r.contact_id, r.photos, r.details, r.created_at, r.updated_at,
			i.id, i.owner, i.entity_id, i.entity_type, i.default_url, i.resources, i.selected, i.created_at, i.updated_at,
			c.id, c.owner, c.name, c.phone, c.email, c.address, c.notes, c.photos, c.created_at, c.updated_at
		FROM %s r
		LEFT JOIN images i ON i.id = r.photos
		LEFT JOIN contacts c ON c.id = r.contact_id
	`, r.kind.Table)
}

// nullableImage and nullableContact receive the LEFT JOIN columns
type nullableImage struct {
	ID, Owner, EntityID, EntityType, Default, Selected *string
	Resources                                          []string
	CreatedAt, UpdatedAt                               *time.Time
}

func (n *nullableImage) targets() []any {
	return []any{&n.ID, &n.Owner, &n.EntityID, &n.EntityType, &n.Default, &n.Resources, &n.Selected, &n.CreatedAt, &n.UpdatedAt}
}

func (n *nullableImage) value() *models.Image {
	if n.ID == nil {
		return nil
	}
	return &models.Image{
		ID:         *n.ID,
		Owner:      *n.Owner,
		EntityID:   *n.EntityID,
		EntityType: models.EntityType(*n.EntityType),
		Default:    *n.Default,
		Resources:  n.Resources,
		Selected:   *n.Selected,
		CreatedAt:  *n.CreatedAt,
		UpdatedAt:  *n.UpdatedAt,
	}
}

type nullableContact struct {
	ID, Owner, Name, Phone, Email, Address, Notes, Photos *string
	CreatedAt, UpdatedAt                                  *time.Time
}

func (n *nullableContact) targets() []any {
	return []any{&n.ID, &n.Owner, &n.Name, &n.Phone, &n.Email, &n.Address, &n.Notes, &n.Photos, &n.CreatedAt, &n.UpdatedAt}
}

func (n *nullableContact) value() *models.Contact {
	if n.ID == nil {
		return nil
	}
	return &models.Contact{
		ID:        *n.ID,
		Owner:     *n.Owner,
		Name:      *n.Name,
		Phone:     *n.Phone,
		Email:     *n.Email,
		Address:   *n.Address,
		Notes:     *n.Notes,
		Photos:    n.Photos,
		CreatedAt: *n.CreatedAt,
		UpdatedAt: *n.UpdatedAt,
	}
}

func (r *ResourceRepository[T]) scan(row pgx.Row) (*models.Resource[T], error) {
	var (
		res     models.Resource[T]
		img     nullableImage
		contact nullableContact
	)
	targets := []any{
		&res.ID, &res.CarID, &res.Owner, &res.ContactID, &res.Photos,
		&res.Details, &res.CreatedAt, &res.UpdatedAt,
	}
	targets = append(targets, img.targets()...)
	targets = append(targets, contact.targets()...)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	res.Image = img.value()
	res.Contact = contact.value()
	return &res, nil
}

// Create stores a new record and returns it as read back from the database
func (r *ResourceRepository[T]) Create(ctx context.Context, res *models.Resource[T]) (*models.Resource[T], error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (car_id, owner, contact_id, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.kind.Table)

	var id string
	if err := r.db.QueryRow(ctx, query, res.CarID, res.Owner, res.ContactID, res.Details).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.kind.Name, err)
	}
	return r.FindByID(ctx, id)
}

// FindByID retrieves a record with its image bundle and contact joined
func (r *ResourceRepository[T]) FindByID(ctx context.Context, id string) (*models.Resource[T], error) {
	res, err := r.scan(r.db.QueryRow(ctx, r.selectJoined()+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(r.kind.Name)
		}
		return nil, fmt.Errorf("failed to get %s: %w", r.kind.Name, err)
	}
	return res, nil
}

// UpdateByID replaces the stored details with details, which the caller has
// already merged and validated. Ownership is checked by the caller.
func (r *ResourceRepository[T]) UpdateByID(ctx context.Context, id string, details T) (*models.Resource[T], error) {
	query := fmt.Sprintf(`UPDATE %s SET details = $2, updated_at = now() WHERE id = $1`, r.kind.Table)
	tag, err := r.db.Exec(ctx, query, id, details)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.kind.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound(r.kind.Name)
	}
	return r.FindByID(ctx, id)
}

// DeleteByID removes a record and returns its last known state
func (r *ResourceRepository[T]) DeleteByID(ctx context.Context, id string) (*models.Resource[T], error) {
	res, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.kind.Table)
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return nil, fmt.Errorf("failed to delete %s: %w", r.kind.Name, err)
	}
	return res, nil
}

// List returns the records of one car owned by userID in insertion order
func (r *ResourceRepository[T]) List(ctx context.Context, carID, userID string, skip, limit int) ([]*models.Resource[T], error) {
	query := r.selectJoined() + `
		WHERE r.car_id = $1 AND r.owner = $2
		ORDER BY r.created_at, r.id
		OFFSET $3 LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, carID, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.kind.Name, err)
	}
	defer rows.Close()

	items := make([]*models.Resource[T], 0, limit)
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.kind.Name, err)
		}
		items = append(items, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.kind.Name, err)
	}
	return items, nil
}

// SetImage sets only the photos pointer; nil clears it
func (r *ResourceRepository[T]) SetImage(ctx context.Context, id string, imageID *string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET photos = $2, updated_at = now() WHERE id = $1`, r.kind.Table)
	if _, err := r.db.Exec(ctx, query, id, imageID); err != nil {
		return fmt.Errorf("failed to set %s image: %w", r.kind.Name, err)
	}
	return nil
}

// SetContact binds a contact to the record
func (r *ResourceRepository[T]) SetContact(ctx context.Context, id, contactID string) (*models.Resource[T], error) {
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`UPDATE %s SET contact_id = $2, updated_at = now() WHERE id = $1`, r.kind.Table)
	if _, err := r.db.Exec(ctx, query, id, contactID); err != nil {
		return nil, fmt.Errorf("failed to bind contact to %s: %w", r.kind.Name, err)
	}
	return r.FindByID(ctx, id)
}

// Owner returns the user that owns the record
func (r *ResourceRepository[T]) Owner(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`SELECT owner FROM %s WHERE id = $1`, r.kind.Table)
	var owner string
	if err := r.db.QueryRow(ctx, query, id).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound(r.kind.Name)
		}
		return "", fmt.Errorf("failed to get %s owner: %w", r.kind.Name, err)
	}
	return owner, nil
}

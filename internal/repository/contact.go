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

const contactColumns = `id, owner, name, phone, email, address, notes, photos, created_at, updated_at`

// ContactRepository handles database operations for contacts
type ContactRepository struct {
	db *pgxpool.Pool
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

func scanContact(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(
		&c.ID, &c.Owner, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes,
		&c.Photos, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create creates a new contact
func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (owner, name, phone, email, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + contactColumns
	created, err := scanContact(r.db.QueryRow(ctx, query, c.Owner, c.Name, c.Phone, c.Email, c.Address, c.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return created, nil
}

// GetByID retrieves a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("contact")
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// ListByOwner retrieves the contacts of a user with pagination
func (r *ContactRepository) ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner = $1
		ORDER BY name, id
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, owner, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0, limit)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}

// Update replaces the editable fields of a contact
func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET name = $2, phone = $3, email = $4, address = $5, notes = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + contactColumns
	updated, err := scanContact(r.db.QueryRow(ctx, query, c.ID, c.Name, c.Phone, c.Email, c.Address, c.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("contact")
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return updated, nil
}

// Delete deletes a contact by ID
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("contact")
	}
	return nil
}

// SetImage sets the photos pointer of a contact; nil clears it
func (r *ContactRepository) SetImage(ctx context.Context, id string, imageID *string) error {
	result, err := r.db.Exec(ctx, `UPDATE contacts SET photos = $2, updated_at = now() WHERE id = $1`, id, imageID)
	if err != nil {
		return fmt.Errorf("failed to set contact image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("contact")
	}
	return nil
}

// Owner returns the user that owns the contact
func (r *ContactRepository) Owner(ctx context.Context, id string) (string, error) {
	var owner string
	if err := r.db.QueryRow(ctx, `SELECT owner FROM contacts WHERE id = $1`, id).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("contact")
		}
		return "", fmt.Errorf("failed to get contact owner: %w", err)
	}
	return owner, nil
}

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

// ContactStore persists contacts
type ContactStore interface {
	Create(ctx context.Context, c *models.Contact) (*models.Contact, error)
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Contact, error)
	Update(ctx context.Context, c *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
}

// ContactInput is the editable part of a contact
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=128"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=256"`
	Notes   string `json:"notes" validate:"max=2000"`
}

// ContactService handles contact-related business logic
type ContactService struct {
	contacts ContactStore
	images   ImageCascade
	validate *validator.Validate
}

// NewContactService creates a new contact service
func NewContactService(contacts ContactStore, images ImageCascade, validate *validator.Validate) *ContactService {
	return &ContactService{contacts: contacts, images: images, validate: validate}
}

func (s *ContactService) loadOwned(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	c, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(c.Owner, userID); err != nil {
		return nil, err
	}
	return c, nil
}

// Create adds a contact to the user's address book
func (s *ContactService) Create(ctx context.Context, userID string, input ContactInput) (*models.Contact, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	c, err := s.contacts.Create(ctx, &models.Contact{
		Owner:   userID,
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
		Notes:   input.Notes,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("contact_id", c.ID).Msg("Contact created")
	return c, nil
}

// Update merges patch into the contact
func (s *ContactService) Update(ctx context.Context, userID, contactID string, patch []byte) (*models.Contact, error) {
	c, err := s.loadOwned(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	merged, err := applyPatch(ContactInput{
		Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address, Notes: c.Notes,
	}, patch)
	if err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, merged); err != nil {
		return nil, err
	}

	c.Name, c.Phone, c.Email, c.Address, c.Notes = merged.Name, merged.Phone, merged.Email, merged.Address, merged.Notes
	return s.contacts.Update(ctx, c)
}

// Delete removes a contact and its image bundle. Records bound to the
// contact keep a dangling contact_id and read back without a contact.
func (s *ContactService) Delete(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	c, err := s.loadOwned(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	if c.Photos != nil {
		if _, err := s.images.RemoveAll(ctx, *c.Photos, models.EntityContacts, c.ID); err != nil &&
			!errors.Is(err, apperr.ErrNoImagesToDelete) {
			return nil, err
		}
	}

	if err := s.contacts.Delete(ctx, contactID); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("contact_id", contactID).Msg("Contact deleted")
	return c, nil
}

// GetByID returns one of the user's contacts
func (s *ContactService) GetByID(ctx context.Context, userID, contactID string) (*models.Contact, error) {
	return s.loadOwned(ctx, userID, contactID)
}

// List returns a page of the user's contacts
func (s *ContactService) List(ctx context.Context, userID string, page, limit int) ([]*models.Contact, error) {
	skip, size := pageBounds(page, limit)
	return s.contacts.ListByOwner(ctx, userID, skip, size)
}

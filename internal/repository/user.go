package repository

import (
	"context"
	"errors"
	"fmt"

	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, password_hash, google_subject, avatar, poster, push_token, created_at`

// UserRepository handles database operations for users and their auth tokens
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.GoogleSubject,
		&u.Avatar, &u.Poster, &u.PushToken, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, google_subject)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRow(ctx, query, user.Email, user.Name, user.PasswordHash, user.GoogleSubject))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByGoogleSubject retrieves a user by the subject of their Google account
func (r *UserRepository) GetByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return r.getBy(ctx, "google_subject", subject)
}

// LinkGoogle attaches a Google account to an existing user
func (r *UserRepository) LinkGoogle(ctx context.Context, userID, subject string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET google_subject = $1 WHERE id = $2`, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link google account: %w", err)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// CreateToken stores a session token row
func (r *UserRepository) CreateToken(ctx context.Context, token *models.AuthToken) error {
	query := `INSERT INTO auth_tokens (id, user_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, token.ID, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create auth token: %w", err)
	}
	return nil
}

// TokenActive reports whether a session token exists and has not expired
func (r *UserRepository) TokenActive(ctx context.Context, tokenID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM auth_tokens WHERE id = $1 AND user_id = $2 AND expires_at > now())`
	var exists bool
	if err := r.db.QueryRow(ctx, query, tokenID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check auth token: %w", err)
	}
	return exists, nil
}

// DeleteToken removes a session token
func (r *UserRepository) DeleteToken(ctx context.Context, tokenID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE id = $1`, tokenID); err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}

// DeleteWithTokens removes a user and all their session tokens in one transaction
func (r *UserRepository) DeleteWithTokens(ctx context.Context, userID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete auth tokens: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}
	return nil
}

// UserImageTarget exposes one of the user's image pointers (avatar or poster)
type UserImageTarget struct {
	repo   *UserRepository
	column string
}

// AvatarTarget returns the avatar pointer of users
func (r *UserRepository) AvatarTarget() *UserImageTarget {
	return &UserImageTarget{repo: r, column: "avatar"}
}

// PosterTarget returns the poster pointer of users
func (r *UserRepository) PosterTarget() *UserImageTarget {
	return &UserImageTarget{repo: r, column: "poster"}
}

// Owner returns the user itself: users own their own avatar and poster
func (t *UserImageTarget) Owner(ctx context.Context, id string) (string, error) {
	u, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// SetImage sets the pointer; nil clears it
func (t *UserImageTarget) SetImage(ctx context.Context, id string, imageID *string) error {
	query := `UPDATE users SET ` + t.column + ` = $2 WHERE id = $1`
	result, err := t.repo.db.Exec(ctx, query, id, imageID)
	if err != nil {
		return fmt.Errorf("failed to set user %s: %w", t.column, err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

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

const reminderColumns = `id, owner, car_id, title, message, remind_at, channels, sent_at, created_at`

// ReminderRepository handles database operations for reminders
type ReminderRepository struct {
	db *pgxpool.Pool
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *pgxpool.Pool) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func reminderTargets(rem *models.Reminder) []any {
	return []any{
		&rem.ID, &rem.Owner, &rem.CarID, &rem.Title, &rem.Message,
		&rem.RemindAt, &rem.Channels, &rem.SentAt, &rem.CreatedAt,
	}
}

// Create creates a new reminder
func (r *ReminderRepository) Create(ctx context.Context, rem *models.Reminder) (*models.Reminder, error) {
	query := `
		INSERT INTO reminders (owner, car_id, title, message, remind_at, channels)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reminderColumns
	var created models.Reminder
	err := r.db.QueryRow(ctx, query,
		rem.Owner, rem.CarID, rem.Title, rem.Message, rem.RemindAt, rem.Channels,
	).Scan(reminderTargets(&created)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return &created, nil
}

// GetByID retrieves a reminder by ID
func (r *ReminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	var rem models.Reminder
	err := r.db.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id).
		Scan(reminderTargets(&rem)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("reminder")
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &rem, nil
}

// ListByOwner retrieves the reminders of a user, soonest first
func (r *ReminderRepository) ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE owner = $1
		ORDER BY remind_at, id
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, owner, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]*models.Reminder, 0, limit)
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(reminderTargets(&rem)...); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, &rem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}

// Delete deletes a reminder by ID
func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("reminder")
	}
	return nil
}

// ListDue returns unsent reminders whose time falls in (from, to], with the
// recipient's email and push token
func (r *ReminderRepository) ListDue(ctx context.Context, from, to time.Time) ([]*models.DueReminder, error) {
	query := `
		SELECT r.id, r.owner, r.car_id, r.title, r.message, r.remind_at, r.channels, r.sent_at, r.created_at,
			u.email, u.push_token
		FROM reminders r
		JOIN users u ON u.id = r.owner
		WHERE r.sent_at IS NULL AND r.remind_at > $1 AND r.remind_at <= $2
		ORDER BY r.remind_at
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	var due []*models.DueReminder
	for rows.Next() {
		var d models.DueReminder
		targets := append(reminderTargets(&d.Reminder), &d.Email, &d.PushToken)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan due reminder: %w", err)
		}
		due = append(due, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due reminders: %w", err)
	}
	return due, nil
}

// MarkSent records the delivery time of a reminder
func (r *ReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE reminders SET sent_at = $2 WHERE id = $1`, id, sentAt); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

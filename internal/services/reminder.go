package services

import (
	"context"
	"time"

	"car-journal-backend/internal/access"
	"car-journal-backend/internal/apperr"
	"car-journal-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// ReminderStore persists reminders
type ReminderStore interface {
	Create(ctx context.Context, rem *models.Reminder) (*models.Reminder, error)
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	ListByOwner(ctx context.Context, owner string, skip, limit int) ([]*models.Reminder, error)
	Delete(ctx context.Context, id string) error
	ListDue(ctx context.Context, from, to time.Time) ([]*models.DueReminder, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// Mailer sends email
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Pusher sends device push notifications
type Pusher interface {
	SendPush(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// ReminderInput holds the fields of a new reminder
type ReminderInput struct {
	CarID    *string   `json:"car_id" validate:"omitempty,uuid"`
	Title    string    `json:"title" validate:"required,max=128"`
	Message  string    `json:"message" validate:"max=2000"`
	RemindAt time.Time `json:"remind_at" validate:"required"`
	Channels []string  `json:"channels" validate:"required,min=1,unique,dive,oneof=email push"`
}

// ReminderService stores reminders and delivers them when they fall due
type ReminderService struct {
	reminders ReminderStore
	cars      CarReader
	mailer    Mailer
	pusher    Pusher
	events    EventPublisher
	validate  *validator.Validate
	interval  time.Duration
	window    time.Duration
	now       func() time.Time
}

// NewReminderService creates a reminder service. mailer and pusher may be nil
// when the channel is not configured.
func NewReminderService(
	reminders ReminderStore,
	cars CarReader,
	mailer Mailer,
	pusher Pusher,
	events EventPublisher,
	validate *validator.Validate,
	interval, window time.Duration,
) *ReminderService {
	if events == nil {
		events = noopPublisher{}
	}
	if window < interval {
		window = interval
	}
	return &ReminderService{
		reminders: reminders,
		cars:      cars,
		mailer:    mailer,
		pusher:    pusher,
		events:    events,
		validate:  validate,
		interval:  interval,
		window:    window,
		now:       time.Now,
	}
}

// Create schedules a reminder
func (s *ReminderService) Create(ctx context.Context, userID string, input ReminderInput) (*models.Reminder, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	if !input.RemindAt.After(s.now()) {
		return nil, apperr.BadRequest("remind_at must be in the future")
	}
	if input.CarID != nil {
		car, err := s.cars.GetByID(ctx, *input.CarID)
		if err != nil {
			return nil, err
		}
		if err := access.Check(car.Owner, userID); err != nil {
			return nil, err
		}
	}

	rem, err := s.reminders.Create(ctx, &models.Reminder{
		Owner:    userID,
		CarID:    input.CarID,
		Title:    input.Title,
		Message:  input.Message,
		RemindAt: input.RemindAt.UTC(),
		Channels: input.Channels,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("reminder_id", rem.ID).Time("remind_at", rem.RemindAt).Msg("Reminder scheduled")
	return rem, nil
}

// List returns a page of the user's reminders
func (s *ReminderService) List(ctx context.Context, userID string, page, limit int) ([]*models.Reminder, error) {
	skip, size := pageBounds(page, limit)
	return s.reminders.ListByOwner(ctx, userID, skip, size)
}

// Delete cancels one of the user's reminders
func (s *ReminderService) Delete(ctx context.Context, userID, reminderID string) (*models.Reminder, error) {
	rem, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(rem.Owner, userID); err != nil {
		return nil, err
	}
	if err := s.reminders.Delete(ctx, reminderID); err != nil {
		return nil, err
	}
	return rem, nil
}

// Run polls for due reminders every interval until ctx is cancelled
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Dur("window", s.window).Msg("Reminder scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// tick delivers the unsent reminders due in (now-window, now]. A reminder
// whose every attempted channel failed stays unsent and is retried on the
// next tick while it is still inside the window.
func (s *ReminderService) tick(ctx context.Context, now time.Time) int {
	due, err := s.reminders.ListDue(ctx, now.Add(-s.window), now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list due reminders")
		return 0
	}

	sent := 0
	for _, d := range due {
		if !s.deliver(ctx, d) {
			continue
		}
		if err := s.reminders.MarkSent(ctx, d.ID, now); err != nil {
			log.Error().Err(err).Str("reminder_id", d.ID).Msg("Failed to mark reminder sent")
			continue
		}
		sent++
	}
	return sent
}

// deliver reports whether the reminder reached the user on at least one
// channel, or had no channel it could be attempted on
func (s *ReminderService) deliver(ctx context.Context, d *models.DueReminder) bool {
	attempted, delivered := 0, 0
	for _, ch := range d.Channels {
		var err error
		switch ch {
		case models.ChannelEmail:
			if s.mailer == nil || d.Email == "" {
				continue
			}
			attempted++
			err = s.mailer.SendEmail(ctx, d.Email, d.Title, d.Message)
		case models.ChannelPush:
			if s.pusher == nil || d.PushToken == nil {
				continue
			}
			attempted++
			err = s.pusher.SendPush(ctx, *d.PushToken, d.Title, d.Message, map[string]string{"reminder_id": d.ID})
		default:
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("reminder_id", d.ID).Str("channel", ch).Msg("Reminder delivery failed")
			continue
		}
		delivered++
	}

	s.events.Publish(d.Owner, WSMessage{Type: EventReminderDue, EntityID: d.ID, Message: d.Title, Data: d.Reminder})

	if attempted == 0 {
		log.Warn().Str("reminder_id", d.ID).Msg("Reminder has no usable channel")
		return true
	}
	return delivered > 0
}

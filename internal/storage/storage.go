package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/drive-assist/internal/models"
)

var ErrReminderNotFound = errors.New("reminder not found")

type Storage interface {
	ReminderStore
	ManualStore
	Close() error
}

// ReminderStore keeps scheduled alarms per session.
type ReminderStore interface {
	// CreateReminder stores r and fills in its ID and CreatedAt.
	CreateReminder(ctx context.Context, r *models.Reminder) error
	// ListReminders returns a session's reminders, earliest first.
	ListReminders(ctx context.Context, sessionID string) ([]*models.Reminder, error)
	DeleteReminder(ctx context.Context, id int64) error
	// PopDueReminder removes and returns the earliest unfired reminder
	// scheduled at or before now, or nil if none is due.
	PopDueReminder(ctx context.Context, sessionID string, now time.Time) (*models.Reminder, error)
}

// ManualStore holds owner's-manual passages used to ground answers.
type ManualStore interface {
	// AddManualPassage stores content for vehicleModel; an empty model
	// applies to every vehicle.
	AddManualPassage(ctx context.Context, vehicleModel, content string) error
	SearchManual(ctx context.Context, vehicleModel, query string, limit int) ([]string, error)
}

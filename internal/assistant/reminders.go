package assistant

import (
	"context"
	"time"

	"github.com/xaenox/drive-assist/internal/models"
)

// CreateReminder stores a reminder directly, bypassing time parsing.
func (s *Service) CreateReminder(ctx context.Context, sessionID, message string, at time.Time) (*models.Reminder, error) {
	r := &models.Reminder{
		SessionID:   s.session(sessionID),
		Message:     message,
		ScheduledAt: at,
	}
	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Reminders(ctx context.Context, sessionID string) ([]*models.Reminder, error) {
	return s.store.ListReminders(ctx, s.session(sessionID))
}

func (s *Service) DeleteReminder(ctx context.Context, id int64) error {
	return s.store.DeleteReminder(ctx, id)
}

// PendingReminder hands out the earliest due reminder of a session once;
// it is removed from the store as it is returned.
func (s *Service) PendingReminder(ctx context.Context, sessionID string) (*models.Reminder, error) {
	return s.store.PopDueReminder(ctx, s.session(sessionID), s.now())
}

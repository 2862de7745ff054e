package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/drive-assist/internal/models"
)

type passage struct {
	vehicleModel string
	content      string
}

type MemoryStorage struct {
	mu        sync.RWMutex
	nextID    int64
	reminders map[int64]*models.Reminder
	passages  []passage
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reminders: make(map[int64]*models.Reminder),
	}
}

func (s *MemoryStorage) CreateReminder(ctx context.Context, r *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	r.CreatedAt = time.Now()

	stored := *r
	s.reminders[r.ID] = &stored
	return nil
}

func (s *MemoryStorage) ListReminders(ctx context.Context, sessionID string) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.Reminder{}
	for _, r := range s.reminders {
		if r.SessionID == sessionID {
			copied := *r
			result = append(result, &copied)
		}
	}
	sortReminders(result)
	return result, nil
}

func (s *MemoryStorage) DeleteReminder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[id]; !exists {
		return ErrReminderNotFound
	}
	delete(s.reminders, id)
	return nil
}

func (s *MemoryStorage) PopDueReminder(ctx context.Context, sessionID string, now time.Time) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due *models.Reminder
	for _, r := range s.reminders {
		if r.SessionID != sessionID || r.Fired || r.ScheduledAt.After(now) {
			continue
		}
		if due == nil || earlier(r, due) {
			due = r
		}
	}
	if due == nil {
		return nil, nil
	}

	delete(s.reminders, due.ID)
	return due, nil
}

func (s *MemoryStorage) AddManualPassage(ctx context.Context, vehicleModel, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.passages = append(s.passages, passage{vehicleModel: vehicleModel, content: content})
	return nil
}

// SearchManual ranks passages by how many query words they contain.
func (s *MemoryStorage) SearchManual(ctx context.Context, vehicleModel, query string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := searchTerms(query)
	if len(words) == 0 || limit <= 0 {
		return nil, nil
	}

	type hit struct {
		content string
		score   int
	}
	var hits []hit
	for _, p := range s.passages {
		if p.vehicleModel != "" && p.vehicleModel != vehicleModel {
			continue
		}
		content := strings.ToLower(p.content)
		score := 0
		for _, w := range words {
			if strings.Contains(content, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{content: p.content, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	result := make([]string, len(hits))
	for i, h := range hits {
		result[i] = h.content
	}
	return result, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// searchTerms lowercases query and keeps words of at least two runes.
func searchTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,!?\"'()")
		if len([]rune(f)) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func earlier(a, b *models.Reminder) bool {
	if a.ScheduledAt.Equal(b.ScheduledAt) {
		return a.ID < b.ID
	}
	return a.ScheduledAt.Before(b.ScheduledAt)
}

func sortReminders(rs []*models.Reminder) {
	sort.Slice(rs, func(i, j int) bool { return earlier(rs[i], rs[j]) })
}

package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/cloo-solutions/sevakai/internal/domain"
	"github.com/cloo-solutions/sevakai/internal/pagination"
	"github.com/cloo-solutions/sevakai/internal/service"
)

// MemorySubscriberStore keeps subscribers in process memory. It is used when
// no database is configured and is lost on restart.
type MemorySubscriberStore struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.Subscriber
}

func NewMemorySubscriberStore() *MemorySubscriberStore {
	return &MemorySubscriberStore{byEmail: make(map[string]*domain.Subscriber)}
}

func (m *MemorySubscriberStore) Create(_ context.Context, s *domain.Subscriber) (bool, error) {
	key := domain.NormalizeEmail(s.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[key]; ok {
		return false, nil
	}
	cp := *s
	m.byEmail[key] = &cp
	return true, nil
}

func (m *MemorySubscriberStore) GetByEmail(_ context.Context, email string) (*domain.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrSubscriberNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemorySubscriberStore) ListWithCursor(_ context.Context, cursor *pagination.Cursor, limit int) (*service.SubscriberPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	all := make([]*domain.Subscriber, 0, len(m.byEmail))
	for _, s := range m.byEmail {
		cp := *s
		all = append(all, &cp)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	items := make([]*domain.Subscriber, 0, limit+1)
	for _, s := range all {
		if cursor != nil && !before(s, cursor) {
			continue
		}
		items = append(items, s)
		if len(items) > limit {
			break
		}
	}

	return pageOf(items, limit), nil
}

func (m *MemorySubscriberStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byEmail), nil
}

// before reports whether s sorts after the cursor position in (created_at, id) DESC order.
func before(s *domain.Subscriber, c *pagination.Cursor) bool {
	if s.CreatedAt.Equal(c.Timestamp) {
		return s.ID < c.LastID
	}
	return s.CreatedAt.Before(c.Timestamp)
}

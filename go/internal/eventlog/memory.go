package eventlog

import (
	"context"
	"sync"

	"github.com/mcdev12/scoreboard/go/internal/models"
)

const DefaultMemoryCapacity = 5000

// MemoryStore keeps the most recent events in a ring buffer.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.Event
	next   int
	full   bool
}

var (
	_ Sink    = (*MemoryStore)(nil)
	_ Querier = (*MemoryStore)(nil)
)

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{events: make([]models.Event, capacity)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Write(_ context.Context, events []models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		m.events[m.next] = e
		m.next = (m.next + 1) % len(m.events)
		if m.next == 0 {
			m.full = true
		}
	}
	return nil
}

// Len returns the number of events held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.full {
		return len(m.events)
	}
	return m.next
}

// Query walks the ring from newest to oldest. Events are appended in the
// order they were logged, so this is newest first by timestamp too.
func (m *MemoryStore) Query(_ context.Context, f Filter) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = len(m.events)
	}
	limit := f.limit()

	out := make([]models.Event, 0, min(n, limit))
	for i := 0; i < n && len(out) < limit; i++ {
		idx := (m.next - 1 - i + len(m.events)) % len(m.events)
		if e := m.events[idx]; f.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

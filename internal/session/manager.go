package session

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Manager serializes message processing per phone and rate-limits senders.
// Messages from the same phone are handled one at a time; different phones
// run in parallel.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type entry struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewManager allows perMinute messages per phone per minute, with bursts up
// to perMinute.
func NewManager(perMinute int) *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		now:     time.Now,
	}
}

func (m *Manager) get(phone string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[phone]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.entries[phone] = e
	}
	e.lastUsed = m.now()
	return e
}

// Allow reports whether phone may send another message now.
func (m *Manager) Allow(phone string) bool {
	e := m.get(phone)
	return e.limiter.AllowN(m.now(), 1)
}

// WithLock executes fn while holding the per-phone mutex.
func (m *Manager) WithLock(phone string, fn func() error) error {
	e := m.get(phone)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

// Cleanup removes entries not used within maxAge to prevent memory leaks.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for phone, e := range m.entries {
		if now.Sub(e.lastUsed) > maxAge && e.mu.TryLock() {
			e.mu.Unlock()
			delete(m.entries, phone)
			removed++
		}
	}
	return removed
}

package dashboard

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/migration-dashboard/internal/domain"
	"github.com/couchcryptid/migration-dashboard/internal/observability"
)

// Selection is one user's current control values.
type Selection struct {
	YearMin int          `json:"year_min"`
	YearMax int          `json:"year_max"`
	Keys    []domain.Key `json:"keys"`
	Week    int          `json:"week"`
}

func (s Selection) clone() Selection {
	s.Keys = slices.Clone(s.Keys)
	return s
}

// Session holds one user's selection. Events for a session are applied one at
// a time.
type Session struct {
	ID string

	mu        sync.Mutex
	selection Selection
	lastSeen  time.Time
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.clone()
}

// SessionStore keeps sessions in a bounded LRU. Sessions idle for longer than
// the TTL are dropped on their next lookup.
type SessionStore struct {
	cache    *lru.Cache[string, *Session]
	ttl      time.Duration
	clock    clockwork.Clock
	defaults Selection
	metrics  *observability.Metrics
}

// NewSessionStore creates a store holding at most capacity sessions.
func NewSessionStore(capacity int, ttl time.Duration, defaults Selection, clock clockwork.Clock, metrics *observability.Metrics) (*SessionStore, error) {
	cache, err := lru.New[string, *Session](capacity)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{
		cache:    cache,
		ttl:      ttl,
		clock:    clock,
		defaults: defaults.clone(),
		metrics:  metrics,
	}, nil
}

// Get returns a live session and refreshes its idle timer.
func (st *SessionStore) Get(id string) (*Session, bool) {
	s, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}

	now := st.clock.Now()
	s.mu.Lock()
	expired := now.Sub(s.lastSeen) > st.ttl
	if !expired {
		s.lastSeen = now
	}
	s.mu.Unlock()

	if expired {
		st.cache.Remove(id)
		st.updateGauge()
		return nil, false
	}
	return s, true
}

// Create starts a session with the default selection.
func (st *SessionStore) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		selection: st.defaults.clone(),
		lastSeen:  st.clock.Now(),
	}
	st.cache.Add(s.ID, s)
	st.updateGauge()
	return s
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown or expired. created reports whether a new session was made.
func (st *SessionStore) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

// Len returns the number of sessions held, including any not yet found expired.
func (st *SessionStore) Len() int { return st.cache.Len() }

func (st *SessionStore) updateGauge() {
	st.metrics.SessionsActive.Set(float64(st.cache.Len()))
}

package agent

import (
	"context"
	"sync"
	"time"

	"github.com/fmuoria/jadehire-agent/pkg/logger"
	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched session is kept
const DefaultIdleTTL = 2 * time.Hour

// SessionObserver is told how many sessions are live
type SessionObserver interface {
	SetActiveSessions(n int)
}

type storedSession struct {
	session  *Session
	lastSeen time.Time
}

// Store maps session IDs to sessions. Sessions share providers but no state.
// Sessions idle for longer than the TTL are dropped by EvictIdle.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*storedSession
	services Services
	observer SessionObserver
	ttl      time.Duration
	now      func() time.Time
	log      logger.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithIdleTTL sets how long an untouched session is kept
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(st *Store) {
		if ttl > 0 {
			st.ttl = ttl
		}
	}
}

// NewStore creates an empty store; observer may be nil
func NewStore(services Services, observer SessionObserver, opts ...StoreOption) *Store {
	now := services.Now
	if now == nil {
		now = time.Now
	}
	st := &Store{
		sessions: make(map[string]*storedSession),
		services: services,
		observer: observer,
		ttl:      DefaultIdleTTL,
		now:      now,
		log:      logger.Named("sessions"),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Create starts a new session
func (st *Store) Create() (string, *Session) {
	id := uuid.NewString()
	session := NewSession(st.services)

	st.mu.Lock()
	st.sessions[id] = &storedSession{session: session, lastSeen: st.now()}
	n := len(st.sessions)
	st.mu.Unlock()

	st.observe(n)
	return id, session
}

// Get looks up a session and marks it as used
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	stored, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	stored.lastSeen = st.now()
	return stored.session, true
}

// GetOrCreate returns the session for id, creating a new one when id is unknown
func (st *Store) GetOrCreate(id string) (string, *Session, bool) {
	if session, ok := st.Get(id); ok {
		return id, session, false
	}
	newID, session := st.Create()
	return newID, session, true
}

// Delete drops a session
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()

	st.observe(n)
}

// EvictIdle drops every session not used within the TTL and returns how many were dropped
func (st *Store) EvictIdle() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	evicted := 0
	for id, stored := range st.sessions {
		if stored.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	if evicted > 0 {
		st.observe(n)
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done
func (st *Store) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.EvictIdle(); n > 0 {
				st.log.Debug(ctx, "evicted idle sessions", logger.Int("count", n))
			}
		}
	}
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) observe(n int) {
	if st.observer != nil {
		st.observer.SetActiveSessions(n)
	}
}

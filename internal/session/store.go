package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/metrics"
)

// DefaultIdleTimeout is used when NewStore is given a non-positive timeout.
const DefaultIdleTimeout = 30 * time.Minute

// =============================================================================
// Store
// =============================================================================

// Store keeps one domain.Session per browser. Events for the same session
// are serialised; events for different sessions run in parallel. Sessions
// idle for longer than the timeout are discarded and the next event under
// that id starts from a blank form.
type Store struct {
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	session  *domain.Session
	lastSeen time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now. Tests use it to move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(idleTimeout time.Duration, logger *slog.Logger, opts ...Option) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	s := &Store{
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
		entries:     make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Do runs fn with exclusive access to the session, creating it if it does
// not exist or has expired. fn must not retain the session after returning.
func (s *Store) Do(id string, fn func(*domain.Session) error) error {
	e := s.acquire(id)

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

func (s *Store) acquire(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[id]
	if ok && s.expired(e, now) {
		delete(s.entries, id)
		ok = false
	}
	if !ok {
		e = &entry{session: domain.NewSession(id, now)}
		s.entries[id] = e
		s.logger.Debug("session started", "session_id", id)
	}
	e.lastSeen = now
	metrics.SessionsActive.Set(float64(len(s.entries)))
	return e
}

// Exists reports whether a live session is held under id.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return ok && !s.expired(e, s.now())
}

// Delete discards a session immediately.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	metrics.SessionsActive.Set(float64(len(s.entries)))
}

// Len returns the number of sessions held, including expired ones not yet
// swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	metrics.SessionsActive.Set(float64(len(s.entries)))
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started",
		"interval", interval.String(),
		"idle_timeout", s.idleTimeout.String(),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

// expired must be called with s.mu held.
func (s *Store) expired(e *entry, now time.Time) bool {
	return now.Sub(e.lastSeen) > s.idleTimeout
}

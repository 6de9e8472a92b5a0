// Package session keeps one price form per operator browser session.  Forms
// live in memory only and are dropped after a period without requests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/metrics"
	"github.com/iliyamo/aizah-price-admin/internal/priceform"
)

type entry struct {
	form     *priceform.Form
	lastSeen time.Time
}

// Store maps session ids to forms.
type Store struct {
	ttl     time.Duration
	newForm func() *priceform.Form
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore creates a store whose forms expire after ttl of inactivity.
// newForm builds the form for a fresh session.
func NewStore(ttl time.Duration, newForm func() *priceform.Form, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		ttl:     ttl,
		newForm: newForm,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the form of session id and refreshes its idle timer.
func (s *Store) Get(id string) (*priceform.Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		delete(s.entries, id)
		metrics.SetSessions(len(s.entries))
		return nil, false
	}
	e.lastSeen = s.now()
	return e.form, true
}

// Create starts a new session and returns its id and form.
func (s *Store) Create() (string, *priceform.Form) {
	id := uuid.NewString()
	form := s.newForm()

	s.mu.Lock()
	s.entries[id] = &entry{form: form, lastSeen: s.now()}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.SetSessions(n)
	s.logger.Debug("price form session created", zap.String("session_id", id))
	return id, form
}

// GetOrCreate returns the form of id, starting a new session when id is
// unknown or expired.  created reports whether a new id was issued.
func (s *Store) GetOrCreate(id string) (string, *priceform.Form, bool) {
	if id != "" {
		if form, ok := s.Get(id); ok {
			return id, form, false
		}
	}
	newID, form := s.Create()
	return newID, form, true
}

// Len reports the number of sessions held, expired ones included until the
// next sweep.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

// Sweep removes idle sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.SetSessions(n)
	if removed > 0 {
		s.logger.Info("expired price form sessions", zap.Int("removed", removed), zap.Int("live", n))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

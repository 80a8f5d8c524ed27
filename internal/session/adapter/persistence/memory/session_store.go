package memory

import (
	"context"
	"sync"
	"time"

	"timeline/internal/session/domain/model"
	"timeline/internal/session/domain/repository"
)

type entry struct {
	session   *model.Session
	expiresAt time.Time
}

// Store is a process-local session store for development and tests. All operations are atomic per call.
type Store struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Get(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, repository.ErrSessionNotFound
	}
	out := e.session.Clone()
	out.ID = id
	return out, nil
}

func (s *Store) Save(_ context.Context, session *model.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = entry{session: session.Clone(), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *Store) Rotate(_ context.Context, oldID string, session *model.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, oldID)
	s.sessions[session.ID] = entry{session: session.Clone(), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *Store) Touch(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	e.expiresAt = s.now().Add(ttl)
	s.sessions[id] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var _ repository.Store = (*Store)(nil)

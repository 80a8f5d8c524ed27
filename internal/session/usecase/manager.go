package usecase

import (
	"context"
	"errors"
	"time"

	"timeline/internal/session/config"
	"timeline/internal/session/domain/model"
	"timeline/internal/session/domain/repository"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/logger"
)

const component = "session"

// Manager owns creation, periodic rotation and destruction of sessions.
//
// Every read-modify-write for one session key runs under a per-key lock, so two requests carrying
// the same cookie cannot interleave a load with a rotation. Rotation itself is handed to the store as
// a single operation so the old identifier stops resolving the moment the new one exists.
type Manager struct {
	store       repository.Store
	rotateAfter time.Duration
	idleTTL     time.Duration
	locks       *keyedMutex
	now         func() time.Time
	publisher   eventbus.Publisher
	log         logger.Logger
}

// NewManager creates a session manager.
func NewManager(store repository.Store, cfg *config.Config, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		store:       store,
		rotateAfter: cfg.RotateAfter,
		idleTTL:     cfg.IdleTTL,
		locks:       newKeyedMutex(),
		now:         time.Now,
		log:         log.WithComponent(component),
	}
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithPublisher announces rotations and destructions on p so long-lived connections can follow the
// session they were opened with.
func (m *Manager) WithPublisher(p eventbus.Publisher) *Manager {
	m.publisher = p
	return m
}

// Ensure returns the live session for id. A missing or unknown id yields a brand new session; a client
// supplied identifier is never adopted. When allowRotate is set and the session is older than the rotation
// window, it is re-keyed with a fresh CSRF token and the login is kept.
func (m *Manager) Ensure(ctx context.Context, id string, allowRotate bool) (*model.Session, error) {
	if id == "" {
		return m.create(ctx)
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	s, err := m.store.Get(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return m.create(ctx)
	}
	if err != nil {
		return nil, storeError("load session", err)
	}
	s.ID = id

	if allowRotate && s.Age(m.now()) > m.rotateAfter {
		if err := m.rotate(ctx, s); err != nil {
			return nil, err
		}
		m.log.WithContext(ctx).Debug("session rotated after max age")
		return s, nil
	}

	if s.CSRFToken == "" {
		if s.CSRFToken, err = newCSRFToken(); err != nil {
			return nil, sharederrors.NewInternalError("issue csrf token").WithCause(err).WithComponent(component)
		}
		if err := m.store.Save(ctx, s, m.idleTTL); err != nil {
			return nil, storeError("save session", err)
		}
		return s, nil
	}

	if err := m.store.Touch(ctx, id, m.idleTTL); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return m.create(ctx)
		}
		return nil, storeError("touch session", err)
	}
	return s, nil
}

// Login moves the session to the authenticated state: new identifier, new CSRF token, login_user_id set.
func (m *Manager) Login(ctx context.Context, s *model.Session, userID string) error {
	if userID == "" {
		return sharederrors.NewInternalError("login without user id").WithComponent(component)
	}

	unlock := m.locks.Lock(s.ID)
	defer unlock()

	prev := *s
	s.LoginUserID = userID
	if err := m.rotate(ctx, s); err != nil {
		*s = prev
		return err
	}
	m.log.WithContext(ctx).Debug("session rotated on login")
	return nil
}

// Destroy removes all state of s. The caller expires the cookie.
func (m *Manager) Destroy(ctx context.Context, s *model.Session) error {
	id := s.ID
	if id != "" {
		unlock := m.locks.Lock(id)
		err := m.store.Delete(ctx, id)
		unlock()
		if err != nil {
			return storeError("delete session", err)
		}
	}
	*s = model.Session{}
	if id != "" {
		m.publish(ctx, eventbus.EventTypeSessionDestroyed, eventbus.SessionDestroyed{ID: id})
	}
	return nil
}

// Save persists field changes of s under its current identifier.
func (m *Manager) Save(ctx context.Context, s *model.Session) error {
	unlock := m.locks.Lock(s.ID)
	defer unlock()

	if err := m.store.Save(ctx, s, m.idleTTL); err != nil {
		return storeError("save session", err)
	}
	return nil
}

func (m *Manager) create(ctx context.Context) (*model.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, sharederrors.NewInternalError("create session").WithCause(err).WithComponent(component)
	}
	token, err := newCSRFToken()
	if err != nil {
		return nil, sharederrors.NewInternalError("create session").WithCause(err).WithComponent(component)
	}

	s := &model.Session{
		ID:        id,
		CreatedAt: m.now(),
		CSRFToken: token,
	}
	if err := m.store.Save(ctx, s, m.idleTTL); err != nil {
		return nil, storeError("create session", err)
	}
	return s, nil
}

// rotate re-keys s in place. The caller holds the lock for s.ID.
func (m *Manager) rotate(ctx context.Context, s *model.Session) error {
	oldID := s.ID

	id, err := newSessionID()
	if err != nil {
		return sharederrors.NewInternalError("rotate session").WithCause(err).WithComponent(component)
	}
	token, err := newCSRFToken()
	if err != nil {
		return sharederrors.NewInternalError("rotate session").WithCause(err).WithComponent(component)
	}

	next := *s
	next.ID = id
	next.CSRFToken = token
	next.CreatedAt = m.now()

	if err := m.store.Rotate(ctx, oldID, &next, m.idleTTL); err != nil {
		return storeError("rotate session", err)
	}
	*s = next
	m.publish(ctx, eventbus.EventTypeSessionRotated, eventbus.SessionRotated{OldID: oldID, NewID: id})
	return nil
}

func (m *Manager) publish(ctx context.Context, eventType string, data interface{}) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, eventbus.NewEvent(eventType, component, data)); err != nil {
		m.log.WithContext(ctx).Warnf("failed to publish %s: %v", eventType, err)
	}
}

func storeError(op string, err error) error {
	return sharederrors.NewInfrastructureError(op).
		WithCause(errors.Join(sharederrors.ErrStoreUnavailable, err)).
		WithComponent(component)
}

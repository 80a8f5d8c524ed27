package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timeline/internal/session/domain/model"
	"timeline/internal/session/domain/repository"

	goredis "github.com/redis/go-redis/v9"
)

// SessionStore keeps each session as a JSON string under prefix+id with a sliding TTL.
type SessionStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis backed session store.
func NewSessionStore(client goredis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

// Get loads the session stored under id.
func (s *SessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session.ID = id
	return &session, nil
}

// Save writes the session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Rotate stores session under its new id and deletes oldID inside one MULTI/EXEC.
func (s *SessionStore) Rotate(ctx context.Context, oldID string, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.key(session.ID), data, ttl)
		pipe.Del(ctx, s.key(oldID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis rotate session: %w", err)
	}
	return nil
}

// Touch slides the expiry of id.
func (s *SessionStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, s.key(id), ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire session: %w", err)
	}
	if !ok {
		return repository.ErrSessionNotFound
	}
	return nil
}

// Delete removes id. Deleting a missing key is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ repository.Store = (*SessionStore)(nil)

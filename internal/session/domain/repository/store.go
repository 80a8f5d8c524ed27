package repository

import (
	"context"
	"errors"
	"time"

	"timeline/internal/session/domain/model"
)

// ErrSessionNotFound is returned when no state exists for an identifier, including expired ones.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session state keyed by session identifier.
// Any error other than ErrSessionNotFound means the store could not serve the call.
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session, ttl time.Duration) error
	// Rotate writes session under session.ID and removes oldID as one operation.
	Rotate(ctx context.Context, oldID string, session *model.Session, ttl time.Duration) error
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

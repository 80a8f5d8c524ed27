package repository

import (
	"context"
	"errors"

	"timeline/internal/auth/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already taken")
)

// UserRepository is the credential store.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	Ping(ctx context.Context) error
}

// AccessLogRepository persists login history.
type AccessLogRepository interface {
	Record(ctx context.Context, entry *model.AccessLog) error
}

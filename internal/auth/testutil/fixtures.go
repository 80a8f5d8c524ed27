package testutil

import (
	"context"
	"sync"
	"time"

	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/domain/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword satisfies the signup password rules.
const DefaultPassword = "password123"

// UserFixture provides test data for User model
type UserFixture struct{}

// NewUserFixture creates a new UserFixture instance
func NewUserFixture() *UserFixture {
	return &UserFixture{}
}

// ValidUser returns a valid user for testing
func (f *UserFixture) ValidUser() *model.User {
	return f.UserWithPassword("test@example.com", DefaultPassword)
}

// UserWithEmail returns a user with specific email
func (f *UserFixture) UserWithEmail(email string) *model.User {
	return f.UserWithPassword(email, DefaultPassword)
}

// UserWithPassword returns a user with specific password, hashed at the minimum bcrypt cost.
func (f *UserFixture) UserWithPassword(email, password string) *model.User {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	now := time.Now()
	return &model.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Common test emails for validation testing
var (
	ValidEmails = []string{
		"test@example.com",
		"user.name@domain.co.uk",
		"user+tag@example.org",
	}

	InvalidEmails = []string{
		"invalid-email",
		"@example.com",
		"test@",
		"test.example.com",
		"test space@example.com",
	}
)

// InMemoryUserRepository is a map-backed UserRepository and AccessLogRepository for handler tests.
type InMemoryUserRepository struct {
	mu         sync.Mutex
	byID       map[string]*model.User
	accessLogs []model.AccessLog
}

var (
	_ repository.UserRepository      = (*InMemoryUserRepository)(nil)
	_ repository.AccessLogRepository = (*InMemoryUserRepository)(nil)
)

// NewInMemoryUserRepository returns an empty repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{byID: make(map[string]*model.User)}
}

// CreateUser stores a copy of user.
func (r *InMemoryUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

// GetUserByEmail returns the user with email.
func (r *InMemoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// GetUserByID returns the user with id.
func (r *InMemoryUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// Delete removes a user, simulating an account deleted while its session lives on.
func (r *InMemoryUserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// Ping always succeeds.
func (r *InMemoryUserRepository) Ping(ctx context.Context) error {
	return nil
}

// Record appends entry.
func (r *InMemoryUserRepository) Record(ctx context.Context, entry *model.AccessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accessLogs = append(r.accessLogs, *entry)
	return nil
}

// AccessLogs returns the recorded entries.
func (r *InMemoryUserRepository) AccessLogs() []model.AccessLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AccessLog(nil), r.accessLogs...)
}

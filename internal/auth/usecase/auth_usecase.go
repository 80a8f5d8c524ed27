package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"timeline/internal/auth/config"
	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/domain/repository"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = repository.ErrUserNotFound
	ErrEmailTaken         = repository.ErrEmailTaken
)

// Field limits
const (
	maxNameLength     = 100
	maxEmailLength    = 255
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	RecordAccess(ctx context.Context, entry model.AccessLog)
}

// RegisterRequest represents the signup form.
type RegisterRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	users      repository.UserRepository
	accessLogs repository.AccessLogRepository
	config     *config.Config
	log        logger.Logger
	dummyHash  []byte
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
}

var _ AuthUsecaseInterface = (*AuthUsecase)(nil)

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	users repository.UserRepository,
	accessLogs repository.AccessLogRepository,
	cfg *config.Config,
	log logger.Logger,
) *AuthUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		dummy, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	}

	return &AuthUsecase{
		users:      users,
		accessLogs: accessLogs,
		config:     cfg,
		log:        log.WithComponent("auth"),
		dummyHash:  dummy,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// WithSleeper replaces the failure delay, for tests.
func (uc *AuthUsecase) WithSleeper(sleep func(ctx context.Context, d time.Duration)) *AuthUsecase {
	uc.sleep = sleep
	return uc
}

// Register validates the signup form and stores a new user. Every failing field is reported.
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	verrs := sharederrors.NewValidationErrors()
	switch {
	case name == "":
		verrs.Add("name", i18n.KeySignupNameRequired)
	case utf8.RuneCountInString(name) > maxNameLength:
		verrs.Add("name", i18n.KeySignupNameTooLong)
	}
	if err := validateEmail(email); err != "" {
		verrs.Add("email", err)
	}
	if err := validatePassword(req.Password); err != "" {
		verrs.Add("password", err)
	} else if req.Password != req.PasswordConfirm {
		verrs.Add("password_confirm", i18n.KeySignupPasswordMismatch)
	}
	if verrs.HasErrors() {
		return nil, verrs.ToAppError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), uc.config.BcryptCost)
	if err != nil {
		return nil, sharederrors.NewInternalError("hash password").WithCause(err).WithComponent("auth")
	}

	now := uc.now()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, sharederrors.NewConflictError("email already registered").
				WithKey(i18n.KeySignupEmailTaken).
				WithCause(sharederrors.NewValidationErrors().Add("email", i18n.KeySignupEmailTaken)).
				WithComponent("auth")
		}
		return nil, storeError("create user", err)
	}

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{"user_id": user.ID}).Info("User registered")
	return user, nil
}

// Authenticate checks email and password. Unknown email and wrong password produce the same error,
// cost one bcrypt comparison each and are followed by the same randomized delay.
func (uc *AuthUsecase) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	verrs := sharederrors.NewValidationErrors()
	if email == "" {
		verrs.Add("email", i18n.KeyLoginEmailEmpty)
	} else if !emailRegex.MatchString(email) {
		verrs.Add("email", i18n.KeySignupEmailInvalid)
	}
	if password == "" {
		verrs.Add("password", i18n.KeyLoginPasswordEmpty)
	}
	if verrs.HasErrors() {
		return nil, verrs.ToAppError()
	}

	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, storeError("get user by email", err)
	}

	hash := uc.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password))

	if user == nil || cmpErr != nil {
		uc.sleep(ctx, uc.failureDelay())
		return nil, sharederrors.NewAuthenticationError("invalid email or password").
			WithCause(ErrInvalidCredentials).
			WithComponent("auth")
	}

	return user, nil
}

// CurrentUser loads the user a session belongs to. A missing record is a NotFoundError.
func (uc *AuthUsecase) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, sharederrors.NewAuthenticationError("no user in session").WithCause(sharederrors.ErrUnauthorized)
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, sharederrors.NewNotFoundError("user").WithCause(err).WithComponent("auth")
		}
		return nil, storeError("get user by id", err)
	}
	return user, nil
}

// RecordAccess stores a login history entry. Failures are logged and do not affect the login.
func (uc *AuthUsecase) RecordAccess(ctx context.Context, entry model.AccessLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = uc.now()
	}
	if entry.IP == "" {
		entry.IP = "unknown"
	}
	if entry.UserAgent == "" {
		entry.UserAgent = "unknown"
	}

	if err := uc.accessLogs.Record(ctx, &entry); err != nil {
		uc.log.WithContext(ctx).WithFields(map[string]interface{}{
			"user_id": entry.UserID,
		}).Warnf("Failed to record access log: %v", err)
	}
}

func (uc *AuthUsecase) failureDelay() time.Duration {
	lo, hi := uc.config.FailureDelayMin, uc.config.FailureDelayMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

func validateEmail(email string) string {
	switch {
	case email == "":
		return i18n.KeySignupEmailRequired
	case len(email) > maxEmailLength, !emailRegex.MatchString(email):
		return i18n.KeySignupEmailInvalid
	}
	return ""
}

func validatePassword(password string) string {
	if password == "" {
		return i18n.KeySignupPasswordRequired
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return i18n.KeySignupPasswordShort
	}
	if len(password) > maxPasswordBytes {
		return i18n.KeySignupPasswordTooLong
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return i18n.KeySignupPasswordWeak
	}
	return ""
}

func storeError(op string, err error) error {
	return sharederrors.NewInfrastructureError(op).
		WithCause(errors.Join(sharederrors.ErrStoreUnavailable, err)).
		WithComponent("auth")
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

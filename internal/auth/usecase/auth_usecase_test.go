package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"timeline/internal/auth/config"
	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/domain/repository"
	"timeline/internal/auth/usecase"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// Mock repositories
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockAccessLogRepository struct {
	mock.Mock
}

func (m *mockAccessLogRepository) Record(ctx context.Context, entry *model.AccessLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
}

type AuthUsecaseTestSuite struct {
	suite.Suite
	users      *mockUserRepository
	accessLogs *mockAccessLogRepository
	sleeps     *sleepRecorder
	usecase    *usecase.AuthUsecase
	config     *config.Config
}

func (suite *AuthUsecaseTestSuite) SetupTest() {
	suite.users = &mockUserRepository{}
	suite.accessLogs = &mockAccessLogRepository{}
	suite.sleeps = &sleepRecorder{}
	suite.config = config.DefaultConfig()
	suite.config.BcryptCost = bcrypt.MinCost

	suite.usecase = usecase.NewAuthUsecase(suite.users, suite.accessLogs, suite.config, nil).
		WithSleeper(suite.sleeps.sleep)
}

func (suite *AuthUsecaseTestSuite) userWithPassword(email, password string) *model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	suite.Require().NoError(err)
	return &model.User{ID: "user-1", Name: "Alice", Email: email, PasswordHash: string(hash)}
}

func (suite *AuthUsecaseTestSuite) TestRegister_Success() {
	ctx := context.Background()
	suite.users.On("CreateUser", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "alice@example.com" && u.Name == "Alice" && u.ID != "" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	user, err := suite.usecase.Register(ctx, usecase.RegisterRequest{
		Name:            "  Alice ",
		Email:           "alice@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Alice", user.Name)
	assert.False(suite.T(), user.CreatedAt.IsZero())
	suite.users.AssertExpectations(suite.T())
}

func (suite *AuthUsecaseTestSuite) TestRegister_FieldErrors() {
	tests := []struct {
		name  string
		req   usecase.RegisterRequest
		field string
		key   string
	}{
		{"empty name", usecase.RegisterRequest{Email: "a@example.com", Password: "password1", PasswordConfirm: "password1"}, "name", i18n.KeySignupNameRequired},
		{"long name", usecase.RegisterRequest{Name: strings.Repeat("名", 101), Email: "a@example.com", Password: "password1", PasswordConfirm: "password1"}, "name", i18n.KeySignupNameTooLong},
		{"empty email", usecase.RegisterRequest{Name: "A", Password: "password1", PasswordConfirm: "password1"}, "email", i18n.KeySignupEmailRequired},
		{"bad email", usecase.RegisterRequest{Name: "A", Email: "not-an-email", Password: "password1", PasswordConfirm: "password1"}, "email", i18n.KeySignupEmailInvalid},
		{"empty password", usecase.RegisterRequest{Name: "A", Email: "a@example.com"}, "password", i18n.KeySignupPasswordRequired},
		{"short password", usecase.RegisterRequest{Name: "A", Email: "a@example.com", Password: "abc123", PasswordConfirm: "abc123"}, "password", i18n.KeySignupPasswordShort},
		{"letters only", usecase.RegisterRequest{Name: "A", Email: "a@example.com", Password: "abcdefgh", PasswordConfirm: "abcdefgh"}, "password", i18n.KeySignupPasswordWeak},
		{"digits only", usecase.RegisterRequest{Name: "A", Email: "a@example.com", Password: "12345678", PasswordConfirm: "12345678"}, "password", i18n.KeySignupPasswordWeak},
		{"too long", usecase.RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("a1", 40), PasswordConfirm: strings.Repeat("a1", 40)}, "password", i18n.KeySignupPasswordTooLong},
		{"mismatch", usecase.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password1", PasswordConfirm: "password2"}, "password_confirm", i18n.KeySignupPasswordMismatch},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.usecase.Register(context.Background(), tt.req)
			require.Error(suite.T(), err)
			assert.True(suite.T(), sharederrors.IsValidation(err))
			assert.Contains(suite.T(), sharederrors.FieldErrors(err), sharederrors.ValidationError{Field: tt.field, Key: tt.key})
		})
	}
	suite.users.AssertNotCalled(suite.T(), "CreateUser", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestRegister_ReportsEveryField() {
	_, err := suite.usecase.Register(context.Background(), usecase.RegisterRequest{})

	fields := map[string]bool{}
	for _, fe := range sharederrors.FieldErrors(err) {
		fields[fe.Field] = true
	}
	assert.True(suite.T(), fields["name"])
	assert.True(suite.T(), fields["email"])
	assert.True(suite.T(), fields["password"])
}

func (suite *AuthUsecaseTestSuite) TestRegister_EmailTaken() {
	suite.users.On("CreateUser", mock.Anything, mock.Anything).Return(repository.ErrEmailTaken)

	_, err := suite.usecase.Register(context.Background(), usecase.RegisterRequest{
		Name: "A", Email: "taken@example.com", Password: "password1", PasswordConfirm: "password1",
	})

	require.Error(suite.T(), err)
	assert.True(suite.T(), sharederrors.IsConflict(err))
	assert.Equal(suite.T(), http.StatusConflict, sharederrors.HTTPStatus(err))
	assert.Equal(suite.T(), []sharederrors.ValidationError{{Field: "email", Key: i18n.KeySignupEmailTaken}}, sharederrors.FieldErrors(err))
}

func (suite *AuthUsecaseTestSuite) TestRegister_StoreFailure() {
	suite.users.On("CreateUser", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := suite.usecase.Register(context.Background(), usecase.RegisterRequest{
		Name: "A", Email: "a@example.com", Password: "password1", PasswordConfirm: "password1",
	})

	assert.True(suite.T(), sharederrors.IsInfrastructure(err))
	assert.ErrorIs(suite.T(), err, sharederrors.ErrStoreUnavailable)
}

func (suite *AuthUsecaseTestSuite) TestAuthenticate_Success() {
	user := suite.userWithPassword("alice@example.com", "password123")
	suite.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	got, err := suite.usecase.Authenticate(context.Background(), " alice@example.com ", "password123")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "user-1", got.ID)
	assert.Empty(suite.T(), suite.sleeps.delays)
}

func (suite *AuthUsecaseTestSuite) TestAuthenticate_UnknownEmailAndWrongPasswordIndistinguishable() {
	user := suite.userWithPassword("alice@example.com", "password123")
	suite.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	suite.users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	_, wrongPassword := suite.usecase.Authenticate(context.Background(), "alice@example.com", "wrong-pass1")
	_, unknownEmail := suite.usecase.Authenticate(context.Background(), "nobody@example.com", "wrong-pass1")

	require.Error(suite.T(), wrongPassword)
	require.Error(suite.T(), unknownEmail)
	assert.Equal(suite.T(), wrongPassword.Error(), unknownEmail.Error())
	assert.ErrorIs(suite.T(), wrongPassword, usecase.ErrInvalidCredentials)
	assert.ErrorIs(suite.T(), unknownEmail, usecase.ErrInvalidCredentials)
	assert.True(suite.T(), sharederrors.IsAuthentication(unknownEmail))
	assert.Equal(suite.T(), sharederrors.HTTPStatus(wrongPassword), sharederrors.HTTPStatus(unknownEmail))

	require.Len(suite.T(), suite.sleeps.delays, 2)
	for _, d := range suite.sleeps.delays {
		assert.GreaterOrEqual(suite.T(), d, suite.config.FailureDelayMin)
		assert.LessOrEqual(suite.T(), d, suite.config.FailureDelayMax)
	}
}

func (suite *AuthUsecaseTestSuite) TestAuthenticate_EmptyFields() {
	_, err := suite.usecase.Authenticate(context.Background(), "", "")

	assert.True(suite.T(), sharederrors.IsValidation(err))
	assert.ElementsMatch(suite.T(), []sharederrors.ValidationError{
		{Field: "email", Key: i18n.KeyLoginEmailEmpty},
		{Field: "password", Key: i18n.KeyLoginPasswordEmpty},
	}, sharederrors.FieldErrors(err))
	suite.users.AssertNotCalled(suite.T(), "GetUserByEmail", mock.Anything, mock.Anything)
}

func (suite *AuthUsecaseTestSuite) TestAuthenticate_StoreFailureIsNotAuthFailure() {
	suite.users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, errors.New("i/o timeout"))

	_, err := suite.usecase.Authenticate(context.Background(), "alice@example.com", "password123")

	assert.True(suite.T(), sharederrors.IsInfrastructure(err))
	assert.False(suite.T(), sharederrors.IsAuthentication(err))
}

func (suite *AuthUsecaseTestSuite) TestCurrentUser() {
	user := &model.User{ID: "user-1", Name: "Alice"}
	suite.users.On("GetUserByID", mock.Anything, "user-1").Return(user, nil)
	suite.users.On("GetUserByID", mock.Anything, "gone").Return(nil, repository.ErrUserNotFound)
	suite.users.On("GetUserByID", mock.Anything, "broken").Return(nil, errors.New("server selection timeout"))

	got, err := suite.usecase.CurrentUser(context.Background(), "user-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), user, got)

	_, err = suite.usecase.CurrentUser(context.Background(), "gone")
	assert.True(suite.T(), sharederrors.IsNotFound(err))

	_, err = suite.usecase.CurrentUser(context.Background(), "broken")
	assert.True(suite.T(), sharederrors.IsInfrastructure(err))

	_, err = suite.usecase.CurrentUser(context.Background(), "")
	assert.True(suite.T(), sharederrors.IsAuthentication(err))
}

func (suite *AuthUsecaseTestSuite) TestRecordAccess_BestEffort() {
	suite.accessLogs.On("Record", mock.Anything, mock.MatchedBy(func(e *model.AccessLog) bool {
		return e.UserID == "user-1" && e.UserAgent == "unknown" && !e.CreatedAt.IsZero()
	})).Return(errors.New("write failed"))

	assert.NotPanics(suite.T(), func() {
		suite.usecase.RecordAccess(context.Background(), model.AccessLog{UserID: "user-1", IP: "10.0.0.1"})
	})
	suite.accessLogs.AssertExpectations(suite.T())
}

func TestAuthUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(AuthUsecaseTestSuite))
}

func TestAuthenticate_FailureLatencyComparable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.FailureDelayMin = 20 * time.Millisecond
	cfg.FailureDelayMax = 40 * time.Millisecond

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &mockUserRepository{}
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&model.User{ID: "user-1", Email: "alice@example.com", PasswordHash: string(hash)}, nil)
	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	uc := usecase.NewAuthUsecase(users, &mockAccessLogRepository{}, cfg, nil)

	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		start := time.Now()
		_, err := uc.Authenticate(context.Background(), email, "wrong-pass1")
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, usecase.ErrInvalidCredentials)
		assert.GreaterOrEqual(t, elapsed, cfg.FailureDelayMin, email)
	}
}

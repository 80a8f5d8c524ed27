package auth

import (
	"context"
	"fmt"

	authhttp "timeline/internal/auth/adapter/http"
	"timeline/internal/auth/adapter/persistence/mongodb"
	"timeline/internal/auth/config"
	"timeline/internal/auth/domain/repository"
	"timeline/internal/auth/usecase"
	sessionhttp "timeline/internal/session/adapter/http"
	"timeline/internal/shared/audit"
	"timeline/internal/shared/logger"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the collaborators the auth module shares with the rest of the app.
type Dependencies struct {
	Sessions *sessionhttp.Middleware
	Renderer *web.Renderer
	Audit    *audit.Logger
	Logger   logger.Logger
}

// AuthModule represents the complete authentication module
type AuthModule struct {
	users      repository.UserRepository
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
}

// NewAuthModule creates the module on MongoDB.
func NewAuthModule(ctx context.Context, db *mongo.Database, cfg *config.Config, deps Dependencies) (*AuthModule, error) {
	users, err := mongodb.NewMongoUserRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create user repository: %w", err)
	}

	accessLogs, err := mongodb.NewMongoAccessLogRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create access log repository: %w", err)
	}

	return NewAuthModuleWithRepositories(users, accessLogs, cfg, deps), nil
}

// NewAuthModuleWithRepositories creates the module on existing repositories.
func NewAuthModuleWithRepositories(
	users repository.UserRepository,
	accessLogs repository.AccessLogRepository,
	cfg *config.Config,
	deps Dependencies,
) *AuthModule {
	authUsecase := usecase.NewAuthUsecase(users, accessLogs, cfg, deps.Logger)

	return &AuthModule{
		users:      users,
		usecase:    authUsecase,
		handler:    authhttp.NewAuthHTTPHandler(authUsecase, deps.Sessions, deps.Renderer, deps.Audit, deps.Logger),
		middleware: authhttp.NewAuthMiddleware(authUsecase, deps.Sessions, cfg, deps.Audit, deps.Logger),
		config:     cfg,
	}
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.SetupAuthRoutesWithMiddleware(router, am.middleware)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}

// HealthCheck pings the credential store.
func (am *AuthModule) HealthCheck(ctx context.Context) error {
	return am.users.Ping(ctx)
}

// Stop performs cleanup when the module is shut down. The Mongo client is owned by the container.
func (am *AuthModule) Stop() error {
	return nil
}

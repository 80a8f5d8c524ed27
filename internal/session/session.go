package session

import (
	"context"
	"fmt"

	sessionhttp "timeline/internal/session/adapter/http"
	"timeline/internal/session/adapter/persistence/memory"
	sessionredis "timeline/internal/session/adapter/persistence/redis"
	"timeline/internal/session/config"
	"timeline/internal/session/domain/repository"
	"timeline/internal/session/usecase"
	"timeline/internal/shared/audit"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/logger"

	goredis "github.com/redis/go-redis/v9"
)

// SessionModule wires the session store, lifecycle manager, CSRF guard and their fiber middleware.
type SessionModule struct {
	store      repository.Store
	manager    *usecase.Manager
	csrf       *usecase.CSRFGuard
	middleware *sessionhttp.Middleware
	redis      *goredis.Client
	config     *config.Config
}

// NewSessionModule builds the module on the configured backend.
func NewSessionModule(cfg *config.Config, auditLog *audit.Logger, log logger.Logger) (*SessionModule, error) {
	var (
		store       repository.Store
		redisClient *goredis.Client
	)

	switch cfg.Store {
	case config.StoreRedis:
		redisClient = sessionredis.NewClient(cfg.Redis)
		store = sessionredis.NewSessionStore(redisClient, cfg.KeyPrefix)
	case config.StoreMemory:
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}

	return newModule(store, redisClient, cfg, auditLog, log), nil
}

// NewSessionModuleWithStore builds the module on an existing store.
func NewSessionModuleWithStore(store repository.Store, cfg *config.Config, auditLog *audit.Logger, log logger.Logger) *SessionModule {
	return newModule(store, nil, cfg, auditLog, log)
}

func newModule(store repository.Store, redisClient *goredis.Client, cfg *config.Config, auditLog *audit.Logger, log logger.Logger) *SessionModule {
	manager := usecase.NewManager(store, cfg, log)
	csrf := usecase.NewCSRFGuard(manager)
	return &SessionModule{
		store:      store,
		manager:    manager,
		csrf:       csrf,
		middleware: sessionhttp.NewMiddleware(manager, csrf, sessionhttp.CookieOptionsFromConfig(cfg), auditLog, log),
		redis:      redisClient,
		config:     cfg,
	}
}

// GetMiddleware returns the fiber session middleware.
func (sm *SessionModule) GetMiddleware() *sessionhttp.Middleware {
	return sm.middleware
}

// GetManager returns the lifecycle manager.
func (sm *SessionModule) GetManager() *usecase.Manager {
	return sm.manager
}

// PublishTo announces session rotations and destructions on p.
func (sm *SessionModule) PublishTo(p eventbus.Publisher) {
	sm.manager.WithPublisher(p)
}

// HealthCheck pings the session backend.
func (sm *SessionModule) HealthCheck(ctx context.Context) error {
	return sm.store.Ping(ctx)
}

// Stop closes the Redis connection pool when one is owned by the module.
func (sm *SessionModule) Stop() error {
	if sm.redis != nil {
		return sm.redis.Close()
	}
	return nil
}

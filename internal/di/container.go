package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"timeline/internal/auth"
	authconfig "timeline/internal/auth/config"
	"timeline/internal/session"
	sessionconfig "timeline/internal/session/config"
	"timeline/internal/shared/audit"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/logger"
	"timeline/internal/timeline"
	timelineconfig "timeline/internal/timeline/config"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Container owns the shared connections and the modules built on them.
type Container struct {
	mu sync.RWMutex

	// Module instances
	SessionModule  *session.SessionModule
	AuthModule     *auth.AuthModule
	TimelineModule *timeline.TimelineModule

	// Database connections
	MongoClient *mongo.Client
	MongoDB     *mongo.Database

	// Shared collaborators
	EventBus *eventbus.EventBus
	Renderer *web.Renderer
	Audit    *audit.Logger
	Logger   logger.Logger
}

// NewContainer creates an empty container. Nil loggers are replaced with no-op ones.
func NewContainer(log logger.Logger, auditLog *audit.Logger) *Container {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if auditLog == nil {
		auditLog = audit.NewNop()
	}
	return &Container{
		EventBus: eventbus.NewEventBus(log),
		Audit:    auditLog,
		Logger:   log,
	}
}

// ConnectMongo opens the MongoDB client and verifies it with a ping.
func (c *Container) ConnectMongo(ctx context.Context, uri, database string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.MongoClient = client
	c.MongoDB = client.Database(database)
	return nil
}

// InitializeSession builds the session module on the configured store.
func (c *Container) InitializeSession(cfg *sessionconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessionModule, err := session.NewSessionModule(cfg, c.Audit, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create session module: %w", err)
	}
	sessionModule.PublishTo(c.EventBus)
	c.SessionModule = sessionModule
	return nil
}

// InitializeAuth builds the auth module. Session and MongoDB must be ready.
func (c *Container) InitializeAuth(ctx context.Context, cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SessionModule == nil {
		return errors.New("session module must be initialized before auth module")
	}
	if c.MongoDB == nil {
		return errors.New("MongoDB must be connected before auth module")
	}
	if err := c.ensureRenderer(); err != nil {
		return err
	}

	authModule, err := auth.NewAuthModule(ctx, c.MongoDB, cfg, auth.Dependencies{
		Sessions: c.SessionModule.GetMiddleware(),
		Renderer: c.Renderer,
		Audit:    c.Audit,
		Logger:   c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = authModule
	return nil
}

// InitializeTimeline builds the timeline module. Auth must be ready.
func (c *Container) InitializeTimeline(ctx context.Context, cfg *timelineconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.AuthModule == nil {
		return errors.New("auth module must be initialized before timeline module")
	}

	timelineModule, err := timeline.NewTimelineModule(ctx, c.MongoDB, cfg, timeline.Dependencies{
		Sessions: c.SessionModule.GetMiddleware(),
		Auth:     c.AuthModule.GetMiddleware(),
		Renderer: c.Renderer,
		Bus:      c.EventBus,
		Logger:   c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create timeline module: %w", err)
	}
	c.TimelineModule = timelineModule
	return nil
}

func (c *Container) ensureRenderer() error {
	if c.Renderer != nil {
		return nil
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	c.Renderer = renderer
	return nil
}

// RegisterRoutes mounts every initialized module on app.
func (c *Container) RegisterRoutes(app fiber.Router) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.AuthModule != nil {
		c.AuthModule.RegisterRoutes(app)
	}
	if c.TimelineModule != nil {
		c.TimelineModule.RegisterRoutes(app)
	}
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

// HealthCheck pings every backing service and reports per-component status.
func (c *Container) HealthCheck(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var checks []healthCheck
	if c.MongoClient != nil {
		checks = append(checks, healthCheck{"mongodb", func(ctx context.Context) error {
			return c.MongoClient.Ping(ctx, nil)
		}})
	}
	if c.SessionModule != nil {
		checks = append(checks, healthCheck{"session_store", c.SessionModule.HealthCheck})
	}
	if c.TimelineModule != nil {
		checks = append(checks, healthCheck{"timeline", c.TimelineModule.HealthCheck})
	}

	status := make(map[string]string, len(checks))
	var errs []error
	for _, hc := range checks {
		if err := hc.check(ctx); err != nil {
			status[hc.name] = "UNHEALTHY"
			errs = append(errs, fmt.Errorf("%s health check failed: %w", hc.name, err))
			continue
		}
		status[hc.name] = "HEALTHY"
	}
	return status, errors.Join(errs...)
}

// Cleanup stops modules in reverse order of initialization, then closes connections.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.TimelineModule != nil {
		if err := c.TimelineModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("timeline module: %w", err))
		}
		c.TimelineModule = nil
	}
	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("auth module: %w", err))
		}
		c.AuthModule = nil
	}
	if c.SessionModule != nil {
		if err := c.SessionModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("session module: %w", err))
		}
		c.SessionModule = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect: %w", err))
		}
		c.MongoClient = nil
		c.MongoDB = nil
	}

	return errors.Join(errs...)
}

// Close shuts everything down within 30 seconds.
func (c *Container) Close() error {
	c.Logger.Info("Closing DI container resources...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("DI container resources closed")
	return nil
}

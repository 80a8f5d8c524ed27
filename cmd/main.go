package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authconfig "timeline/internal/auth/config"
	"timeline/internal/di"
	sessionconfig "timeline/internal/session/config"
	"timeline/internal/shared/audit"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"
	timelineconfig "timeline/internal/timeline/config"
	"timeline/internal/web"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string `env:"SERVER_HOST" envDefault:"localhost"`
	Port        string `env:"SERVER_PORT" envDefault:"3000"`
	BodyLimit   int    `env:"BODY_LIMIT" envDefault:"16777216"`
	AllowOrigin string `env:"CORS_ALLOW_ORIGINS" envDefault:""`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	// ProxyHeader is only honored for requests coming from TrustedProxies.
	ProxyHeader    string   `env:"PROXY_HEADER" envDefault:""`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// fiberConfig builds the fiber settings for cfg.
func fiberConfig(cfg *ServerConfig, appLogger logger.Logger) fiber.Config {
	return fiber.Config{
		AppName:                 "timeline",
		ReadTimeout:             30 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             60 * time.Second,
		BodyLimit:               cfg.BodyLimit,
		ProxyHeader:             cfg.ProxyHeader,
		EnableTrustedProxyCheck: cfg.ProxyHeader != "",
		TrustedProxies:          cfg.TrustedProxies,
		ErrorHandler:            web.ErrorHandler(appLogger),
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	auditLogger, err := audit.New(serverCfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create audit logger: %v", err)
	}
	defer auditLogger.Sync()

	sessionCfg, err := sessionconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load session configuration: %v", err)
	}
	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}
	timelineCfg, err := timelineconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load timeline configuration: %v", err)
	}
	appLogger.Info("Application configuration loaded successfully")

	container := di.NewContainer(appLogger, auditLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.ConnectMongo(ctx, authCfg.MongoDBURI, authCfg.DatabaseName); err != nil {
		appLogger.Errorf("%v", err)
		return
	}
	appLogger.Info("MongoDB connection established successfully")

	if err := container.InitializeSession(sessionCfg); err != nil {
		appLogger.Errorf("Failed to initialize session module: %v", err)
		return
	}
	appLogger.Infof("Session module initialized (%s store)", sessionCfg.Store)

	if err := container.InitializeAuth(ctx, authCfg); err != nil {
		appLogger.Errorf("Failed to initialize auth module: %v", err)
		return
	}
	appLogger.Info("Auth module initialized successfully")

	if err := container.InitializeTimeline(ctx, timelineCfg); err != nil {
		appLogger.Errorf("Failed to initialize timeline module: %v", err)
		return
	}
	appLogger.Infof("Timeline module initialized (%s image storage)", timelineCfg.ImageStorage)

	app := fiber.New(fiberConfig(serverCfg, appLogger))

	authMiddleware := container.AuthModule.GetMiddleware()
	sessionMiddleware := container.SessionModule.GetMiddleware()

	app.Use(recover.New())
	app.Use(authMiddleware.RequestID(), authMiddleware.CopyRequestID())
	app.Use(authMiddleware.SecurityHeaders())
	if serverCfg.AllowOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     serverCfg.AllowOrigin,
			AllowMethods:     "GET,POST,HEAD,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept, X-CSRF-Token",
			AllowCredentials: true,
		}))
	}

	// /health sits in front of the session middleware and never gets a cookie.
	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		status, err := container.HealthCheck(healthCtx)
		if err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":     "UNHEALTHY",
				"components": status,
			})
		}
		return c.JSON(fiber.Map{
			"status":     "HEALTHY",
			"timestamp":  time.Now().UTC(),
			"components": status,
		})
	})

	app.Use(web.Localize(i18n.MustNew()))
	app.Use(sessionMiddleware.Load(), sessionMiddleware.RequireValidCSRF())
	container.RegisterRoutes(app)

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("All modules initialized. Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Websocket handlers must return before the listener can drain.
		if container.TimelineModule != nil {
			_ = container.TimelineModule.Stop()
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}

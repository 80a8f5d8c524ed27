package timeline

import (
	"context"
	"fmt"

	authhttp "timeline/internal/auth/adapter/http"
	sessionhttp "timeline/internal/session/adapter/http"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/logger"
	timelinehttp "timeline/internal/timeline/adapter/http"
	"timeline/internal/timeline/adapter/persistence/mongodb"
	"timeline/internal/timeline/adapter/storage"
	"timeline/internal/timeline/config"
	"timeline/internal/timeline/domain/repository"
	"timeline/internal/timeline/usecase"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the collaborators the timeline module borrows from the rest of the app.
type Dependencies struct {
	Sessions *sessionhttp.Middleware
	Auth     *authhttp.AuthMiddleware
	Renderer *web.Renderer
	Bus      *eventbus.EventBus
	Logger   logger.Logger
}

type pinger interface {
	Ping(ctx context.Context) error
}

// TimelineModule wires posts, image storage, the timeline pages and the live stream.
type TimelineModule struct {
	posts   repository.PostRepository
	images  repository.ImageStore
	usecase usecase.PostUsecaseInterface
	handler *timelinehttp.TimelineHandler
	stream  *timelinehttp.StreamHub
	auth    *authhttp.AuthMiddleware
	config  *config.Config
}

// NewTimelineModule creates the module on MongoDB and the configured image store.
func NewTimelineModule(ctx context.Context, db *mongo.Database, cfg *config.Config, deps Dependencies) (*TimelineModule, error) {
	posts, err := mongodb.NewMongoPostRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create post repository: %w", err)
	}

	images, err := NewImageStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewTimelineModuleWithRepositories(posts, images, cfg, deps), nil
}

// NewImageStore builds the image store selected by cfg.ImageStorage.
func NewImageStore(ctx context.Context, cfg *config.Config) (repository.ImageStore, error) {
	switch cfg.ImageStorage {
	case config.ImageStorageLocal:
		store, err := storage.NewLocalImageStore(cfg.UploadDir, cfg.ImageURLPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to create local image store: %w", err)
		}
		return store, nil
	case config.ImageStorageS3:
		store, err := storage.NewS3ImageStore(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			BaseURL:         cfg.S3.BaseURL,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			KeyPrefix:       cfg.S3.KeyPrefix,
			UploadTimeout:   cfg.S3.UploadTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 image store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown image storage %q", cfg.ImageStorage)
	}
}

// NewTimelineModuleWithRepositories creates the module on existing stores.
func NewTimelineModuleWithRepositories(
	posts repository.PostRepository,
	images repository.ImageStore,
	cfg *config.Config,
	deps Dependencies,
) *TimelineModule {
	var publisher eventbus.Publisher
	if deps.Bus != nil {
		publisher = deps.Bus
	}
	postUsecase := usecase.NewPostUsecase(posts, images, publisher, cfg, deps.Logger)

	tm := &TimelineModule{
		posts:   posts,
		images:  images,
		usecase: postUsecase,
		handler: timelinehttp.NewTimelineHandler(postUsecase, deps.Sessions, deps.Renderer, deps.Logger),
		auth:    deps.Auth,
		config:  cfg,
	}
	if deps.Bus != nil {
		tm.stream = timelinehttp.NewStreamHub(deps.Bus, cfg.StreamPingInterval, cfg.StreamSendBuffer, deps.Logger)
	}
	return tm
}

// RegisterRoutes mounts the timeline pages, the JSON feed, the stream and, for local storage, the
// uploaded images.
func (tm *TimelineModule) RegisterRoutes(router fiber.Router) {
	if local, ok := tm.images.(*storage.LocalImageStore); ok {
		router.Static(local.URLPrefix(), local.Dir(), fiber.Static{MaxAge: 86400})
	}
	if tm.stream != nil {
		tm.stream.RegisterRoutes(router, tm.auth)
	}
	tm.handler.RegisterRoutes(router, tm.auth)
}

// GetUsecase returns the post use case.
func (tm *TimelineModule) GetUsecase() usecase.PostUsecaseInterface {
	return tm.usecase
}

// GetStream returns the websocket hub, nil without an event bus.
func (tm *TimelineModule) GetStream() *timelinehttp.StreamHub {
	return tm.stream
}

// HealthCheck pings the post and image backends that support it.
func (tm *TimelineModule) HealthCheck(ctx context.Context) error {
	for _, dep := range []interface{}{tm.posts, tm.images} {
		if p, ok := dep.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stop disconnects stream clients.
func (tm *TimelineModule) Stop() error {
	if tm.stream != nil {
		tm.stream.Stop()
	}
	return nil
}

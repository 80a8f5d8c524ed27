package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"
	"timeline/internal/timeline/config"
	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/domain/repository"

	"github.com/google/uuid"
)

const component = "timeline"

// PostUsecaseInterface defines the timeline use cases.
type PostUsecaseInterface interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*EntryView, error)
	ListTimeline(ctx context.Context) ([]EntryView, error)
}

// CreatePostRequest is a submitted post. ImageBase64 is optional.
type CreatePostRequest struct {
	Author      model.Author
	Body        string
	ImageBase64 string
}

// PostUsecase validates, stores and lists posts.
type PostUsecase struct {
	posts     repository.PostRepository
	images    repository.ImageStore
	publisher eventbus.Publisher
	config    *config.Config
	present   presenter
	log       logger.Logger
	now       func() time.Time
}

var _ PostUsecaseInterface = (*PostUsecase)(nil)

// NewPostUsecase creates the use case. publisher may be nil.
func NewPostUsecase(
	posts repository.PostRepository,
	images repository.ImageStore,
	publisher eventbus.Publisher,
	cfg *config.Config,
	log logger.Logger,
) *PostUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &PostUsecase{
		posts:     posts,
		images:    images,
		publisher: publisher,
		config:    cfg,
		present:   presenter{imageURL: images.URL, loc: cfg.Location()},
		log:       log.WithComponent(component),
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (uc *PostUsecase) WithClock(now func() time.Time) *PostUsecase {
	uc.now = now
	return uc
}

// CreatePost validates the body and optional image, stores both and announces the new entry.
func (uc *PostUsecase) CreatePost(ctx context.Context, req CreatePostRequest) (*EntryView, error) {
	if req.Author.ID == "" {
		return nil, sharederrors.NewAuthenticationError("post without author").WithCause(sharederrors.ErrUnauthorized)
	}

	body := strings.TrimSpace(req.Body)
	verrs := sharederrors.NewValidationErrors()
	switch {
	case body == "":
		verrs.Add("body", i18n.KeyPostBodyRequired)
	case utf8.RuneCountInString(body) > uc.config.PostMaxLength:
		verrs.Add("body", i18n.KeyPostBodyTooLong)
	}

	var img *decodedImage
	if req.ImageBase64 != "" {
		var key string
		if img, key = decodeImage(req.ImageBase64, uc.config.ImageMaxBytes); key != "" {
			verrs.Add("image", key)
		}
	}
	if verrs.HasErrors() {
		return nil, verrs.ToAppError()
	}

	now := uc.now()
	post := &model.Post{
		ID:        uuid.NewString(),
		UserID:    req.Author.ID,
		Body:      body,
		CreatedAt: now,
	}

	if img != nil {
		filename, err := newImageFilename(now, img.ext)
		if err != nil {
			return nil, sharederrors.NewInternalError("name image").WithCause(err).WithComponent(component)
		}
		if err := uc.images.Save(ctx, filename, img.contentType, img.data); err != nil {
			return nil, storeError("save image", err)
		}
		post.ImageFilename = filename
	}

	if err := uc.posts.Create(ctx, post); err != nil {
		if post.ImageFilename != "" {
			if delErr := uc.images.Delete(ctx, post.ImageFilename); delErr != nil {
				uc.log.WithContext(ctx).Warnf("Failed to remove orphaned image %s: %v", post.ImageFilename, delErr)
			}
		}
		return nil, storeError("create post", err)
	}

	view := uc.present.entry(&model.Entry{Post: *post, Author: req.Author})
	uc.announce(ctx, view)

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"post_id":   post.ID,
		"has_image": post.ImageFilename != "",
	}).Info("Post created")
	return &view, nil
}

// ListTimeline returns the newest entries, newest first.
func (uc *PostUsecase) ListTimeline(ctx context.Context) ([]EntryView, error) {
	entries, err := uc.posts.ListRecent(ctx, uc.config.TimelineLimit)
	if err != nil {
		return nil, storeError("list posts", err).WithKey(i18n.KeyTimelineLoadFailed)
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, uc.present.entry(e))
	}
	return views, nil
}

func (uc *PostUsecase) announce(ctx context.Context, view EntryView) {
	if uc.publisher == nil {
		return
	}
	event := eventbus.NewEvent(eventbus.EventTypePostCreated, component, view)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.log.WithContext(ctx).Warnf("Failed to publish %s: %v", event.Type, err)
	}
}

func storeError(op string, err error) *sharederrors.AppError {
	return sharederrors.NewInfrastructureError(op).
		WithCause(errors.Join(sharederrors.ErrStoreUnavailable, err)).
		WithComponent(component)
}

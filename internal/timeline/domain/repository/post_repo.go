package repository

import (
	"context"
	"errors"

	"timeline/internal/timeline/domain/model"
)

var ErrImageNotFound = errors.New("image not found")

// PostRepository stores posts and reads them joined with their authors.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// ListRecent returns up to limit entries, newest first. Posts whose author no longer exists are skipped.
	ListRecent(ctx context.Context, limit int64) ([]*model.Entry, error)
}

// ImageStore persists uploaded post images.
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, data []byte) error
	Delete(ctx context.Context, filename string) error
	// URL is the public address of a stored image.
	URL(filename string) string
}

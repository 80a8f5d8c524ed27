package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"timeline/internal/timeline/domain/repository"
)

// ErrInvalidFilename is returned for names that would escape the store.
var ErrInvalidFilename = errors.New("invalid image filename")

// LocalImageStore writes images into a directory served under urlPrefix.
type LocalImageStore struct {
	dir       string
	urlPrefix string
}

var _ repository.ImageStore = (*LocalImageStore)(nil)

// NewLocalImageStore creates dir if needed.
func NewLocalImageStore(dir, urlPrefix string) (*LocalImageStore, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalImageStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Dir is the directory images are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// URLPrefix is the public path the directory is mounted at.
func (s *LocalImageStore) URLPrefix() string {
	return s.urlPrefix
}

// Save writes data to dir/filename. contentType is implied by the extension.
func (s *LocalImageStore) Save(ctx context.Context, filename, contentType string, data []byte) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Delete removes dir/filename.
func (s *LocalImageStore) Delete(ctx context.Context, filename string) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repository.ErrImageNotFound
		}
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// URL joins the public prefix and filename.
func (s *LocalImageStore) URL(filename string) string {
	return s.urlPrefix + "/" + filename
}

func (s *LocalImageStore) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.dir, filename), nil
}

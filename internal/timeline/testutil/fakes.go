package testutil

import (
	"context"
	"sort"
	"sync"

	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/domain/repository"
)

// InMemoryPostRepository keeps posts in memory and joins them with registered authors.
type InMemoryPostRepository struct {
	mu      sync.Mutex
	posts   []model.Post
	authors map[string]model.Author
	Err     error
}

var _ repository.PostRepository = (*InMemoryPostRepository)(nil)

// NewInMemoryPostRepository returns an empty repository.
func NewInMemoryPostRepository() *InMemoryPostRepository {
	return &InMemoryPostRepository{authors: make(map[string]model.Author)}
}

// AddAuthor registers a user that posts can be joined with.
func (r *InMemoryPostRepository) AddAuthor(a model.Author) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authors[a.ID] = a
}

// Create stores post, or returns Err when set.
func (r *InMemoryPostRepository) Create(ctx context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.posts = append(r.posts, *post)
	return nil
}

// ListRecent returns joined entries, newest first.
func (r *InMemoryPostRepository) ListRecent(ctx context.Context, limit int64) ([]*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	entries := make([]*model.Entry, 0, len(r.posts))
	for _, p := range r.posts {
		author, ok := r.authors[p.UserID]
		if !ok {
			continue
		}
		entries = append(entries, &model.Entry{Post: p, Author: author})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count returns the number of stored posts.
func (r *InMemoryPostRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

// MemoryImageStore keeps images in memory.
type MemoryImageStore struct {
	mu     sync.Mutex
	Images map[string][]byte
	Types  map[string]string
	Err    error
}

var _ repository.ImageStore = (*MemoryImageStore)(nil)

// NewMemoryImageStore returns an empty store.
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{Images: make(map[string][]byte), Types: make(map[string]string)}
}

// Save stores data, or returns Err when set.
func (s *MemoryImageStore) Save(ctx context.Context, filename, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Images[filename] = append([]byte(nil), data...)
	s.Types[filename] = contentType
	return nil
}

// Delete removes filename.
func (s *MemoryImageStore) Delete(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Images[filename]; !ok {
		return repository.ErrImageNotFound
	}
	delete(s.Images, filename)
	delete(s.Types, filename)
	return nil
}

// URL mirrors the local store's public path.
func (s *MemoryImageStore) URL(filename string) string {
	return "/upload/image/" + filename
}

// Len returns the number of stored images.
func (s *MemoryImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Images)
}

package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"postgate/internal/posts/models"
	"postgate/pkg/platform/sentinel"
)

// InMemoryStore keeps posts in insertion (ID) order.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]*models.Post
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		posts: make(map[int64]*models.Post),
		now:   time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now().UTC()
	post.ID = s.nextID
	post.CreatedAt = now
	post.UpdatedAt = now
	stored := *post
	s.posts[post.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *p
	return &found, nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if len(filter.AuthorIDs) > 0 && !slices.Contains(filter.AuthorIDs, p.AuthorID) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Post) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// Update overwrites title and content. Author and creation time are kept.
func (s *InMemoryStore) Update(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.posts[post.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.Title = post.Title
	existing.Content = post.Content
	existing.UpdatedAt = s.now().UTC()
	*post = *existing
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

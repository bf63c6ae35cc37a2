package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"postgate/internal/auth/models"
	"postgate/pkg/platform/sentinel"
)

// InMemoryUserStore assigns sequential IDs and enforces unique usernames and emails.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*models.User
	byName map[string]int64
	now    func() time.Time
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:  make(map[int64]*models.User),
		byName: make(map[string]int64),
		now:    time.Now,
	}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[user.Username]; ok {
		return fmt.Errorf("username %q: %w", user.Username, sentinel.ErrConflict)
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("email %q: %w", user.Email, sentinel.ErrConflict)
		}
	}

	s.nextID++
	user.ID = s.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	stored := *user
	s.users[user.ID] = &stored
	s.byName[user.Username] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		found := *u
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byName[username]; ok {
		found := *s.users[id]
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byName, u.Username)
	delete(s.users, id)
	return nil
}

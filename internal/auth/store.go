package auth

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type UserStore interface {
	// FindByCredentials returns the user whose username and password both
	// match exactly, or ErrUserNotFound.
	FindByCredentials(ctx context.Context, username, password string) (PersistedUser, error)
	Create(ctx context.Context, username, password string) (PersistedUser, error)
}

type InMemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]PersistedUser
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]PersistedUser)}
}

func (s *InMemoryUserStore) FindByCredentials(_ context.Context, username, password string) (PersistedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok || u.Password != password {
		return PersistedUser{}, ErrUserNotFound
	}
	return u, nil
}

func (s *InMemoryUserStore) Create(_ context.Context, username, password string) (PersistedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return PersistedUser{}, ErrUserExists
	}
	s.nextID++
	u := PersistedUser{ID: s.nextID, Username: username, Password: password}
	s.users[username] = u
	return u, nil
}

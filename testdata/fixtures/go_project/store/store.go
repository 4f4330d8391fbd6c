package store

import (
	"fmt"
	"sync"

	"example.com/userapi/model"
)

// MemStore is an in-memory Repository implementation.
type MemStore struct {
	mu    sync.Mutex
	users map[int]*model.User
	next  int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{users: make(map[int]*model.User), next: 1}
}

// FindByID returns the user with the given id.
func (s *MemStore) FindByID(id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return user, nil
}

// Save persists a user, assigning an id when missing.
func (s *MemStore) Save(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.next
		s.next++
	}
	s.users[user.ID] = user
	return nil
}

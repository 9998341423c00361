package store

import (
	"sync"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

// UserStore is the in-memory user registry. Users are kept in registration order.
type UserStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.User
	order []string
}

func NewUserStore() *UserStore {
	return &UserStore{byID: make(map[string]domain.User)}
}

// CreateUser adds u to the registry. An existing id is rejected with ErrUserExists.
func (s *UserStore) CreateUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		return domain.ErrUserExists
	}
	s.byID[u.ID] = u
	s.order = append(s.order, u.ID)
	return nil
}

// User retrieves a single user by ID.
func (s *UserStore) User(id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// Users returns every registered user in registration order.
func (s *UserStore) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

package repository

import (
	"context"
	"fmt"
	"sync"

	"kirana/internal/domain"
	"kirana/internal/errors"
)

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uint64]*domain.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uint64]*domain.User)}
}

func (r *MemoryUserRepository) Put(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := u
	r.users[u.ID] = &stored
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uint64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user with id %d not found", id))
	}
	u := *user
	return &u, nil
}

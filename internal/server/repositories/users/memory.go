package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
)

// MemoryRepository is a goroutine-safe in-process Repository. Returned
// users are copies, so callers cannot mutate stored state.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*models.User
	byUsername map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*models.User),
		byUsername: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := *user
	r.byID[u.ID] = &u
	r.byUsername[u.UserName] = u.ID

	out := u
	return &out, nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *found
	return &u, nil
}

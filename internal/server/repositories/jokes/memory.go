package jokes

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
)

// MemoryRepository is a goroutine-safe in-process Repository with the same
// ordering rules as the SQL store.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Joke
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*models.Joke)}
}

func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *MemoryRepository) FindMany(ctx context.Context, limit, skip int, order Order) ([]*models.Joke, error) {
	r.mu.RLock()
	all := make([]*models.Joke, 0, len(r.items))
	for _, j := range r.items {
		c := *j
		all = append(all, &c)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(a, b int) bool {
		x, y := all[a], all[b]
		if order == OrderCreatedAsc {
			x, y = y, x
		}
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.After(y.CreatedAt)
		}
		return x.ID > y.ID
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Joke, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *j
	return &c, nil
}

func (r *MemoryRepository) Create(ctx context.Context, joke *models.Joke) (*models.Joke, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[joke.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	c := *joke
	r.items[c.ID] = &c

	out := c
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}

package jokes

import (
	"context"

	"github.com/dmitrijs2005/gophjokes/internal/server/models"
)

// Order selects the sort order of FindMany.
type Order int

const (
	OrderCreatedDesc Order = iota
	OrderCreatedAsc
)

// Repository is the resource store for jokes.
type Repository interface {
	Count(ctx context.Context) (int, error)
	FindMany(ctx context.Context, limit, skip int, order Order) ([]*models.Joke, error)
	FindByID(ctx context.Context, id string) (*models.Joke, error)
	Create(ctx context.Context, joke *models.Joke) (*models.Joke, error)
	Delete(ctx context.Context, id string) error
}

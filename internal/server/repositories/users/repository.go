package users

import (
	"context"

	"github.com/dmitrijs2005/gophjokes/internal/server/models"
)

// Repository is the credential store. Implementations must enforce username
// uniqueness themselves and report a duplicate as common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

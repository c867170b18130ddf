// Package services holds the business logic of the server: credential
// checks, registration and joke management on top of the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/dbx"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Hasher derives and checks password digests.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      Hasher
	logger      logging.Logger
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher Hasher, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
		now:         time.Now,
	}
}

// Register creates an account. Invalid input and a taken username are both
// reported as *ValidationError; the lookup and the insert share one
// transaction and the unique constraint settles concurrent registrations.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hash failed", "error", err)
		return nil, common.ErrorInternal
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.FindByUsername(ctx, username)
		switch {
		case err == nil:
			return usernameTaken(username)
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		created, err = repo.Create(ctx, &models.User{
			ID:           uuid.NewString(),
			UserName:     username,
			PasswordHash: digest,
			CreatedAt:    s.now().UTC(),
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return usernameTaken(username)
		}
		return err
	})

	var vErr *ValidationError
	switch {
	case err == nil:
		return created, nil
	case errors.As(err, &vErr):
		return nil, err
	default:
		s.logger.Error(ctx, "register failed", "username", username, "error", err)
		return nil, common.ErrorInternal
	}
}

// Verify checks credentials. Unknown usernames and wrong passwords are the
// same common.ErrorInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "password verify failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorInvalidCredentials
	}

	return user, nil
}

// GetUser returns the user with id, or common.ErrorNotFound.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "user lookup failed", "user_id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

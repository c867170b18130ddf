package services

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/authz"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/jokes"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// List bounds.
const (
	DefaultListLimit = 5
	MaxListLimit     = 100
)

type JokeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
	randN       func(n int) int
}

func NewJokeService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *JokeService {
	return &JokeService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "jokes"),
		now:         time.Now,
		randN:       rand.IntN,
	}
}

func (s *JokeService) repo() jokes.Repository {
	return s.repomanager.Jokes(s.db)
}

// internal logs err and collapses it to common.ErrorInternal unless it is
// one of the sentinels callers act on.
func (s *JokeService) internal(ctx context.Context, msg string, err error, args ...any) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, msg, append(args, "error", err)...)
	return common.ErrorInternal
}

// List returns up to limit jokes, newest first.
func (s *JokeService) List(ctx context.Context, limit int) ([]*models.Joke, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	items, err := s.repo().FindMany(ctx, limit, 0, jokes.OrderCreatedDesc)
	if err != nil {
		return nil, s.internal(ctx, "list jokes failed", err)
	}
	return items, nil
}

// GetByID returns one joke or common.ErrorNotFound.
func (s *JokeService) GetByID(ctx context.Context, id string) (*models.Joke, error) {
	joke, err := s.repo().FindByID(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, "get joke failed", err, "joke_id", id)
	}
	return joke, nil
}

// GetRandom picks a joke uniformly at random. An empty store, including
// one emptied between the count and the fetch, is common.ErrorNotFound.
func (s *JokeService) GetRandom(ctx context.Context) (*models.Joke, error) {
	repo := s.repo()

	n, err := repo.Count(ctx)
	if err != nil {
		return nil, s.internal(ctx, "count jokes failed", err)
	}
	if n <= 0 {
		return nil, common.ErrorNotFound
	}

	items, err := repo.FindMany(ctx, 1, s.randN(n), jokes.OrderCreatedDesc)
	if err != nil {
		return nil, s.internal(ctx, "random joke failed", err)
	}
	if len(items) == 0 {
		return nil, common.ErrorNotFound
	}
	return items[0], nil
}

// Create stores a joke owned by callerID.
func (s *JokeService) Create(ctx context.Context, name, content, callerID string) (*models.Joke, error) {
	if callerID == "" {
		return nil, common.ErrorUnauthorized
	}
	if err := ValidateJoke(name, content); err != nil {
		return nil, err
	}

	joke, err := s.repo().Create(ctx, &models.Joke{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		OwnerID:   callerID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error(ctx, "create joke failed", "user_id", callerID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "joke created", "joke_id", joke.ID, "user_id", callerID)
	return joke, nil
}

// Delete removes a joke if callerID owns it.
func (s *JokeService) Delete(ctx context.Context, id, callerID string) error {
	repo := s.repo()

	joke, err := repo.FindByID(ctx, id)
	if err != nil {
		return s.internal(ctx, "get joke failed", err, "joke_id", id)
	}

	if !authz.CanMutate(joke, callerID) {
		s.logger.Warn(ctx, "delete denied", "joke_id", id, "user_id", callerID)
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, id); err != nil {
		return s.internal(ctx, "delete joke failed", err, "joke_id", id)
	}

	s.logger.Info(ctx, "joke deleted", "joke_id", id, "user_id", callerID)
	return nil
}

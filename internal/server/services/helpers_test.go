package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophjokes/internal/dbx"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/auth"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/jokes"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func fastHasher() *auth.PasswordHasher {
	return &auth.PasswordHasher{Cost: bcrypt.MinCost}
}

// fakeManager returns fixed repositories regardless of the DBTX.
type fakeManager struct {
	users users.Repository
	jokes jokes.Repository
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeManager) Jokes(dbx.DBTX) jokes.Repository              { return m.jokes }

// failingUsers wraps a users repository and overrides selected calls.
type failingUsers struct {
	users.Repository
	findByUsernameErr error
	findByIDErr       error
	createErr         error
}

func (f *failingUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.findByUsernameErr != nil {
		return nil, f.findByUsernameErr
	}
	return f.Repository.FindByUsername(ctx, username)
}

func (f *failingUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.findByIDErr != nil {
		return nil, f.findByIDErr
	}
	return f.Repository.FindByID(ctx, id)
}

func (f *failingUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Repository.Create(ctx, u)
}

// failingJokes wraps a jokes repository and overrides selected calls.
type failingJokes struct {
	jokes.Repository
	count       *int
	countErr    error
	findManyErr error
	findByIDErr error
	createErr   error
	deleteErr   error
}

func (f *failingJokes) Count(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.count != nil {
		return *f.count, nil
	}
	return f.Repository.Count(ctx)
}

func (f *failingJokes) FindMany(ctx context.Context, limit, skip int, order jokes.Order) ([]*models.Joke, error) {
	if f.findManyErr != nil {
		return nil, f.findManyErr
	}
	return f.Repository.FindMany(ctx, limit, skip, order)
}

func (f *failingJokes) FindByID(ctx context.Context, id string) (*models.Joke, error) {
	if f.findByIDErr != nil {
		return nil, f.findByIDErr
	}
	return f.Repository.FindByID(ctx, id)
}

func (f *failingJokes) Create(ctx context.Context, j *models.Joke) (*models.Joke, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Repository.Create(ctx, j)
}

func (f *failingJokes) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Repository.Delete(ctx, id)
}

var nopLogger logging.Logger = logging.Nop{}

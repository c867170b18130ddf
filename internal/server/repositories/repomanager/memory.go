package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophjokes/internal/dbx"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/jokes"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/users"
)

// InMemoryRepositoryManager hands out the same in-process repositories for
// every DBTX. Transactions opened by callers are not observed by it.
type InMemoryRepositoryManager struct {
	users *users.MemoryRepository
	jokes *jokes.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		jokes: jokes.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Jokes(dbx.DBTX) jokes.Repository {
	return m.jokes
}

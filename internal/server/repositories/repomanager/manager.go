package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophjokes/internal/dbx"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/jokes"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so callers can run
// the same repository code against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Jokes(db dbx.DBTX) jokes.Repository
}

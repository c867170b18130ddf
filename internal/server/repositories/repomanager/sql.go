// Package repomanager provides the SQL RepositoryManager, wiring together
// repository constructors and database migrations (via goose) for the
// supported drivers.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophjokes/internal/dbx"
	"github.com/dmitrijs2005/gophjokes/internal/server/migrations"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/jokes"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Supported values of the database driver setting.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type dialect struct {
	sqlDriver     string
	gooseDialect  string
	migrationsDir string
}

var dialects = map[string]dialect{
	DriverPostgres: {sqlDriver: "pgx", gooseDialect: "pgx", migrationsDir: "postgres"},
	DriverSQLite:   {sqlDriver: "sqlite", gooseDialect: "sqlite3", migrationsDir: "sqlite"},
}

// SQLRepositoryManager vends SQL-backed repositories for one driver.
type SQLRepositoryManager struct {
	dialect dialect
}

// NewSQLRepositoryManager returns a manager for driver, one of DriverPostgres
// or DriverSQLite.
func NewSQLRepositoryManager(driver string) (*SQLRepositoryManager, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SQLRepositoryManager{dialect: d}, nil
}

// Open opens a connection pool for driver and checks it is reachable.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// Jokes returns a jokes.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Jokes(db dbx.DBTX) jokes.Repository {
	return jokes.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect.gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, m.dialect.migrationsDir); err != nil {
		return err
	}
	return nil
}

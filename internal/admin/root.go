// Package admin implements the gophjokes-admin commands: schema
// migrations, account creation and a read-only joke listing. There is no
// delete command; jokes are deleted only by their owners through the site.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/config"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// Store is an open database plus the repositories bound to it.
type Store struct {
	DB    *sql.DB
	Repos repomanager.RepositoryManager
}

// Opener connects to the configured database.
type Opener func(ctx context.Context, driver, dsn string) (*Store, error)

// OpenSQL is the production Opener.
func OpenSQL(ctx context.Context, driver, dsn string) (*Store, error) {
	m, err := repomanager.NewSQLRepositoryManager(driver)
	if err != nil {
		return nil, err
	}
	db, err := repomanager.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, Repos: m}, nil
}

type options struct {
	driver   string
	dsn      string
	logLevel string
	output   string
}

type cli struct {
	opts   options
	open   Opener
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger logging.Logger
	store  *Store
}

// NewRootCommand builds the command tree. open is called by the commands
// that need the database; they close it before returning.
func NewRootCommand(open Opener, in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{open: open, in: in, out: out, errOut: errOut, logger: logging.Nop{}}

	var defaults config.Config
	defaults.LoadDefaults()
	dsn := defaults.DatabaseDSN
	if v := os.Getenv(config.EnvDatabaseURL); v != "" {
		dsn = v
	}

	root := &cobra.Command{
		Use:           "gophjokes-admin",
		Short:         "Administration commands for the gophjokes site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(c.errOut, "text", c.opts.logLevel)
			if err != nil {
				return err
			}
			c.logger = l.With("module", "admin")
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&c.opts.driver, "driver", "k", defaults.DatabaseDriver, "database driver (postgres, sqlite)")
	root.PersistentFlags().StringVarP(&c.opts.dsn, "dsn", "d", dsn, "database DSN (default from "+config.EnvDatabaseURL+")")
	root.PersistentFlags().StringVarP(&c.opts.logLevel, "log-level", "l", "warn", "log level")

	root.AddCommand(c.migrateCmd(), c.useraddCmd(), c.jokesCmd())
	return root
}

// Execute runs the CLI against the process streams.
func Execute(ctx context.Context) error {
	return NewRootCommand(OpenSQL, os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (c *cli) connect(ctx context.Context) (*Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	if c.opts.dsn == "" {
		return nil, errors.New("database DSN must be set")
	}
	s, err := c.open(ctx, c.opts.driver, c.opts.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c.store = s
	return s, nil
}

func (c *cli) close() error {
	if c.store == nil || c.store.DB == nil {
		return nil
	}
	err := c.store.DB.Close()
	c.store = nil
	return err
}

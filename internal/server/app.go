// Package server builds the gophjokes server from its configuration and
// runs the HTTP, gRPC health and metrics listeners until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/auth"
	"github.com/dmitrijs2005/gophjokes/internal/server/config"
	"github.com/dmitrijs2005/gophjokes/internal/server/httpserver"
	"github.com/dmitrijs2005/gophjokes/internal/server/metrics"
	"github.com/dmitrijs2005/gophjokes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophjokes/internal/server/services"
	"github.com/dmitrijs2005/gophjokes/internal/server/session"
	"go.uber.org/multierr"

	gs "github.com/dmitrijs2005/gophjokes/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	metrics *metrics.Metrics
	http    *httpserver.Server
	health  *gs.HealthServer
}

// openDB is a seam for tests.
var openDB = repomanager.Open

// NewApp validates c, connects to the database, applies migrations and
// wires every component. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	l, err := logging.New(w, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	var logger logging.Logger = l

	codec, err := auth.NewSessionCodec([]byte(c.SessionSecret), c.SessionMaxAge, auth.WithSecure(!c.InsecureCookie))
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, multierr.Append(fmt.Errorf("db migrations error: %w", err), db.Close())
	}

	m := metrics.New()
	us := services.NewUserService(db, rm, auth.NewPasswordHasher(), logger)
	js := services.NewJokeService(db, rm, logger)
	sm := session.NewManager(us, codec, logger, m)

	app := &App{
		config:  c,
		logger:  logger,
		db:      db,
		metrics: m,
		http:    httpserver.New(c.HTTPAddr, js, us, sm, logger, m),
	}
	if c.GRPCHealthAddr != "" {
		app.health = gs.NewHealthServer(c.GRPCHealthAddr, logger, db.PingContext, 0)
	}

	if c.InsecureCookie {
		logger.Warn(ctx, "session cookie is sent without the Secure attribute")
	}
	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// run starts one listener; a failure stops the whole app.
func (app *App) run(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error, errs *[]error, mu *sync.Mutex) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "listener failed", "listener", name, "error", err)
		mu.Lock()
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or a
// listener fails. It always releases the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.run(ctx, cancelFunc, name, fn, &errs, &mu)
		}()
	}

	start("http", app.http.Run)
	if app.health != nil {
		start("grpc_health", app.health.Run)
	}
	if app.config.MetricsAddr != "" {
		start("metrics", func(ctx context.Context) error {
			return app.metrics.Run(ctx, app.config.MetricsAddr, app.logger)
		})
	}

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return multierr.Append(multierr.Combine(errs...), app.db.Close())
}

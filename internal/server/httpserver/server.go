// Package httpserver exposes the jokes site over HTTP. Handlers decode
// forms, call the services, and answer with JSON payloads or redirects.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/metrics"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/session"
)

// JokeService is the joke logic used by the handlers.
type JokeService interface {
	List(ctx context.Context, limit int) ([]*models.Joke, error)
	GetByID(ctx context.Context, id string) (*models.Joke, error)
	GetRandom(ctx context.Context) (*models.Joke, error)
	Create(ctx context.Context, name, content, callerID string) (*models.Joke, error)
	Delete(ctx context.Context, id, callerID string) error
}

// UserLookup resolves joke owners for display.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Sessions is the session manager as seen by the handlers.
type Sessions interface {
	Login(ctx context.Context, w http.ResponseWriter, username, password string) (*models.User, error)
	Register(ctx context.Context, w http.ResponseWriter, username, password string) (*models.User, error)
	Logout(w http.ResponseWriter)
	CurrentUserID(r *http.Request) (string, bool)
	CurrentUser(ctx context.Context, r *http.Request) (*models.User, error)
	RequireUserID(r *http.Request, redirectTo string) session.Auth
}

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	jokes    JokeService
	users    UserLookup
	sessions Sessions
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func New(address string, jokes JokeService, users UserLookup, sessions Sessions, l logging.Logger, m *metrics.Metrics) *Server {
	return &Server{
		address:  address,
		jokes:    jokes,
		users:    users,
		sessions: sessions,
		logger:   l.With("module", "http_server"),
		metrics:  m,
	}
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /jokes", s.handleListJokes)
	mux.HandleFunc("GET /jokes/random", s.handleRandomJoke)
	mux.HandleFunc("GET /jokes/{id}", s.handleGetJoke)
	mux.HandleFunc("POST /jokes", s.handleCreateJoke)
	mux.HandleFunc("POST /jokes/{id}", s.handleJokeAction)

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /logout", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, common.DefaultRedirect, http.StatusSeeOther)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})

	return s.withAccessLog(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

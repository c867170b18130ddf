// Package session ties the credential checks of the user service to the
// signed session cookie: it logs callers in and out, resolves the current
// user of a request, and tells handlers where to send anonymous callers.
package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"github.com/dmitrijs2005/gophjokes/internal/server/auth"
	"github.com/dmitrijs2005/gophjokes/internal/server/metrics"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/services"
)

// UserService is the part of services.UserService the manager relies on.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Verify(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Manager issues, reads and clears session cookies.
type Manager struct {
	users   UserService
	codec   *auth.SessionCodec
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewManager(users UserService, codec *auth.SessionCodec, logger logging.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		users:   users,
		codec:   codec,
		logger:  logger.With("module", "session"),
		metrics: m,
	}
}

// Auth is the outcome of RequireUserID. Exactly one of UserID and
// RedirectTo is set.
type Auth struct {
	UserID     string
	RedirectTo string
}

// Authenticated reports whether the request carried a valid session.
func (a Auth) Authenticated() bool {
	return a.UserID != ""
}

// Login checks credentials and, on success, sets the session cookie on w.
// Failures are *services.ValidationError or common.ErrorInvalidCredentials;
// the latter never says whether the username or the password was wrong.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, username, password string) (*models.User, error) {
	user, err := m.users.Verify(ctx, username, password)
	if err != nil {
		m.metrics.ObserveAuth("login", result(err))
		return nil, err
	}

	if err := m.issue(ctx, w, user.ID); err != nil {
		m.metrics.ObserveAuth("login", metrics.ResultError)
		return nil, err
	}

	m.metrics.ObserveAuth("login", metrics.ResultSuccess)
	m.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return user, nil
}

// Register creates an account and logs it in.
func (m *Manager) Register(ctx context.Context, w http.ResponseWriter, username, password string) (*models.User, error) {
	user, err := m.users.Register(ctx, username, password)
	if err != nil {
		m.metrics.ObserveAuth("register", result(err))
		return nil, err
	}

	if err := m.issue(ctx, w, user.ID); err != nil {
		m.metrics.ObserveAuth("register", metrics.ResultError)
		return nil, err
	}

	m.metrics.ObserveAuth("register", metrics.ResultSuccess)
	m.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (m *Manager) issue(ctx context.Context, w http.ResponseWriter, userID string) error {
	value, err := m.codec.Encode(auth.Session{UserID: userID})
	if err != nil {
		m.logger.Error(ctx, "session encode failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}
	http.SetCookie(w, m.codec.Cookie(value))
	return nil
}

// Logout writes an expired session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, m.codec.ExpiredCookie())
}

// CurrentUserID returns the user id of a valid session cookie on r.
func (m *Manager) CurrentUserID(r *http.Request) (string, bool) {
	s, ok := m.codec.FromRequest(r)
	if !ok {
		return "", false
	}
	return s.UserID, true
}

// CurrentUser resolves the session user. Anonymous requests and sessions of
// users that no longer exist yield (nil, nil).
func (m *Manager) CurrentUser(ctx context.Context, r *http.Request) (*models.User, error) {
	id, ok := m.CurrentUserID(r)
	if !ok {
		return nil, nil
	}

	user, err := m.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			m.logger.Debug(ctx, "session user is gone", "user_id", id)
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RequireUserID returns the session user id, or a login URL that brings the
// caller back to redirectTo. An empty redirectTo means the request URI.
func (m *Manager) RequireUserID(r *http.Request, redirectTo string) Auth {
	if id, ok := m.CurrentUserID(r); ok {
		return Auth{UserID: id}
	}

	if redirectTo == "" {
		redirectTo = r.URL.RequestURI()
	}
	return Auth{RedirectTo: LoginURL(redirectTo)}
}

// LoginURL builds the login entry point carrying redirectTo.
func LoginURL(redirectTo string) string {
	q := url.Values{}
	q.Set(common.RedirectToParam, redirectTo)
	return common.LoginPath + "?" + q.Encode()
}

// SafeRedirect returns target if it is a path on this site, otherwise the
// default destination.
func SafeRedirect(target string) string {
	if target == "" || target[0] != '/' {
		return common.DefaultRedirect
	}
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return common.DefaultRedirect
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return common.DefaultRedirect
	}
	return target
}

func result(err error) string {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		return metrics.ResultInvalid
	case errors.Is(err, common.ErrorInvalidCredentials):
		return metrics.ResultDenied
	default:
		return metrics.ResultError
	}
}

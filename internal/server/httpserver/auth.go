package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/server/services"
	"github.com/dmitrijs2005/gophjokes/internal/server/session"
)

type loginFields struct {
	LoginType string `json:"loginType"`
	Username  string `json:"username"`
}

type loginResponse struct {
	FormError   string            `json:"formError,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Fields      *loginFields      `json:"fields,omitempty"`
}

// handleLogin serves both login and registration, selected by loginType.
// The password is never echoed back.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, loginResponse{FormError: "Form not submitted correctly"})
		return
	}

	loginType := r.PostForm.Get("loginType")
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	redirectTo := r.PostForm.Get(common.RedirectToParam)
	if redirectTo == "" {
		redirectTo = common.DefaultRedirect
	}
	redirectTo = session.SafeRedirect(redirectTo)

	fields := &loginFields{LoginType: loginType, Username: username}

	if err := services.ValidateCredentials(username, password); err != nil {
		s.writeFieldErrors(w, r, err, fields)
		return
	}

	var err error
	switch loginType {
	case "login":
		_, err = s.sessions.Login(ctx, w, username, password)
	case "register":
		_, err = s.sessions.Register(ctx, w, username, password)
	default:
		s.writeJSON(w, r, http.StatusBadRequest, loginResponse{FormError: "Login type invalid", Fields: fields})
		return
	}

	var vErr *services.ValidationError
	switch {
	case err == nil:
		http.Redirect(w, r, redirectTo, http.StatusSeeOther)
	case errors.As(err, &vErr):
		s.writeFieldErrors(w, r, err, fields)
	case errors.Is(err, common.ErrorInvalidCredentials):
		s.writeJSON(w, r, http.StatusOK, loginResponse{FormError: "Incorrect username or password", Fields: fields})
	default:
		s.writeServiceError(w, r, err)
	}
}

func (s *Server) writeFieldErrors(w http.ResponseWriter, r *http.Request, err error, fields *loginFields) {
	var vErr *services.ValidationError
	if !errors.As(err, &vErr) {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusBadRequest, loginResponse{FieldErrors: vErr.Fields, Fields: fields})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w)
	http.Redirect(w, r, common.DefaultRedirect, http.StatusSeeOther)
}

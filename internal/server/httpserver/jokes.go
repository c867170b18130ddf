package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/dmitrijs2005/gophjokes/internal/server/authz"
	"github.com/dmitrijs2005/gophjokes/internal/server/metrics"
	"github.com/dmitrijs2005/gophjokes/internal/server/models"
	"github.com/dmitrijs2005/gophjokes/internal/server/services"
)

type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type jokeSummaryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type jokeDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Jokes []jokeSummaryDTO `json:"jokes"`
	User  *userDTO         `json:"user"`
}

type jokeResponse struct {
	Joke     jokeDTO `json:"joke"`
	Username string  `json:"username"`
	IsOwner  bool    `json:"isOwner"`
}

type jokeFormResponse struct {
	FormError   string            `json:"formError,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func toJokeDTO(j *models.Joke) jokeDTO {
	return jokeDTO{ID: j.ID, Name: j.Name, Content: j.Content, CreatedAt: j.CreatedAt}
}

func (s *Server) handleListJokes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	items, err := s.jokes.List(ctx, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.sessions.CurrentUser(ctx, r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := listResponse{Jokes: make([]jokeSummaryDTO, 0, len(items))}
	for _, j := range items {
		resp.Jokes = append(resp.Jokes, jokeSummaryDTO{ID: j.ID, Name: j.Name})
	}
	if user != nil {
		resp.User = &userDTO{ID: user.ID, Username: user.UserName}
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleRandomJoke(w http.ResponseWriter, r *http.Request) {
	j, err := s.jokes.GetRandom(r.Context())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeError(w, r, http.StatusNotFound, "No random joke found.")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.jokeResponse(r, j))
}

func (s *Server) handleGetJoke(w http.ResponseWriter, r *http.Request) {
	j, err := s.jokes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeError(w, r, http.StatusNotFound, "Joke not found.")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, s.jokeResponse(r, j))
}

// jokeResponse adds the owner's name and whether the caller owns the joke.
// A missing owner leaves the username empty.
func (s *Server) jokeResponse(r *http.Request, j *models.Joke) jokeResponse {
	resp := jokeResponse{Joke: toJokeDTO(j)}

	callerID, _ := s.sessions.CurrentUserID(r)
	resp.IsOwner = authz.CanMutate(j, callerID)

	if j.HasOwner() {
		owner, err := s.users.GetUser(r.Context(), j.OwnerID)
		if err == nil {
			resp.Username = owner.UserName
		} else if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(r.Context(), "owner lookup failed", "joke_id", j.ID, "error", err)
		}
	}
	return resp
}

func (s *Server) handleCreateJoke(w http.ResponseWriter, r *http.Request) {
	auth := s.sessions.RequireUserID(r, "/jokes/new")
	if !auth.Authenticated() {
		http.Redirect(w, r, auth.RedirectTo, http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, jokeFormResponse{FormError: "Form not submitted correctly."})
		return
	}

	name := r.PostForm.Get("name")
	content := r.PostForm.Get("content")

	j, err := s.jokes.Create(r.Context(), name, content, auth.UserID)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			s.metrics.ObserveMutation("create", metrics.ResultInvalid)
			s.writeJSON(w, r, http.StatusBadRequest, jokeFormResponse{
				FieldErrors: vErr.Fields,
				Fields:      map[string]string{"name": name, "content": content},
			})
			return
		}
		s.metrics.ObserveMutation("create", metrics.ResultError)
		s.writeServiceError(w, r, err)
		return
	}

	s.metrics.ObserveMutation("create", metrics.ResultSuccess)
	http.Redirect(w, r, "/jokes/"+url.PathEscape(j.ID), http.StatusSeeOther)
}

// handleJokeAction implements method override for forms: only
// _method=delete is accepted.
func (s *Server) handleJokeAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Form not submitted correctly.")
		return
	}

	method := r.PostForm.Get("_method")
	if method != "delete" {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("The %s method is not supported.", method))
		return
	}

	auth := s.sessions.RequireUserID(r, "")
	if !auth.Authenticated() {
		http.Redirect(w, r, auth.RedirectTo, http.StatusSeeOther)
		return
	}

	err := s.jokes.Delete(r.Context(), r.PathValue("id"), auth.UserID)
	switch {
	case err == nil:
		s.metrics.ObserveMutation("delete", metrics.ResultSuccess)
		http.Redirect(w, r, common.DefaultRedirect, http.StatusSeeOther)
	case errors.Is(err, common.ErrorNotFound):
		s.metrics.ObserveMutation("delete", metrics.ResultMissing)
		s.writeError(w, r, http.StatusNotFound, "Can't delete a joke that does not exist.")
	case errors.Is(err, common.ErrorForbidden):
		s.metrics.ObserveMutation("delete", metrics.ResultDenied)
		s.writeError(w, r, http.StatusForbidden, "Can't delete a joke that doesn't belong to you.")
	default:
		s.metrics.ObserveMutation("delete", metrics.ResultError)
		s.writeServiceError(w, r, err)
	}
}

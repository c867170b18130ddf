package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophjokes/internal/common"
)

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), "response encode failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeServiceError maps the sentinels that reach the transport to a status.
// Callers handle the not-found and forbidden cases when they need a more
// specific message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorForbidden):
		s.writeError(w, r, http.StatusForbidden, "forbidden")
	default:
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"biomarkers/internal/app"
)

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.alerts.List(r.Context(), userFrom(r).ID, q.Get("status"), q.Get("priority"), intQuery(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	a, err := s.alerts.Get(r.Context(), userFrom(r).ID, mux.Vars(r)["id"])
	if err == app.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleAlertTransition adapts one lifecycle operation into a handler.
func (s *Server) handleAlertTransition(op func(ctx context.Context, userID int64, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := op(r.Context(), userFrom(r).ID, mux.Vars(r)["id"])
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		case err == app.ErrNotFound:
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, app.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
	}
}

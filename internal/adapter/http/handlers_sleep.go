package adapthttp

import (
	"net/http"

	"github.com/gorilla/mux"

	"biomarkers/internal/app"
	"biomarkers/internal/domain"
)

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	switch r.Method {
	case http.MethodGet:
		start, end, err := timeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		items, err := s.sleep.ListSleep(r.Context(), user.ID, start, end, intQuery(r, "limit", 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body domain.SleepSession
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.UserID = user.ID
		if err := s.sleep.RecordSleep(r.Context(), &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, body)
	}
}

func (s *Server) handleLatestSleep(w http.ResponseWriter, r *http.Request) {
	session, err := s.sleep.LatestSleep(r.Context(), userFrom(r).ID)
	if err == app.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSleep(w http.ResponseWriter, r *http.Request) {
	err := s.sleep.DeleteSleep(r.Context(), userFrom(r).ID, mux.Vars(r)["id"])
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	case app.ErrNotFound:
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

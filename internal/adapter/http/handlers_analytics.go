package adapthttp

import (
	"net/http"
	"strings"
)

func biomarkersQuery(r *http.Request) []string {
	v := r.URL.Query().Get("biomarkers")
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	score, err := s.analytics.HealthScore(r.Context(), userFrom(r).ID, intQuery(r, "days", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": score})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.analytics.Trends(r.Context(), userFrom(r).ID, intQuery(r, "days", 0), biomarkersQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	correlations, err := s.analytics.Correlations(r.Context(), userFrom(r).ID, intQuery(r, "days", 0), biomarkersQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"correlations": correlations})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.analytics.Summary(r.Context(), userFrom(r).ID, intQuery(r, "days", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

// handleDailyAnalysis runs anomaly detection on demand for the calling
// user, the same pass the scheduler runs every morning.
func (s *Server) handleDailyAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := s.analytics.DailyAnalysis(r.Context(), userFrom(r).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

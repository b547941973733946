package adapthttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"biomarkers/internal/app"
	"biomarkers/internal/domain"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (s *Server) handleHeartRate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	switch r.Method {
	case http.MethodGet:
		start, end, err := timeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		items, err := s.readings.ListHeartRate(r.Context(), user.ID, start, end, intQuery(r, "limit", 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body domain.HeartRateReading
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.ID = 0
		body.UserID = user.ID
		if body.Timestamp.IsZero() {
			body.Timestamp = time.Now()
		}
		id, err := s.readings.RecordHeartRate(r.Context(), &body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.ID = id
		writeJSON(w, http.StatusCreated, body)
	}
}

func (s *Server) handleDeleteHeartRate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.deleteReading(w, r, func() error {
		return s.readings.DeleteHeartRate(r.Context(), userFrom(r).ID, id)
	})
}

func (s *Server) handleGlucose(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	switch r.Method {
	case http.MethodGet:
		start, end, err := timeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		items, err := s.readings.ListGlucose(r.Context(), user.ID, start, end, intQuery(r, "limit", 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body domain.GlucoseReading
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.ID = 0
		body.UserID = user.ID
		if body.Timestamp.IsZero() {
			body.Timestamp = time.Now()
		}
		id, err := s.readings.RecordGlucose(r.Context(), &body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.ID = id
		writeJSON(w, http.StatusCreated, body)
	}
}

// handleGlucoseCalibration installs a sensor correction fitted from paired
// (raw, reference) calibration points reported by a device.
func (s *Server) handleGlucoseCalibration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Raw       []float64 `json:"raw"`
		Reference []float64 `json:"reference"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	scale, offset, err := s.readings.CalibrateGlucoseSensor(userFrom(r).ID, body.Raw, body.Reference)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scale": scale, "offset": offset})
}

func (s *Server) handleDeleteGlucose(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.deleteReading(w, r, func() error {
		return s.readings.DeleteGlucose(r.Context(), userFrom(r).ID, id)
	})
}

func (s *Server) handleBloodPressure(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	switch r.Method {
	case http.MethodGet:
		start, end, err := timeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		items, err := s.readings.ListBloodPressure(r.Context(), user.ID, start, end, intQuery(r, "limit", 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body domain.BloodPressureReading
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.ID = 0
		body.UserID = user.ID
		if body.Timestamp.IsZero() {
			body.Timestamp = time.Now()
		}
		id, err := s.readings.RecordBloodPressure(r.Context(), &body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		body.ID = id
		writeJSON(w, http.StatusCreated, body)
	}
}

func (s *Server) handleDeleteBloodPressure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.deleteReading(w, r, func() error {
		return s.readings.DeleteBloodPressure(r.Context(), userFrom(r).ID, id)
	})
}

func (s *Server) handleWeight(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	switch r.Method {
	case http.MethodGet:
		start, end, err := timeRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		items, err := s.readings.ListWeight(r.Context(), user.ID, start, end, intQuery(r, "limit", 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body struct {
			Value     float64   `json:"value"`
			Unit      string    `json:"unit"`
			Timestamp time.Time `json:"timestamp"`
			DeviceID  *string   `json:"deviceId"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if body.Timestamp.IsZero() {
			body.Timestamp = time.Now()
		}
		id, err := s.readings.RecordWeight(r.Context(), user.ID, body.Value, body.Unit, body.Timestamp, body.DeviceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	}
}

func (s *Server) handleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.deleteReading(w, r, func() error {
		return s.readings.DeleteWeight(r.Context(), userFrom(r).ID, id)
	})
}

func (s *Server) deleteReading(w http.ResponseWriter, r *http.Request, del func() error) {
	switch err := del(); err {
	case nil:
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	case app.ErrNotFound:
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

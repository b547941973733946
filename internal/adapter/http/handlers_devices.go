package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"biomarkers/internal/app"
)

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	switch r.Method {
	case http.MethodGet:
		items, err := s.devices.List(r.Context(), user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body struct {
			Name   string  `json:"name"`
			Type   string  `json:"type"`
			Vendor string  `json:"vendor"`
			Model  *string `json:"model"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := s.devices.Register(r.Context(), user.ID, body.Name, body.Type, body.Vendor, body.Model)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id := mux.Vars(r)["id"]

	switch r.Method {
	case http.MethodGet:
		d, err := s.devices.Get(r.Context(), user.ID, id)
		if err == app.ErrNotFound {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, d)

	case http.MethodDelete:
		switch err := s.devices.Delete(r.Context(), user.ID, id); err {
		case nil:
			writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
		case app.ErrNotFound:
			writeError(w, http.StatusNotFound, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
	}
}

// handleDeviceConnect begins the vendor OAuth flow. The state cookie also
// carries the device reference so the unauthenticated callback can finish
// the exchange.
func (s *Server) handleDeviceConnect(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id := mux.Vars(r)["id"]

	authURL, state, err := s.devices.BeginConnect(r.Context(), user.ID, id)
	if err == app.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if errors.Is(err, app.ErrUnknownVendor) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "device_connect",
		Value:    fmt.Sprintf("%s|%d|%s", state, user.ID, id),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleDeviceCallback finishes the vendor OAuth flow. It is reached by
// redirect from the vendor, so it authenticates via the state cookie set
// by handleDeviceConnect rather than a session.
func (s *Server) handleDeviceCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("device_connect")
	if err != nil {
		http.Error(w, "no pending device connection", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "device_connect", MaxAge: -1, Path: "/"})

	parts := strings.SplitN(cookie.Value, "|", 3)
	if len(parts) != 3 || r.URL.Query().Get("state") != parts[0] {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	if err := s.devices.CompleteConnect(r.Context(), userID, parts[2], code); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": true})
}

func (s *Server) handleDeviceSync(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	id := mux.Vars(r)["id"]

	counts, err := s.sync.SyncDevice(r.Context(), user.ID, id, intQuery(r, "days", 0))
	if err == app.ErrNotFound {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if errors.Is(err, app.ErrDeviceNotConnected) || errors.Is(err, app.ErrUnknownVendor) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

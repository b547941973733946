package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"biomarkers/internal/analytics"
	"biomarkers/internal/domain"
	"biomarkers/internal/metrics"
)

// dedupWindow suppresses repeat alerts for the same biomarker and anomaly
// type within this interval.
const dedupWindow = time.Hour

// ErrInvalidTransition indicates an alert lifecycle move that is not
// allowed from the alert's current status.
var ErrInvalidTransition = errors.New("invalid alert transition")

// recommendations are keyed by biomarker and the direction of the
// deviation.
var recommendations = map[[2]string]string{
	{"glucose", "low"}:     "Check your blood sugar immediately. If below 70 mg/dL, consume 15g fast-acting carbs.",
	{"glucose", "high"}:    "High blood sugar detected. Check for ketones if over 250 mg/dL. Contact your healthcare provider.",
	{"heart_rate", "low"}:  "Very low heart rate detected at rest. If you feel dizzy or faint, seek medical attention.",
	{"heart_rate", "high"}: "Elevated resting heart rate. Rest and monitor. Seek medical attention if accompanied by chest pain.",
	{"hrv_sdnn", "low"}:    "Your HRV has been declining. Consider prioritizing sleep and stress reduction.",
}

// AlertService creates alerts from detected anomalies and manages their
// lifecycle.
type AlertService struct {
	repo domain.AlertRepository
	bus  *AlertBus
	log  zerolog.Logger
}

// NewAlertService creates an AlertService. The bus may be nil when no
// streaming consumers exist.
func NewAlertService(repo domain.AlertRepository, bus *AlertBus, log zerolog.Logger) *AlertService {
	return &AlertService{repo: repo, bus: bus, log: log}
}

// RaiseFromAnomaly creates an alert from a detected anomaly. Returns nil
// without error when the anomaly duplicates a recent alert.
func (s *AlertService) RaiseFromAnomaly(ctx context.Context, userID int64, a analytics.Anomaly) (*domain.Alert, error) {
	dup, err := s.isDuplicate(ctx, userID, a)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, nil
	}

	alert := &domain.Alert{
		ID:             uuid.NewString(),
		UserID:         userID,
		CreatedAt:      time.Now(),
		Status:         domain.AlertActive,
		Priority:       a.Priority,
		Biomarker:      a.Biomarker,
		AnomalyType:    a.Type,
		Value:          a.Value,
		Title:          a.Description,
		Message:        alertMessage(a),
		Recommendation: recommendationFor(a),
		DetectedAt:     a.Timestamp,
	}
	if err := s.repo.AddAlert(ctx, alert); err != nil {
		return nil, err
	}

	metrics.AlertsRaised.WithLabelValues(alert.Priority).Inc()
	s.log.Info().
		Str("alert_id", alert.ID).
		Int64("user_id", userID).
		Str("biomarker", alert.Biomarker).
		Str("priority", alert.Priority).
		Msg("alert created")

	if s.bus != nil {
		s.bus.Publish(*alert)
	}
	return alert, nil
}

func (s *AlertService) isDuplicate(ctx context.Context, userID int64, a analytics.Anomaly) (bool, error) {
	since := a.Timestamp.Add(-dedupWindow)
	recent, err := s.repo.ListAlertsSince(ctx, userID, since)
	if err != nil {
		return false, err
	}
	for _, r := range recent {
		if r.Biomarker == a.Biomarker && r.AnomalyType == a.Type &&
			absDuration(r.DetectedAt.Sub(a.Timestamp)) < dedupWindow {
			return true, nil
		}
	}
	return false, nil
}

// List returns the user's alerts, optionally filtered by status and
// priority.
func (s *AlertService) List(ctx context.Context, userID int64, status, priority string, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListAlerts(ctx, userID, status, priority, limit)
}

// Get returns one alert owned by the user, or ErrNotFound.
func (s *AlertService) Get(ctx context.Context, userID int64, id string) (*domain.Alert, error) {
	a, err := s.repo.GetAlert(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Acknowledge moves an active alert to acknowledged.
func (s *AlertService) Acknowledge(ctx context.Context, userID int64, id string) error {
	return s.transition(ctx, userID, id, domain.AlertAcknowledged, domain.AlertActive)
}

// Resolve moves an active or acknowledged alert to resolved.
func (s *AlertService) Resolve(ctx context.Context, userID int64, id string) error {
	return s.transition(ctx, userID, id, domain.AlertResolved, domain.AlertActive, domain.AlertAcknowledged)
}

// Dismiss moves an active or acknowledged alert to dismissed.
func (s *AlertService) Dismiss(ctx context.Context, userID int64, id string) error {
	return s.transition(ctx, userID, id, domain.AlertDismissed, domain.AlertActive, domain.AlertAcknowledged)
}

func (s *AlertService) transition(ctx context.Context, userID int64, id, to string, from ...string) error {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	allowed := false
	for _, f := range from {
		if a.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, a.Status, to)
	}

	return deleted(s.repo.UpdateAlertStatus(ctx, userID, id, to, time.Now()))
}

func alertMessage(a analytics.Anomaly) string {
	msg := fmt.Sprintf("Detected at: %s\nCurrent value: %.1f\nExpected range: %.1f - %.1f",
		a.Timestamp.Format("2006-01-02 15:04"), a.Value, a.ExpectedLow, a.ExpectedHigh)
	if a.ClinicalContext != "" {
		msg += "\nContext: " + a.ClinicalContext
	}
	return msg
}

func recommendationFor(a analytics.Anomaly) *string {
	direction := "high"
	if a.Value < a.ExpectedLow {
		direction = "low"
	}
	if r, ok := recommendations[[2]string{a.Biomarker, direction}]; ok {
		return &r
	}

	switch a.Priority {
	case domain.PriorityCritical:
		r := "This requires immediate attention. Consider contacting your healthcare provider."
		return &r
	case domain.PriorityHigh:
		r := "Monitor closely and discuss with your healthcare provider at your next visit."
		return &r
	}
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

package domain

import (
	"context"
	"time"
)

// Alert statuses.
const (
	AlertActive       = "active"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
	AlertDismissed    = "dismissed"
)

// Alert priorities, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Alert is a user-facing notification raised from a detected anomaly.
type Alert struct {
	ID             string     `json:"id"`
	UserID         int64      `json:"userId"`
	CreatedAt      time.Time  `json:"createdAt"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	Biomarker      string     `json:"biomarker"`
	AnomalyType    string     `json:"anomalyType"`
	Value          float64    `json:"value"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Recommendation *string    `json:"recommendation,omitempty"`
	DetectedAt     time.Time  `json:"detectedAt"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
}

// AlertRepository is the port for alert persistence.
type AlertRepository interface {
	AddAlert(ctx context.Context, a *Alert) error
	GetAlert(ctx context.Context, userID int64, id string) (*Alert, error)
	// ListAlerts returns alerts for a user, newest first. Empty status or
	// priority means no filter on that field.
	ListAlerts(ctx context.Context, userID int64, status, priority string, limit int) ([]Alert, error)
	// ListAlertsSince returns alerts whose anomaly was detected at or after
	// the given time, used for deduplication.
	ListAlertsSince(ctx context.Context, userID int64, since time.Time) ([]Alert, error)
	UpdateAlertStatus(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error)
}

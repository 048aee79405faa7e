package common

import (
	"time"

	"orderflow/pkg/utility"
	"orderflow/pkg/utility/fixed"
)

type AlertType string

const (
	AlertLargePrint     AlertType = "large_print"
	AlertDeltaThreshold AlertType = "delta_threshold"
	AlertTapeSpeed      AlertType = "tape_speed"
	AlertDomImbalance   AlertType = "dom_imbalance"
)

type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
)

// Alert is immutable once fired. A later alert of the same type supersedes
// it after the throttle window elapses.
type Alert struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`

	ID       string         `json:"id"`
	Type     AlertType      `json:"type"`
	Message  string         `json:"message"`
	Severity AlertSeverity  `json:"severity"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// AlertConfig is owned by the caller and referenced by the evaluator.
// Add/remove are idempotent keyed by ID.
type AlertConfig struct {
	ID        string      `json:"id"`
	Type      AlertType   `json:"type"`
	Threshold fixed.Point `json:"threshold"`
	Enabled   bool        `json:"enabled"`
}

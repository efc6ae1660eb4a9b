// Package audit captures the append-only trail of interval mutations and
// compliance outcomes. Events are emitted best-effort by services; the
// Kafka publisher is the production sink, the memory sink serves tests and
// single-process deployments.
package audit

import (
	"time"

	"github.com/google/uuid"

	"staywatch/pkg/domain"
)

// Actions recorded by the compliance service.
const (
	ActionIntervalCreated         = "interval_created"
	ActionIntervalUpdated         = "interval_updated"
	ActionIntervalExcluded        = "interval_excluded"
	ActionSubjectPurged           = "subject_purged"
	ActionViolationDetected       = "violation_detected"
	ActionForecastHorizonExceeded = "forecast_horizon_exceeded"
	ActionZoneRuleChanged         = "zone_rule_changed"
)

// Event is one audit record.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Action    string            `json:"action"`
	SubjectID domain.SubjectID  `json:"subject_id,omitempty"`
	Actor     string            `json:"actor,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// stamp fills generated fields so emitters can stay terse.
func stamp(e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

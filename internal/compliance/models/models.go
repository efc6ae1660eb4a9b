package models

import (
	"time"

	"staywatch/internal/engine"
	"staywatch/pkg/domain"
)

// IntervalRecord is one stored presence interval. Records are never hard
// deleted: exclusion keeps them for audit while removing them from all
// day counts.
type IntervalRecord struct {
	ID        domain.IntervalID `json:"id"`
	SubjectID domain.SubjectID  `json:"subject_id"`
	Zone      domain.Zone       `json:"zone"`
	StartDate engine.Date       `json:"start_date"`
	// EndDate is nil for an ongoing stay.
	EndDate   *engine.Date `json:"end_date,omitempty"`
	Excluded  bool         `json:"excluded"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Raw converts the record to the engine's input form.
func (r *IntervalRecord) Raw() engine.RawInterval {
	start := r.StartDate
	raw := engine.RawInterval{
		Zone:     r.Zone,
		Start:    &start,
		Excluded: r.Excluded,
	}
	if r.EndDate != nil {
		end := *r.EndDate
		raw.End = &end
	}
	return raw
}

// Clone returns a deep copy so stores can hand out records without
// aliasing their internal state.
func (r *IntervalRecord) Clone() *IntervalRecord {
	cp := *r
	if r.EndDate != nil {
		end := *r.EndDate
		cp.EndDate = &end
	}
	return &cp
}

// ZoneRule states whether days spent in a zone count toward presence.
// Zones without a rule count by default; rules exist to carve out
// jurisdictions the policy ignores.
type ZoneRule struct {
	Zone      domain.Zone `json:"zone"`
	Counted   bool        `json:"counted"`
	Note      string      `json:"note,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SubjectStatus pairs a subject with their compliance snapshot for
// dashboard overviews.
type SubjectStatus struct {
	SubjectID domain.SubjectID    `json:"subject_id"`
	Result    engine.WindowResult `json:"result"`
}

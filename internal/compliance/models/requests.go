package models

import (
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// IntervalRequest is the JSON body for creating or replacing an interval.
type IntervalRequest struct {
	Zone      string  `json:"zone"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
	Excluded  bool    `json:"excluded"`
}

// Parse validates the request and returns the engine's raw interval form.
// Start/end validation beyond date syntax (ordering, presence) is the
// normalizer's job; this only rejects unparseable fields.
func (r IntervalRequest) Parse() (engine.RawInterval, error) {
	zone, err := domain.ParseZone(r.Zone)
	if err != nil {
		return engine.RawInterval{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid zone")
	}
	raw := engine.RawInterval{Zone: zone, Excluded: r.Excluded}

	if r.StartDate != "" {
		start, err := engine.ParseDate(r.StartDate)
		if err != nil {
			return engine.RawInterval{}, err
		}
		raw.Start = &start
	}
	if r.EndDate != nil {
		end, err := engine.ParseDate(*r.EndDate)
		if err != nil {
			return engine.RawInterval{}, err
		}
		raw.End = &end
	}
	return raw, nil
}

// OverviewRequest asks for compliance snapshots across subjects.
type OverviewRequest struct {
	SubjectIDs []string `json:"subject_ids"`
	// Date is the reference date; empty means today.
	Date string `json:"date,omitempty"`
}

// ZoneRuleRequest is the JSON body for upserting a zone rule.
type ZoneRuleRequest struct {
	Counted bool   `json:"counted"`
	Note    string `json:"note,omitempty"`
}

package engine

import (
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// RawInterval is an interval as handed to the engine by the surrounding
// application, before validation. A nil End marks an ongoing stay.
type RawInterval struct {
	Zone     domain.Zone
	Start    *Date
	End      *Date
	Excluded bool
}

// Interval is a validated presence interval. Both bounds are inclusive;
// a one-day stay has Start == End. When Open is true the End field is
// meaningless and the day-set builder closes the interval at its
// reference date.
type Interval struct {
	Zone     domain.Zone
	Start    Date
	End      Date
	Open     bool
	Excluded bool
}

// NormalizeInterval validates a raw interval and canonicalizes it into an
// Interval. It fails with CodeInvalidInterval when the start date is
// missing or the end date precedes the start date.
func NormalizeInterval(raw RawInterval) (Interval, error) {
	if raw.Start == nil {
		return Interval{}, dErrors.New(dErrors.CodeInvalidInterval, "start date is required")
	}
	iv := Interval{
		Zone:     raw.Zone,
		Start:    *raw.Start,
		Open:     raw.End == nil,
		Excluded: raw.Excluded,
	}
	if raw.End != nil {
		if *raw.End < *raw.Start {
			return Interval{}, dErrors.Newf(dErrors.CodeInvalidInterval,
				"end date %s is before start date %s", *raw.End, *raw.Start)
		}
		iv.End = *raw.End
	}
	return iv, nil
}

package engine

import (
	dErrors "staywatch/pkg/domain-errors"
)

// CountWindowDays counts presence days inside the trailing window of
// windowDays calendar days ending at ref. Both boundaries are inclusive:
// the window is [ref-windowDays+1, ref], so a day exactly windowDays-1
// days before ref counts and a day windowDays before ref does not.
//
// A non-positive window length is programmer error and fails fast with
// CodePrecondition.
func CountWindowDays(set DaySet, ref Date, windowDays int) (int, error) {
	if windowDays <= 0 {
		return 0, dErrors.Newf(dErrors.CodePrecondition, "window length must be positive, got %d", windowDays)
	}
	return set.CountBetween(ref.AddDays(-(windowDays - 1)), ref), nil
}

package engine

import (
	dErrors "staywatch/pkg/domain-errors"
)

// ForecastResult reports the earliest compliant entry date for a
// hypothetical stay. A search that exhausts its horizon is a legitimate
// business outcome, not an error: Found is false and SearchedThrough
// records the last candidate examined.
type ForecastResult struct {
	Found bool `json:"found"`
	// Start is the earliest safe entry date. Valid only when Found.
	Start Date `json:"earliest_safe_start_date"`
	// Stay is the justification window [Start, Start+stayDays-1] whose
	// every day was verified compliant. Valid only when Found.
	Stay DayRange `json:"justification_window"`
	// SearchedThrough is the last candidate start date examined.
	SearchedThrough Date `json:"searched_through"`
}

// FindEarliestSafeEntry scans forward from searchStart for the first date
// at which a stay of stayDays could begin without any day of that stay
// exceeding the limit within its own trailing window. The hypothetical
// stay is unioned with the existing day set (days already present are not
// double-counted). Candidates are bounded by maxHorizonDays so the search
// always terminates.
func FindEarliestSafeEntry(set DaySet, stayDays int, searchStart Date, p Policy, maxHorizonDays int) (ForecastResult, error) {
	if err := p.Validate(); err != nil {
		return ForecastResult{}, err
	}
	if stayDays <= 0 {
		return ForecastResult{}, dErrors.Newf(dErrors.CodePrecondition, "stay length must be positive, got %d", stayDays)
	}
	if stayDays > p.LimitDays {
		return ForecastResult{}, dErrors.Newf(dErrors.CodePrecondition, "stay of %d days exceeds the %d-day limit; no start date can be compliant", stayDays, p.LimitDays)
	}
	if maxHorizonDays <= 0 {
		return ForecastResult{}, dErrors.Newf(dErrors.CodePrecondition, "search horizon must be positive, got %d", maxHorizonDays)
	}

	for offset := 0; offset < maxHorizonDays; offset++ {
		start := searchStart.AddDays(offset)
		if stayIsCompliant(set, start, stayDays, p) {
			return ForecastResult{
				Found:           true,
				Start:           start,
				Stay:            DayRange{Start: start, End: start.AddDays(stayDays - 1)},
				SearchedThrough: start,
			}, nil
		}
	}
	return ForecastResult{
		SearchedThrough: searchStart.AddDays(maxHorizonDays - 1),
	}, nil
}

// stayIsCompliant checks every day of the hypothetical stay against its
// own trailing window. A violation can occur mid-stay even when the end
// date is compliant, so no day may be skipped.
//
// For day d the count is the union of existing presence days and
// hypothetical stay days inside [d-WindowDays+1, d]:
//
//	existing(window) + hypothetical(window) - overlap(window)
//
// computed from the merged ranges without materializing the union, so one
// check is O(merged ranges) and a full scan stays cheap.
func stayIsCompliant(set DaySet, start Date, stayDays int, p Policy) bool {
	end := start.AddDays(stayDays - 1)
	for d := start; d <= end; d++ {
		winStart := d.AddDays(-(p.WindowDays - 1))
		existing := set.CountBetween(winStart, d)

		hypoFrom := maxDate(start, winStart)
		hypothetical := int(d-hypoFrom) + 1
		overlap := set.CountBetween(hypoFrom, d)

		if existing+hypothetical-overlap > p.LimitDays {
			return false
		}
	}
	return true
}

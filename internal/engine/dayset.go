package engine

import (
	"sort"

	"staywatch/pkg/domain"
)

// DayRange is an inclusive span of calendar days.
type DayRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Days returns the number of calendar days covered by the range.
func (r DayRange) Days() int {
	return int(r.End-r.Start) + 1
}

// Contains reports whether d falls inside the range.
func (r DayRange) Contains(d Date) bool {
	return d >= r.Start && d <= r.End
}

// DaySet is the deduplicated set of calendar days a subject was present,
// held as sorted, disjoint, non-adjacent inclusive ranges. It is derived
// data: always rebuilt from the authoritative interval collection, never
// mutated in place.
type DaySet struct {
	ranges []DayRange
}

// NewDaySet builds a DaySet directly from ranges, merging as needed.
// Used by caches that persist the merged representation.
func NewDaySet(ranges []DayRange) DaySet {
	return DaySet{ranges: mergeRanges(ranges)}
}

// ZonePredicate decides whether a zone's days count toward presence.
// A nil predicate counts every zone.
type ZonePredicate func(domain.Zone) bool

// BuildDaySet merges a subject's intervals into their presence day set as
// of ref. Excluded intervals and intervals in non-counted zones contribute
// nothing. Open-ended intervals are provisionally closed at ref; an open
// interval starting after ref contributes nothing.
//
// The result counts every covered day exactly once regardless of overlap.
func BuildDaySet(intervals []Interval, zoneCounted ZonePredicate, ref Date) DaySet {
	raw := make([]DayRange, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Excluded {
			continue
		}
		if zoneCounted != nil && !zoneCounted(iv.Zone) {
			continue
		}
		end := iv.End
		if iv.Open {
			end = ref
		}
		if end < iv.Start {
			continue
		}
		raw = append(raw, DayRange{Start: iv.Start, End: end})
	}
	return DaySet{ranges: mergeRanges(raw)}
}

// mergeRanges sorts ranges by start and merges overlapping or adjacent
// ones (next.Start <= prev.End+1), yielding disjoint non-adjacent ranges.
func mergeRanges(raw []DayRange) []DayRange {
	if len(raw) == 0 {
		return nil
	}
	sorted := make([]DayRange, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Ranges returns a copy of the merged ranges in ascending order.
func (s DaySet) Ranges() []DayRange {
	out := make([]DayRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// IsEmpty reports whether the set contains no days.
func (s DaySet) IsEmpty() bool {
	return len(s.ranges) == 0
}

// TotalDays returns the total number of distinct presence days.
func (s DaySet) TotalDays() int {
	total := 0
	for _, r := range s.ranges {
		total += r.Days()
	}
	return total
}

// Contains reports whether d is a presence day.
func (s DaySet) Contains(d Date) bool {
	for _, r := range s.ranges {
		if r.Start > d {
			return false
		}
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// CountBetween returns the number of presence days in [from, to],
// inclusive on both ends. It runs in O(merged ranges).
func (s DaySet) CountBetween(from, to Date) int {
	if to < from {
		return 0
	}
	count := 0
	for _, r := range s.ranges {
		if r.Start > to {
			break
		}
		lo := maxDate(r.Start, from)
		hi := minDate(r.End, to)
		if hi >= lo {
			count += int(hi-lo) + 1
		}
	}
	return count
}

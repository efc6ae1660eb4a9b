// Package engine implements the rolling presence-window compliance math:
// interval normalization, presence day-set construction, trailing-window
// counting, risk evaluation, and the earliest-safe-entry forecast.
//
// Every operation is a pure function of its inputs. All window arithmetic
// runs on integer day ordinals so independent callers reproduce results
// exactly; time.Time and ISO strings appear only at the boundary.
package engine

import (
	"time"

	dErrors "staywatch/pkg/domain-errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a timezone-naive calendar day, stored as days since 1970-01-01.
// Dates before the epoch are negative and behave normally.
type Date int

const secondsPerDay = 24 * 60 * 60

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date(t.Unix() / secondsPerDay)
}

// DateOf truncates t to its calendar day. The wall-clock date of t in its
// own location is used, so "2024-03-01 23:30 CET" maps to 2024-03-01.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid date %q: expected %s", s, DateLayout)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the calendar day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return d + Date(n)
}

// DaysUntil returns the number of days from d to other (negative when other
// is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other - d)
}

// MarshalJSON renders the date as a quoted ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted ISO string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return dErrors.New(dErrors.CodeInvalidInput, "date must be a JSON string")
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func minDate(a, b Date) Date {
	if a < b {
		return a
	}
	return b
}

func maxDate(a, b Date) Date {
	if a > b {
		return a
	}
	return b
}

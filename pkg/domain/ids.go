// Package domain holds identifier primitives shared by all layers.
// Each type enforces validity at parse time so downstream code never
// re-validates.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SubjectID identifies a tracked person. It is opaque and owned by the
// surrounding application; the engine only uses it as a key.
type SubjectID string

// ParseSubjectID validates and returns a SubjectID.
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("subject id cannot be empty")
	}
	return SubjectID(s), nil
}

func (s SubjectID) String() string {
	return string(s)
}

// IsNil returns true if the subject ID is empty.
func (s SubjectID) IsNil() bool {
	return s == ""
}

// IntervalID identifies a stored presence interval.
type IntervalID uuid.UUID

// NewIntervalID allocates a fresh interval ID.
func NewIntervalID() IntervalID {
	return IntervalID(uuid.New())
}

// ParseIntervalID validates and returns an IntervalID.
func ParseIntervalID(s string) (IntervalID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return IntervalID{}, fmt.Errorf("invalid interval id: %w", err)
	}
	return IntervalID(u), nil
}

func (i IntervalID) String() string {
	return uuid.UUID(i).String()
}

// MarshalText renders the ID in canonical UUID form so JSON payloads
// carry a string, not a byte array.
func (i IntervalID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *IntervalID) UnmarshalText(text []byte) error {
	parsed, err := ParseIntervalID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// IsNil returns true if the interval ID is the zero UUID.
func (i IntervalID) IsNil() bool {
	return uuid.UUID(i) == uuid.Nil
}

// Zone identifies the jurisdiction an interval was spent in. The engine
// never interprets zone values; it only asks the caller whether a zone
// counts toward presence.
type Zone string

// ParseZone validates and returns a Zone. Zones are case-insensitive and
// stored upper-cased.
func ParseZone(s string) (Zone, error) {
	z := strings.ToUpper(strings.TrimSpace(s))
	if z == "" {
		return "", fmt.Errorf("zone cannot be empty")
	}
	return Zone(z), nil
}

func (z Zone) String() string {
	return string(z)
}

// IsNil returns true if the zone is empty.
func (z Zone) IsNil() bool {
	return z == ""
}

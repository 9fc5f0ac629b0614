// Package status defines the four-valued check result used across the plugin tree.
package status

import (
	"fmt"
	"strings"
)

// Status is the result of a check. Values are ordered by severity.
type Status uint8

const (
	OK Status = iota
	Warning
	Critical
	Unknown
)

// All lists every status in rank order.
var All = []Status{OK, Warning, Critical, Unknown}

var labels = [...]string{"OK", "WARNING", "CRITICAL", "UNKNOWN"}

var markers = [...]string{"+", "-", "!", "*"}

// Rank returns the numeric rank, which is also the process exit code.
func (s Status) Rank() int {
	if s > Unknown {
		return int(Unknown)
	}
	return int(s)
}

// Combine returns the more severe of s and other.
func (s Status) Combine(other Status) Status {
	if other.Rank() > s.Rank() {
		return other.normalize()
	}
	return s.normalize()
}

// Less reports whether s ranks strictly below other.
func (s Status) Less(other Status) bool {
	return s.Rank() < other.Rank()
}

// IsOK reports whether s is OK.
func (s Status) IsOK() bool {
	return s.normalize() == OK
}

// String returns the canonical label (OK, WARNING, CRITICAL, UNKNOWN).
func (s Status) String() string {
	return labels[s.Rank()]
}

// Marker returns the glyph used in nested summaries.
func (s Status) Marker() string {
	return markers[s.Rank()]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// normalize maps out-of-range values onto Unknown.
func (s Status) normalize() Status {
	return Status(s.Rank())
}

// Max folds Combine over the given statuses. An empty list yields Unknown.
func Max(statuses ...Status) Status {
	if len(statuses) == 0 {
		return Unknown
	}
	result := statuses[0].normalize()
	for _, s := range statuses[1:] {
		result = result.Combine(s)
	}
	return result
}

// Parse converts a label (case-insensitive) or a rank digit into a Status.
// Short forms "warn" and "crit" are accepted.
func Parse(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OK", "0":
		return OK, nil
	case "WARNING", "WARN", "1":
		return Warning, nil
	case "CRITICAL", "CRIT", "2":
		return Critical, nil
	case "UNKNOWN", "3":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid status %q", s)
}

// Package thresholds turns threshold strings such as "10:20:30:40" into
// per-status bounds and evaluates measurements against them.
package thresholds

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/status"
)

// Key is the argument key bounds are stored under.
const Key = "thresholds"

var boundsRE = regexp.MustCompile(`^[-+0-9.eE]*(:[-+0-9.eE]*){1,3}$`)

// Bounds holds one optional bound per status, in status order.
// Only Warning, Critical and Unknown take part in evaluation.
type Bounds struct {
	OK       *float64
	Warning  *float64
	Critical *float64
	Unknown  *float64
}

// IsThreshold reports whether s looks like a threshold string.
func IsThreshold(s string) bool {
	return boundsRE.MatchString(strings.TrimSpace(s))
}

// ParseBounds parses up to four colon separated numbers (":80:90:").
// Blank positions are left unset.
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 4 {
		return Bounds{}, fmt.Errorf("threshold %q: at most four fields allowed", s)
	}
	var b Bounds
	fields := []**float64{&b.OK, &b.Warning, &b.Critical, &b.Unknown}
	for i, p := range parts {
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("threshold %q: field %d: %w", s, i+1, err)
		}
		*fields[i] = &f
	}
	return b, nil
}

// FromValue extracts bounds from an argument value: a Bounds, a *Bounds or a
// threshold string.
func FromValue(v any) (Bounds, bool) {
	switch x := v.(type) {
	case Bounds:
		return x, true
	case *Bounds:
		if x != nil {
			return *x, true
		}
	case string:
		if b, err := ParseBounds(x); err == nil {
			return b, true
		}
	}
	return Bounds{}, false
}

// Evaluate maps a measurement onto a status: at or above Unknown is UNKNOWN,
// at or above Critical is CRITICAL, at or above Warning is WARNING, else OK.
func (b Bounds) Evaluate(v float64) status.Status {
	switch {
	case b.Unknown != nil && v >= *b.Unknown:
		return status.Unknown
	case b.Critical != nil && v >= *b.Critical:
		return status.Critical
	case b.Warning != nil && v >= *b.Warning:
		return status.Warning
	}
	return status.OK
}

// Fields returns the warn and crit metric fields for these bounds.
func (b Bounds) Fields() args.Map {
	fields := args.Map{}
	if b.Warning != nil {
		fields["warn"] = *b.Warning
	}
	if b.Critical != nil {
		fields["crit"] = *b.Critical
	}
	return fields
}

// IsZero reports whether no bound is set.
func (b Bounds) IsZero() bool {
	return b.OK == nil && b.Warning == nil && b.Critical == nil && b.Unknown == nil
}

// String renders the bounds in the a:b:c:d input form.
func (b Bounds) String() string {
	parts := make([]string, 4)
	for i, f := range []*float64{b.OK, b.Warning, b.Critical, b.Unknown} {
		if f != nil {
			parts[i] = strconv.FormatFloat(*f, 'f', -1, 64)
		}
	}
	return strings.Join(parts, ":")
}

package perfdata

import "fmt"

// InvalidMetricError reports a metric that cannot be stored or parsed.
type InvalidMetricError struct {
	Label  string
	Reason string
}

// Error implements the error interface
func (e *InvalidMetricError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("invalid metric: %s", e.Reason)
	}
	return fmt.Sprintf("invalid metric %q: %s", e.Label, e.Reason)
}

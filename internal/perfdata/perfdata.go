// Package perfdata implements performance metrics in the plugin output format
// label=value[UOM];[warn];[crit];[min];[max].
package perfdata

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Field names accepted by Set.
const (
	FieldUOM  = "uom"
	FieldWarn = "warn"
	FieldCrit = "crit"
	FieldMin  = "min"
	FieldMax  = "max"
)

// Fields lists the optional metric fields in render order.
var Fields = []string{FieldUOM, FieldWarn, FieldCrit, FieldMin, FieldMax}

// Metric is one labeled measurement.
type Metric struct {
	Label string
	Value any
	UOM   string
	Warn  any
	Crit  any
	Min   any
	Max   any
}

// String renders the metric as label=value[uom];warn;crit;min;max.
func (m Metric) String() string {
	return fmt.Sprintf("%s=%s%s;%s;%s;%s;%s",
		quoteLabel(m.Label),
		FormatValue(m.Value),
		m.UOM,
		FormatValue(m.Warn),
		FormatValue(m.Crit),
		FormatValue(m.Min),
		FormatValue(m.Max),
	)
}

// Set is an ordered collection of metrics keyed by label.
type Set struct {
	order   []string
	metrics map[string]Metric
}

// NewSet creates an empty metric set.
func NewSet() *Set {
	return &Set{metrics: make(map[string]Metric)}
}

// Set stores a metric. fields must be nil or a mapping whose keys are among
// uom, warn, crit, min and max. Re-setting a label keeps its original position.
func (s *Set) Set(label string, value any, fields any) error {
	if err := ValidateLabel(label); err != nil {
		return err
	}
	if value == nil {
		return &InvalidMetricError{Label: label, Reason: "missing value"}
	}
	fm, err := toFieldMap(fields)
	if err != nil {
		return &InvalidMetricError{Label: label, Reason: err.Error()}
	}

	m := Metric{Label: label, Value: value}
	for k, v := range fm {
		switch k {
		case FieldUOM:
			m.UOM = FormatValue(v)
		case FieldWarn:
			m.Warn = v
		case FieldCrit:
			m.Crit = v
		case FieldMin:
			m.Min = v
		case FieldMax:
			m.Max = v
		default:
			return &InvalidMetricError{Label: label, Reason: fmt.Sprintf("unknown field %q", k)}
		}
	}
	return s.Add(m)
}

// Add stores an already assembled metric.
func (s *Set) Add(m Metric) error {
	if err := ValidateLabel(m.Label); err != nil {
		return err
	}
	if strings.ContainsAny(m.UOM, ";= ") {
		return &InvalidMetricError{Label: m.Label, Reason: fmt.Sprintf("invalid unit %q", m.UOM)}
	}
	if _, exists := s.metrics[m.Label]; !exists {
		s.order = append(s.order, m.Label)
	}
	s.metrics[m.Label] = m
	return nil
}

// Get returns the metric stored under label.
func (s *Set) Get(label string) (Metric, bool) {
	m, ok := s.metrics[label]
	return m, ok
}

// Has reports whether label is present.
func (s *Set) Has(label string) bool {
	_, ok := s.metrics[label]
	return ok
}

// Delete removes label from the set.
func (s *Set) Delete(label string) {
	if _, ok := s.metrics[label]; !ok {
		return
	}
	delete(s.metrics, label)
	for i, l := range s.order {
		if l == label {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Labels returns labels in insertion order.
func (s *Set) Labels() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of metrics.
func (s *Set) Len() int {
	return len(s.order)
}

// Metrics returns the metrics in insertion order.
func (s *Set) Metrics() []Metric {
	out := make([]Metric, 0, len(s.order))
	for _, l := range s.order {
		out = append(out, s.metrics[l])
	}
	return out
}

// Reset removes every metric.
func (s *Set) Reset() {
	s.order = nil
	s.metrics = make(map[string]Metric)
}

// Render renders the given labels, or every label when none are given,
// joined by a single space. Unknown labels are skipped.
func (s *Set) Render(labels ...string) string {
	if len(labels) == 0 {
		labels = s.order
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if m, ok := s.metrics[l]; ok {
			parts = append(parts, m.String())
		}
	}
	return strings.Join(parts, " ")
}

// ValidateLabel checks that a label can be rendered unambiguously.
func ValidateLabel(label string) error {
	switch {
	case label == "":
		return &InvalidMetricError{Reason: "missing label"}
	case strings.ContainsAny(label, "='"):
		return &InvalidMetricError{Label: label, Reason: "label must not contain '=' or a single quote"}
	}
	return nil
}

func quoteLabel(label string) string {
	if strings.IndexFunc(label, isSpace) >= 0 {
		return "'" + label + "'"
	}
	return label
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

// FormatValue renders a metric value or bound. nil renders empty.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case *float64:
		if x == nil {
			return ""
		}
		return strconv.FormatFloat(*x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// toFieldMap accepts nil or any map with string keys.
func toFieldMap(fields any) (map[string]any, error) {
	if fields == nil {
		return nil, nil
	}
	if m, ok := fields.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(fields)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("fields must be a mapping, got %T", fields)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

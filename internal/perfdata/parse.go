package perfdata

import (
	"regexp"
	"strconv"
	"strings"
)

var valueRE = regexp.MustCompile(`^(-?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?|U)(.*)$`)

// Parse reads performance data as emitted by external plugins, e.g.
// "time=0.12s;1;2;0; 'used space'=80%;90;95".
func Parse(s string) ([]Metric, error) {
	var metrics []Metric
	for _, tok := range tokenize(strings.TrimSpace(s)) {
		m, err := parseMetric(tok)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// tokenize splits on whitespace outside single-quoted labels.
func tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
			current.WriteRune(r)
		case isSpace(r) && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func parseMetric(tok string) (Metric, error) {
	eq := strings.LastIndex(tok, "=")
	if eq <= 0 {
		return Metric{}, &InvalidMetricError{Label: tok, Reason: "missing '='"}
	}
	label := strings.Trim(tok[:eq], "'")
	if err := ValidateLabel(label); err != nil {
		return Metric{}, err
	}

	fields := strings.Split(tok[eq+1:], ";")
	match := valueRE.FindStringSubmatch(fields[0])
	if match == nil {
		return Metric{}, &InvalidMetricError{Label: label, Reason: "invalid value " + strconv.Quote(fields[0])}
	}

	m := Metric{Label: label, Value: parseNumber(match[1]), UOM: match[2]}
	bounds := []*any{&m.Warn, &m.Crit, &m.Min, &m.Max}
	for i, f := range fields[1:] {
		if i >= len(bounds) {
			break
		}
		if f != "" {
			*bounds[i] = parseNumber(f)
		}
	}
	return m, nil
}

// parseNumber returns a float64 when s is numeric, s itself otherwise
// (ranges such as "10:20" or "@5:" are kept verbatim).
func parseNumber(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

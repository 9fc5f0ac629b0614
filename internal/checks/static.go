package checks

import (
	"context"
	"fmt"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/perfdata"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// Static reports a fixed result taken from its arguments:
//
//	status: warning
//	output: "maintenance window"
//	long: "line one\nline two"
//	metrics: {load: 0.4, used: {value: 81, uom: "%", warn: 80, crit: 90}}
//
// When a value argument is given instead of status, the thresholds decide.
func Static(opts Options) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		a := n.Args()

		s := status.OK
		if raw, ok := a.StringValue("status"); ok {
			parsed, err := status.Parse(raw)
			if err != nil {
				return err
			}
			s = parsed
		}

		if v, ok, err := a.Float("value"); err != nil {
			return err
		} else if ok {
			measured, err := measure(n, a.StringOr("label", "value"), v, a.StringOr("uom", ""))
			if err != nil {
				return err
			}
			if _, explicit := a["status"]; !explicit {
				s = measured
			}
		}

		if raw, ok := a["metrics"]; ok {
			metrics, ok := args.AsMap(raw)
			if !ok {
				return fmt.Errorf("static check: metrics must be a mapping, got %T", raw)
			}
			if err := setMetrics(n.Perfdata(), metrics); err != nil {
				return err
			}
		}

		n.SetResult(s, a.StringOr("output", s.String()))
		if long, ok := a.StringValue("long"); ok {
			n.Output().Push(long)
		}
		return nil
	}
}

func setMetrics(set *perfdata.Set, metrics args.Map) error {
	for _, label := range metrics.Keys() {
		raw := metrics[label]
		fields, ok := args.AsMap(raw)
		if !ok {
			if err := set.Set(label, raw, nil); err != nil {
				return err
			}
			continue
		}
		value := fields["value"]
		rest := args.Clone(fields)
		delete(rest, "value")
		if err := set.Set(label, value, rest); err != nil {
			return err
		}
	}
	return nil
}

package checks

import (
	"context"
	"time"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// withTimeout derives the check deadline from the timeout argument, falling
// back to def.
func withTimeout(ctx context.Context, n *plugin.Node, def time.Duration) (context.Context, context.CancelFunc, time.Duration, error) {
	d, ok, err := n.Args().Duration("timeout")
	if err != nil {
		return nil, nil, 0, err
	}
	if !ok || d <= 0 {
		d = def
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, cancel, d, nil
}

// measure records value under label with the plugin's threshold fields and
// returns the status the thresholds assign to it. Without thresholds the
// measurement is OK.
func measure(n *plugin.Node, label string, value float64, uom string) (status.Status, error) {
	fields := args.Map{}
	if uom != "" {
		fields["uom"] = uom
	}
	bounds, ok := n.Thresholds()
	if ok {
		fields = args.Merge(fields, bounds.Fields())
	}
	if err := n.Perfdata().Set(label, value, fields); err != nil {
		return status.Unknown, err
	}
	if !ok {
		return status.OK, nil
	}
	return bounds.Evaluate(value), nil
}

func required(n *plugin.Node, check, key string) (string, error) {
	v, ok := n.Args().StringValue(key)
	if !ok || v == "" {
		return "", &MissingArgError{Check: check, Arg: key}
	}
	return v, nil
}

func seconds(d time.Duration) float64 {
	return float64(d.Round(time.Microsecond)) / float64(time.Second)
}

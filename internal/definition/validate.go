package definition

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/thresholds"
)

// ValidationError describes one problem in a definition file.
type ValidationError struct {
	Path    string
	Problem string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Problem)
}

// Validate reports every problem in the definition at once. Use
// multierr.Errors to list them individually.
func (d *Definition) Validate(reg Registry) error {
	var errs error
	add := func(path, format string, a ...any) {
		errs = multierr.Append(errs, &ValidationError{Path: path, Problem: fmt.Sprintf(format, a...)})
	}

	d.Walk(func(path string, n *Node) {
		if err := plugin.ValidateTag(n.Tag); err != nil {
			add(path, "%v", err)
		}

		switch {
		case n.Check != "" && len(n.Children) > 0:
			add(path, "has both a check and children")
		case n.Check == "" && len(n.Children) == 0:
			add(path, "has neither a check nor children")
		case n.Check != "" && reg != nil && !reg.Has(n.Check):
			add(path, "unknown check kind %q", n.Check)
		}

		seen := make(map[string]bool, len(n.Children))
		for _, c := range n.Children {
			if seen[c.Tag] {
				add(path+"."+c.Tag, "duplicate tag")
				continue
			}
			seen[c.Tag] = true
			if v, clash := n.Args[c.Tag]; clash {
				if _, ok := args.AsMap(v); !ok {
					add(path+"."+c.Tag, "argument %q on the parent shadows this plugin's scope", c.Tag)
				}
			}
		}

		if raw, ok := n.Args[thresholds.Key]; ok {
			if s, isString := raw.(string); isString {
				if _, err := thresholds.ParseBounds(s); err != nil {
					add(path, "%v", err)
				}
			} else if _, ok := thresholds.FromValue(raw); !ok {
				add(path, "thresholds must be a string of the form a:b:c:d")
			}
		}
		if _, _, err := args.Map(n.Args).Duration("timeout"); err != nil {
			add(path, "%v", err)
		}
	})
	return errs
}

package thresholds

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/vinayprograms/plugtree/internal/args"
)

// Parse reads a JSON threshold document into an argument map ready for
// ApplyArgs. Object keys are plugin tags; a threshold string under tag t
// becomes {t: {"thresholds": Bounds}}, a threshold string under the
// "thresholds" key applies to the enclosing scope, nested objects descend one
// scope. Other values are ignored.
//
//	{"disk": ":80:90:", "fs": {"root": ":70:85:"}}
func Parse(doc string) (args.Map, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("invalid thresholds JSON")
	}
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return nil, fmt.Errorf("thresholds JSON must be an object")
	}
	return walk(root)
}

func walk(obj gjson.Result) (args.Map, error) {
	out := args.Map{}
	var walkErr error
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		switch {
		case value.IsObject():
			nested, err := walk(value)
			if err != nil {
				walkErr = err
				return false
			}
			if len(nested) > 0 {
				out[k] = nested
			}
		case value.Type == gjson.String && IsThreshold(value.String()):
			b, err := ParseBounds(value.String())
			if err != nil {
				walkErr = fmt.Errorf("%s: %w", k, err)
				return false
			}
			if k == Key {
				out[Key] = b
			} else {
				out[k] = args.Map{Key: b}
			}
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// File checks that path exists and reports its age in seconds against the
// thresholds. A missing file is CRITICAL.
func File(opts Options) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		path, err := required(n, "file", "path")
		if err != nil {
			return err
		}

		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			n.SetResult(status.Critical, fmt.Sprintf("%s: no such file", path))
			return nil
		}
		if err != nil {
			return err
		}

		age := time.Since(info.ModTime())
		if age < 0 {
			age = 0
		}
		s, err := measure(n, "age", age.Truncate(time.Second).Seconds(), "s")
		if err != nil {
			return err
		}
		if err := n.Perfdata().Set("size", info.Size(), map[string]any{"uom": "B", "min": 0}); err != nil {
			return err
		}
		n.SetResult(s, fmt.Sprintf("%s is %s old", path, age.Truncate(time.Second)))
		return nil
	}
}

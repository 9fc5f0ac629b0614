package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vinayprograms/plugtree/internal/perfdata"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// Command runs an external Nagios-style plugin through "sh -c". The exit code
// becomes the status; the first output line is "text | perfdata" and the
// remaining lines are long text.
func Command(opts Options) plugin.Body {
	return func(ctx context.Context, n *plugin.Node) error {
		command, err := required(n, "command", "command")
		if err != nil {
			return err
		}
		ctx, cancel, timeout, err := withTimeout(ctx, n, opts.Timeout)
		if err != nil {
			return err
		}
		defer cancel()

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		cmd.WaitDelay = time.Second

		opts.Logger.Debug("command_start", map[string]interface{}{
			"plugin":  n.Path(),
			"command": command,
		})
		runErr := cmd.Run()
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("command timed out after %s", timeout)
		}

		code := 0
		if runErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(runErr, &exitErr) {
				return fmt.Errorf("command failed to start: %w", runErr)
			}
			code = exitErr.ExitCode()
		}

		s := status.Unknown
		if code >= 0 && code <= int(status.Unknown) {
			s = status.Status(code)
		}

		out := stdout.String()
		if strings.TrimSpace(out) == "" {
			out = strings.TrimSpace(stderr.String())
		}
		text, long, metrics, err := parseOutput(out)
		if err != nil {
			return err
		}
		if text == "" {
			text = fmt.Sprintf("command exited with %d", code)
		}

		n.SetResult(s, text)
		n.Output().Push(long...)
		for _, m := range metrics {
			if err := n.Perfdata().Add(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// parseOutput splits plugin output into its summary, long text and metrics.
// Long text lines may carry additional metrics after a '|'.
func parseOutput(out string) (string, []string, []perfdata.Metric, error) {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	var (
		long    []string
		metrics []perfdata.Metric
	)
	split := func(line string) (string, error) {
		text, perf, found := strings.Cut(line, "|")
		if !found {
			return line, nil
		}
		parsed, err := perfdata.Parse(perf)
		if err != nil {
			return "", err
		}
		metrics = append(metrics, parsed...)
		return strings.TrimSpace(text), nil
	}

	text, err := split(lines[0])
	if err != nil {
		return "", nil, nil, err
	}
	inPerf := false
	for _, line := range lines[1:] {
		if inPerf {
			parsed, err := perfdata.Parse(line)
			if err != nil {
				return "", nil, nil, err
			}
			metrics = append(metrics, parsed...)
			continue
		}
		if strings.Contains(line, "|") {
			rest, err := split(line)
			if err != nil {
				return "", nil, nil, err
			}
			if rest != "" {
				long = append(long, rest)
			}
			inPerf = true
			continue
		}
		long = append(long, line)
	}
	return strings.TrimSpace(text), long, metrics, nil
}

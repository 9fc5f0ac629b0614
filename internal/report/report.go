// Package report turns a finished plugin tree into the single status line and
// process exit code expected by monitoring systems.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// Line renders "<STATUS>: <output>" followed by " | <metrics>" when the tree
// carries any performance data.
func Line(n *plugin.Node) string {
	line := n.String()
	metrics := n.DeepPerfdata()
	if len(metrics) == 0 {
		return line
	}
	rendered := make([]string, len(metrics))
	for i, m := range metrics {
		rendered[i] = m.String()
	}
	return line + " | " + strings.Join(rendered, " ")
}

// ExitCode returns the process exit code for s.
func ExitCode(s status.Status) int {
	return s.Rank()
}

// Reporter writes the report line and terminates the run.
type Reporter struct {
	Out      io.Writer
	Exit     func(code int)
	LongText bool
}

// New returns a reporter writing to stdout and exiting the process.
func New() *Reporter {
	return &Reporter{Out: os.Stdout, Exit: os.Exit}
}

// Report prints n's line, and its long text when enabled, then exits with
// n's status rank.
func (r *Reporter) Report(n *plugin.Node) {
	fmt.Fprintln(r.out(), Line(n))
	if r.LongText {
		for _, l := range n.Output().LongText() {
			fmt.Fprintln(r.out(), l)
		}
	}
	r.exit(ExitCode(n.Status()))
}

// Eject reports a failure that happened outside any plugin as UNKNOWN and
// exits 3.
func (r *Reporter) Eject(site string, err error) {
	fmt.Fprintf(r.out(), "%s: %s: %v\n", status.Unknown, site, err)
	r.exit(ExitCode(status.Unknown))
}

// Recover turns a panic outside any plugin into an Eject. It must be
// deferred directly.
func (r *Reporter) Recover() {
	if v := recover(); v != nil {
		r.Eject("internal", fmt.Errorf("%v", v))
	}
}

func (r *Reporter) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Reporter) exit(code int) {
	if r.Exit == nil {
		os.Exit(code)
	}
	r.Exit(code)
}

// Package executor runs plugin trees: leaves run their bodies inside a failure
// boundary, meta plugins run their children and aggregate the results.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vinayprograms/plugtree/internal/logging"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/status"
)

// NoEnabledPlugins is the output of a meta plugin whose children are all disabled.
const NoEnabledPlugins = "no enabled plugins"

// BenchmarkSuffix is appended to a benchmarked plugin's tag to form its timing metric label.
const BenchmarkSuffix = "_time"

const tracerName = "github.com/vinayprograms/plugtree/executor"

// Executor executes plugin trees depth first, one plugin at a time.
type Executor struct {
	logger *logging.Logger
	tracer trace.Tracer

	// Callbacks
	OnNodeStart    func(n *plugin.Node)
	OnNodeComplete func(n *plugin.Node, elapsed time.Duration)
	OnNodeError    func(n *plugin.Node, err error)
}

// New creates a new executor.
func New() *Executor {
	return &Executor{
		logger: logging.New().WithComponent("executor"),
		tracer: otel.Tracer(tracerName),
	}
}

// SetTracerProvider makes the executor record spans on tp instead of the
// global provider.
func (e *Executor) SetTracerProvider(tp trace.TracerProvider) {
	e.tracer = tp.Tracer(tracerName)
}

// SetLogger replaces the executor's logger.
func (e *Executor) SetLogger(l *logging.Logger) {
	e.logger = l.WithComponent("executor")
}

// Run executes root and returns its resulting status.
func (e *Executor) Run(ctx context.Context, root *plugin.Node) status.Status {
	start := time.Now()
	e.logger.ExecutionStart(root.Path())

	ctx, span := e.startRunSpan(ctx, root)
	e.Execute(ctx, root)
	e.endRunSpan(span, root)

	e.logger.ExecutionComplete(root.Path(), time.Since(start), root.Status().String())
	return root.Status()
}

// RunStandalone executes only the plugin at path. The path is either relative
// to root ("fs.root") or absolute as reported in logs ("main.fs.root").
func (e *Executor) RunStandalone(ctx context.Context, root *plugin.Node, path string) (*plugin.Node, error) {
	n, err := lookup(root, path)
	if err != nil {
		return nil, err
	}
	e.Run(ctx, n)
	return n, nil
}

// lookup resolves path below root, falling back to the absolute form.
func lookup(root *plugin.Node, path string) (*plugin.Node, error) {
	n, err := root.Lookup(path)
	if err == nil {
		return n, nil
	}
	if path == root.Tag() {
		return root, nil
	}
	if rel, ok := strings.CutPrefix(path, root.Tag()+"."); ok {
		if abs, absErr := root.Lookup(rel); absErr == nil {
			return abs, nil
		}
	}
	return nil, err
}

// Execute runs n. It never returns an error and never panics: failures inside
// a body are turned into an UNKNOWN result on that plugin, and a panicking
// callback is logged and ignored.
func (e *Executor) Execute(ctx context.Context, n *plugin.Node) {
	if !n.Enabled() {
		e.logger.NodeSkipped(n.Path())
		return
	}

	ctx, span := e.startNodeSpan(ctx, n)
	start := time.Now()
	n.ResetResult()
	e.logger.NodeStart(n.Path(), n.IsComposite())
	if e.OnNodeStart != nil {
		e.callback(n, "on_node_start", func() { e.OnNodeStart(n) })
	}
	if n.Debug() {
		e.logger.ArgsApplied(n.Path(), n.EffectiveArgs())
	}

	var execErr error
	if n.IsComposite() {
		for _, c := range n.Children() {
			e.Execute(ctx, c)
		}
		Evaluate(n)
	} else if execErr = runBody(ctx, n); execErr != nil {
		contain(n, execErr)
		e.logger.NodeError(n.Path(), execErr)
		if e.OnNodeError != nil {
			e.callback(n, "on_node_error", func() { e.OnNodeError(n, execErr) })
		}
	}

	elapsed := time.Since(start)
	n.SetElapsed(elapsed)
	if n.Benchmark() {
		if err := n.Perfdata().Set(n.Tag()+BenchmarkSuffix, roundSeconds(elapsed), map[string]any{"uom": "s"}); err != nil {
			e.logger.NodeError(n.Path(), err)
		}
	}

	e.endNodeSpan(span, n, execErr)
	e.logger.NodeComplete(n.Path(), elapsed, n.Status().String(), n.Output().Text())
	if e.OnNodeComplete != nil {
		e.callback(n, "on_node_complete", func() { e.OnNodeComplete(n, elapsed) })
	}
}

// callback runs fn, logging a panic instead of letting it unwind the tree.
func (e *Executor) callback(n *plugin.Node, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("callback_panic", map[string]interface{}{
				"path":     n.Path(),
				"callback": name,
				"panic":    fmt.Sprintf("%v", r),
			})
		}
	}()
	fn()
}

// Evaluate recomputes a meta plugin's result from its enabled children. When
// any child is not OK only those children are reported, otherwise all of them;
// the status is the worst status among the reported children.
func Evaluate(n *plugin.Node) {
	if !n.IsComposite() {
		return
	}

	var enabled, notOK []*plugin.Node
	for _, c := range n.Children() {
		if !c.Enabled() {
			continue
		}
		enabled = append(enabled, c)
		if !c.Status().IsOK() {
			notOK = append(notOK, c)
		}
	}
	if len(enabled) == 0 {
		n.SetResult(status.Unknown, NoEnabledPlugins)
		return
	}

	subset := enabled
	if len(notOK) > 0 {
		subset = notOK
	}

	statuses := make([]status.Status, len(subset))
	parts := make([]string, len(subset))
	for i, c := range subset {
		statuses[i] = c.Status()
		parts[i] = c.ShortForm()
	}
	n.SetResult(status.Max(statuses...), strings.Join(parts, " "))
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(time.Millisecond)) / float64(time.Second)
}

// Tracing instrumentation for the executor.
package executor

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vinayprograms/plugtree/internal/plugin"
)

// startRunSpan starts a span for a whole execution pass.
func (e *Executor) startRunSpan(ctx context.Context, root *plugin.Node) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, "plugtree.run")
	span.SetAttributes(
		attribute.String("plugin.root", root.Path()),
	)
	return ctx, span
}

// endRunSpan ends the run span with the root's result.
func (e *Executor) endRunSpan(span trace.Span, root *plugin.Node) {
	span.SetAttributes(
		attribute.String("plugin.status", root.Status().String()),
		attribute.Int("plugin.exit_code", root.Status().Rank()),
	)
	span.End()
}

// startNodeSpan starts a span for a single plugin.
func (e *Executor) startNodeSpan(ctx context.Context, n *plugin.Node) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, "plugin."+n.Path())
	span.SetAttributes(
		attribute.String("plugin.tag", n.Tag()),
		attribute.Bool("plugin.meta", n.IsComposite()),
	)
	return ctx, span
}

// endNodeSpan ends the plugin span with its result.
func (e *Executor) endNodeSpan(span trace.Span, n *plugin.Node, err error) {
	span.SetAttributes(
		attribute.String("plugin.status", n.Status().String()),
		attribute.String("plugin.output", truncateForLog(n.Output().Text(), 200)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// truncateForLog truncates a string for logging purposes.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

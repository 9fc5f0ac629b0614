// Package plugin provides the plugin tree: named check units that either run a
// body (leaves) or aggregate the results of their children (meta plugins).
package plugin

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/output"
	"github.com/vinayprograms/plugtree/internal/perfdata"
	"github.com/vinayprograms/plugtree/internal/status"
	"github.com/vinayprograms/plugtree/internal/thresholds"
)

// DefaultTag is the tag of a root plugin declared without one.
const DefaultTag = "main"

// ThresholdsKey is the argument key holding a plugin's thresholds.Bounds.
const ThresholdsKey = thresholds.Key

// Body is the check logic of a leaf plugin. It reports its result through n
// and returns an error when the check itself could not be carried out.
type Body func(ctx context.Context, n *Node) error

// Node is a plugin in the tree.
type Node struct {
	tag         string
	description string
	body        Body
	parent      *Node // ancestry only; children are owned through the children slice

	children []*Node
	index    map[string]*Node

	meta      bool
	enabled   bool
	debug     bool
	benchmark bool

	status   status.Status
	output   *output.Buffer
	perfdata *perfdata.Set
	args     args.Map
	payload  error
	elapsed  time.Duration
}

// Option configures a node at definition time.
type Option func(*Node)

// WithDescription sets the human readable description.
func WithDescription(d string) Option {
	return func(n *Node) { n.description = d }
}

// WithBody sets the check logic.
func WithBody(b Body) Option {
	return func(n *Node) { n.body = b }
}

// WithDebug makes the executor log the node's effective arguments before running it.
func WithDebug(debug bool) Option {
	return func(n *Node) { n.debug = debug }
}

// WithBenchmark records the node's execution time as a "<tag>_time" metric.
func WithBenchmark(benchmark bool) Option {
	return func(n *Node) { n.benchmark = benchmark }
}

// WithEnabled sets the initial enablement. Ignored for meta plugins.
func WithEnabled(enabled bool) Option {
	return func(n *Node) { n.enabled = enabled }
}

// New declares a root plugin. An empty tag defaults to "main".
func New(tag string, opts ...Option) (*Node, error) {
	if tag == "" {
		tag = DefaultTag
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}
	return newNode(tag, nil, opts...), nil
}

func newNode(tag string, parent *Node, opts ...Option) *Node {
	n := &Node{
		tag:      tag,
		parent:   parent,
		index:    make(map[string]*Node),
		enabled:  true,
		status:   status.Unknown,
		output:   output.New(),
		perfdata: perfdata.NewSet(),
		args:     make(args.Map),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// DeclareChild registers a child plugin under n. The first child turns n into
// a meta plugin, which is always enabled and never runs its own body.
func (n *Node) DeclareChild(tag, description string, body Body, opts ...Option) (*Node, error) {
	if err := validateTag(tag); err != nil {
		return nil, err
	}
	if _, exists := n.index[tag]; exists {
		return nil, &DuplicateTagError{Parent: n.Path(), Tag: tag}
	}

	opts = append([]Option{WithDescription(description), WithBody(body)}, opts...)
	child := newNode(tag, n, opts...)
	n.children = append(n.children, child)
	n.index[tag] = child
	n.meta = true
	n.enabled = true
	return child, nil
}

// Child returns the direct child with the given tag.
func (n *Node) Child(tag string) (*Node, error) {
	if c, ok := n.index[tag]; ok {
		return c, nil
	}
	return nil, &UnknownTagError{Parent: n.Path(), Tag: tag}
}

// Lookup resolves a dotted path of tags relative to n ("fs.root").
// The empty path resolves to n itself.
func (n *Node) Lookup(path string) (*Node, error) {
	if path == "" {
		return n, nil
	}
	cur := n
	for _, tag := range strings.Split(path, ".") {
		next, err := cur.Child(tag)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Tag returns the plugin's tag.
func (n *Node) Tag() string { return n.tag }

// Description returns the optional description.
func (n *Node) Description() string { return n.description }

// Body returns the check logic (nil for pure meta plugins).
func (n *Node) Body() Body { return n.body }

// Parent returns the parent plugin, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the children in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildTags returns the children's tags in declaration order.
func (n *Node) ChildTags() []string {
	tags := make([]string, len(n.children))
	for i, c := range n.children {
		tags[i] = c.tag
	}
	return tags
}

// IsComposite reports whether n has children.
func (n *Node) IsComposite() bool { return len(n.children) > 0 }

// IsMeta reports whether n only aggregates its children.
func (n *Node) IsMeta() bool { return n.meta }

// Debug reports whether debug logging is on for n.
func (n *Node) Debug() bool { return n.debug }

// Benchmark reports whether execution time is recorded for n.
func (n *Node) Benchmark() bool { return n.benchmark }

// Path returns the dotted tag path from the root ("main.fs.root").
func (n *Node) Path() string {
	if n.parent == nil {
		return n.tag
	}
	return n.parent.Path() + "." + n.tag
}

// Root returns the root of n's tree.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Depth returns the number of ancestors of n.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Enabled reports whether n takes part in execution.
func (n *Node) Enabled() bool { return n.meta || n.enabled }

// Enable turns n on.
func (n *Node) Enable() { n.enabled = true }

// Disable turns n off. Meta plugins cannot be disabled.
func (n *Node) Disable() error {
	if n.meta {
		return ErrMetaDisable
	}
	n.enabled = false
	return nil
}

// Walk visits n and its descendants depth first, parents before children.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Status returns the current status.
func (n *Node) Status() status.Status { return n.status }

// SetStatus sets the current status.
func (n *Node) SetStatus(s status.Status) { n.status = status.Max(s) }

// Output returns the output buffer.
func (n *Node) Output() *output.Buffer { return n.output }

// SetOutput replaces the summary text.
func (n *Node) SetOutput(text string) { n.output.SetText(text) }

// SetResult sets status and summary text in one call.
func (n *Node) SetResult(s status.Status, text string) {
	n.SetStatus(s)
	n.SetOutput(text)
}

// Perfdata returns n's own metric set.
func (n *Node) Perfdata() *perfdata.Set { return n.perfdata }

// Payload returns the error captured during the last execution, if any.
func (n *Node) Payload() error { return n.payload }

// SetPayload records an error for upstream inspection.
func (n *Node) SetPayload(err error) { n.payload = err }

// Elapsed returns the duration of the last execution.
func (n *Node) Elapsed() time.Duration { return n.elapsed }

// SetElapsed records the duration of the last execution.
func (n *Node) SetElapsed(d time.Duration) { n.elapsed = d }

// ResetResult restores status, output, metrics and payload to their initial
// values ahead of a new execution pass. Arguments are kept.
func (n *Node) ResetResult() {
	n.status = status.Unknown
	n.output.Reset()
	n.perfdata.Reset()
	n.payload = nil
	n.elapsed = 0
}

// Args returns n's argument store. Callers must not modify it.
func (n *Node) Args() args.Map { return n.args }

// Arg returns a single argument value.
func (n *Node) Arg(key string) (any, bool) {
	v, ok := n.args[key]
	return v, ok
}

// SetArg stores a single argument on n only.
func (n *Node) SetArg(key string, value any) { n.args[key] = value }

// Thresholds returns the bounds stored under the thresholds key, either
// directly in n's arguments or in the entry scoped to n's own tag.
func (n *Node) Thresholds() (thresholds.Bounds, bool) {
	if b, ok := thresholds.FromValue(n.args[ThresholdsKey]); ok {
		return b, true
	}
	if scoped, ok := args.AsMap(n.args[n.tag]); ok {
		return thresholds.FromValue(scoped[ThresholdsKey])
	}
	return thresholds.Bounds{}, false
}

// ShortForm renders n as it appears in its parent's summary: [<marker><tag> <output>].
func (n *Node) ShortForm() string {
	return "[" + n.status.Marker() + n.tag + " " + n.output.Text() + "]"
}

// String renders "<STATUS>: <output>".
func (n *Node) String() string {
	return n.status.String() + ": " + n.output.Text()
}

// ValidateTag reports whether tag can be used as a plugin tag.
func ValidateTag(tag string) error { return validateTag(tag) }

func validateTag(tag string) error {
	if tag == "" {
		return &InvalidTagError{Tag: tag, Reason: "empty tag"}
	}
	for _, r := range tag {
		if r == '.' || unicode.IsSpace(r) || r == '[' || r == ']' {
			return &InvalidTagError{Tag: tag, Reason: "tags must not contain dots, brackets or whitespace"}
		}
		// The tag becomes part of the benchmark metric label.
		if r == '=' || r == '\'' {
			return &InvalidTagError{Tag: tag, Reason: "tags must not contain '=' or quotes"}
		}
	}
	return nil
}

// Package checks provides the built-in check bodies a definition file can
// reference by kind.
package checks

import (
	"sort"
	"time"

	"github.com/vinayprograms/plugtree/internal/logging"
	"github.com/vinayprograms/plugtree/internal/plugin"
)

// DefaultTimeout applies when neither the plugin nor the registry sets one.
const DefaultTimeout = 10 * time.Second

// Options carries defaults shared by every check built from a registry.
type Options struct {
	Timeout time.Duration
	Logger  *logging.Logger
}

// Factory builds the body for one kind of check.
type Factory func(opts Options) plugin.Body

// Registry maps check kinds to factories.
type Registry struct {
	factories map[string]Factory
	opts      Options
}

// NewRegistry returns a registry holding the built-in kinds.
func NewRegistry(opts Options) *Registry {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	opts.Logger = opts.Logger.WithComponent("checks")

	r := &Registry{factories: make(map[string]Factory), opts: opts}
	r.factories["static"] = Static
	r.factories["command"] = Command
	r.factories["tcp"] = TCP
	r.factories["http"] = HTTP
	r.factories["file"] = File
	r.factories["ping"] = Ping
	return r
}

// Register adds a kind. Registering an existing kind is an error.
func (r *Registry) Register(kind string, f Factory) error {
	if _, exists := r.factories[kind]; exists {
		return &DuplicateKindError{Kind: kind}
	}
	r.factories[kind] = f
	return nil
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Lookup returns a fresh body for kind.
func (r *Registry) Lookup(kind string) (plugin.Body, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind, Known: r.Kinds()}
	}
	return f(r.opts), nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

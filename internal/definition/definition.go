// Package definition loads plugin trees from YAML files.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/plugin"
)

// Node is one plugin in a definition file.
type Node struct {
	Tag         string         `yaml:"tag"`
	Description string         `yaml:"description,omitempty"`
	Check       string         `yaml:"check,omitempty"`
	Args        map[string]any `yaml:"args,omitempty"`
	Benchmark   bool           `yaml:"benchmark,omitempty"`
	Debug       bool           `yaml:"debug,omitempty"`
	Disabled    bool           `yaml:"disabled,omitempty"`
	Children    []*Node        `yaml:"children,omitempty"`
}

// Definition is a parsed definition file.
type Definition struct {
	Path string
	Root *Node
}

// Registry resolves check kinds into bodies.
type Registry interface {
	Has(kind string) bool
	Lookup(kind string) (plugin.Body, error)
}

// Load reads and parses the definition at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Path = path
	return def, nil
}

// Parse decodes a YAML definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var root Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty definition")
		}
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if root.Tag == "" {
		root.Tag = plugin.DefaultTag
	}
	return &Definition{Root: &root}, nil
}

// Walk visits every node depth first with its dotted path.
func (d *Definition) Walk(fn func(path string, n *Node)) {
	var walk func(prefix string, n *Node)
	walk = func(prefix string, n *Node) {
		path := n.Tag
		if prefix != "" {
			path = prefix + "." + n.Tag
		}
		fn(path, n)
		for _, c := range n.Children {
			walk(path, c)
		}
	}
	walk("", d.Root)
}

// Args returns the definition's arguments as one nested map, each node's
// arguments scoped under its tag relative to its parent.
func (d *Definition) Args() args.Map {
	return nodeArgs(d.Root)
}

func nodeArgs(n *Node) args.Map {
	out := args.Clone(args.Map(n.Args))
	if out == nil {
		out = args.Map{}
	}
	for _, c := range n.Children {
		scoped := nodeArgs(c)
		if len(scoped) == 0 {
			continue
		}
		if existing, ok := args.AsMap(out[c.Tag]); ok {
			scoped = args.DeepMerge(existing, scoped)
		}
		out[c.Tag] = scoped
	}
	return out
}

// Build validates the definition, constructs the plugin tree and applies the
// definition's arguments to it.
func (d *Definition) Build(reg Registry) (*plugin.Node, error) {
	if err := d.Validate(reg); err != nil {
		return nil, err
	}
	spec, err := toSpec(d.Root, reg)
	if err != nil {
		return nil, err
	}
	root, err := plugin.Build(spec)
	if err != nil {
		return nil, err
	}
	if err := root.ApplyArgs(d.Args()); err != nil {
		return nil, err
	}
	return root, nil
}

func toSpec(n *Node, reg Registry) (plugin.Spec, error) {
	spec := plugin.Spec{
		Tag:         n.Tag,
		Description: n.Description,
		Debug:       n.Debug,
		Benchmark:   n.Benchmark,
		Disabled:    n.Disabled,
	}
	if n.Check != "" {
		body, err := reg.Lookup(n.Check)
		if err != nil {
			return spec, err
		}
		spec.Body = body
	}
	for _, c := range n.Children {
		child, err := toSpec(c, reg)
		if err != nil {
			return spec, err
		}
		spec.Children = append(spec.Children, child)
	}
	return spec, nil
}

package plugin

// Spec declares a plugin and its children for Build.
type Spec struct {
	Tag         string
	Description string
	Body        Body
	Debug       bool
	Benchmark   bool
	Disabled    bool
	Children    []Spec
}

func (s Spec) options() []Option {
	return []Option{
		WithDebug(s.Debug),
		WithBenchmark(s.Benchmark),
		WithEnabled(!s.Disabled),
	}
}

// Build constructs a whole tree from spec. Any failure aborts the definition
// and no tree is returned.
func Build(spec Spec) (*Node, error) {
	opts := append([]Option{WithDescription(spec.Description), WithBody(spec.Body)}, spec.options()...)
	root, err := New(spec.Tag, opts...)
	if err != nil {
		return nil, &DefinitionError{Path: spec.Tag, OriginalError: err}
	}
	if err := declareAll(root, spec.Children); err != nil {
		return nil, err
	}
	return root, nil
}

func declareAll(parent *Node, specs []Spec) error {
	for _, s := range specs {
		child, err := parent.DeclareChild(s.Tag, s.Description, s.Body, s.options()...)
		if err != nil {
			return &DefinitionError{Path: parent.Path() + "." + s.Tag, OriginalError: err}
		}
		if err := declareAll(child, s.Children); err != nil {
			return err
		}
	}
	return nil
}

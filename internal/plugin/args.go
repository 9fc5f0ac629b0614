package plugin

import "github.com/vinayprograms/plugtree/internal/args"

// ApplyArgs merges in into n's arguments and hands every child the entries of
// in that are not addressed to a specific child, merged with the entry scoped
// to that child's tag. Applying the same input twice leaves every node with
// the same arguments as applying it once.
func (n *Node) ApplyArgs(in args.Map) error {
	for k, v := range in {
		n.args[k] = v
	}

	tags := n.ChildTags()
	for _, c := range n.children {
		shared, scoped, err := args.Split(in, tags, c.tag)
		if err != nil {
			return &DefinitionError{Path: c.Path(), OriginalError: err}
		}
		if err := c.ApplyArgs(args.Merge(shared, scoped)); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveArgs returns a copy of n's arguments with child scopes removed,
// i.e. the options n itself acts on.
func (n *Node) EffectiveArgs() args.Map {
	out := make(args.Map, len(n.args))
	for k, v := range n.args {
		if _, isChild := n.index[k]; isChild {
			continue
		}
		out[k] = v
	}
	return out
}

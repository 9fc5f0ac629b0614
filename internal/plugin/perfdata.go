package plugin

import "github.com/vinayprograms/plugtree/internal/perfdata"

// DeepPerfdata flattens n's metrics followed by each child's, depth first in
// declaration order. Entries that render identically to an earlier one are dropped.
func (n *Node) DeepPerfdata() []perfdata.Metric {
	var out []perfdata.Metric
	seen := make(map[string]bool)
	n.collectPerfdata(&out, seen)
	return out
}

func (n *Node) collectPerfdata(out *[]perfdata.Metric, seen map[string]bool) {
	for _, m := range n.perfdata.Metrics() {
		key := m.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		*out = append(*out, m)
	}
	for _, c := range n.children {
		c.collectPerfdata(out, seen)
	}
}

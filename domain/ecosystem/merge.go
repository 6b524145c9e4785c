package ecosystem

// Merge combines independently built graphs into a new one.
//
// The argument order is the global ordering of the merge:
//   - nodes are last-write-wins, so a later graph's node replaces an earlier one
//   - edges are first-write-wins, so the earliest graph's copy of an identity survives
//   - metadata keys are last-write-wins
//
// Node merging is commutative up to metadata; edge merging is not. Callers that
// build in parallel must pass results in a fixed order to get a deterministic graph.
// All nodes are added before any edge, and the result is lenient.
func Merge(graphs ...*Graph) *Graph {
	merged := NewGraph()
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, name := range g.order {
			merged.AddNode(*g.nodes[name])
		}
		for k, v := range g.Metadata {
			merged.Metadata[k] = v
		}
	}
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for i := range g.edges {
			// lenient graph: AddEdge cannot fail
			_, _ = merged.AddEdge(g.edges[i])
		}
	}
	return merged
}

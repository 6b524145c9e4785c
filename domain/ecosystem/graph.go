package ecosystem

import (
	"sort"

	"kenobase/domain/core"
)

// Graph is the directed, weighted multigraph of significant cross-game couplings.
//
// Nodes and edges follow opposite insertion rules and both are load-bearing:
//   - AddNode is last-write-wins by name.
//   - AddEdge is first-write-wins by EdgeKey; a later edge with the same
//     identity but a different statistic, q-value or weight is dropped.
//
// Edge order is insertion order. A Graph is not safe for concurrent mutation;
// build independent graphs and combine them with Merge instead.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	strict   bool
	Metadata map[string]any
}

// GraphOption configures a Graph at construction
type GraphOption func(g *Graph)

// WithStrictNodes makes AddEdge reject edges whose source or target is not a
// known node. Off by default: upstream result files routinely mention games
// that the games section does not list.
func WithStrictNodes() GraphOption {
	return func(g *Graph) { g.strict = true }
}

// NewGraph creates an empty graph
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node),
		order:    make([]string, 0),
		edges:    make([]Edge, 0),
		Metadata: make(map[string]any),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Strict reports whether unknown-node edges are rejected
func (g *Graph) Strict() bool {
	return g.strict
}

// AddNode inserts or replaces the node with n.Name. A replaced node keeps
// its original position in Nodes.
func (g *Graph) AddNode(n Node) {
	node := n
	if _, exists := g.nodes[n.Name]; !exists {
		g.order = append(g.order, n.Name)
	}
	g.nodes[n.Name] = &node
}

// AddEdge appends e unless an edge with the same identity already exists.
// It reports whether e was added. The error is only ever non-nil in strict mode.
func (g *Graph) AddEdge(e Edge) (bool, error) {
	if g.strict {
		_, okSource := g.nodes[e.Source]
		_, okTarget := g.nodes[e.Target]
		if !okSource || !okTarget {
			return false, core.NewUnknownNodeError(e.Source, e.Target)
		}
	}
	if g.HasEdge(e.Key()) {
		return false, nil
	}
	g.edges = append(g.edges, e.clone())
	return true, nil
}

// HasEdge scans for an edge with the given identity. Linear; graphs hold
// hundreds of edges, not millions.
func (g *Graph) HasEdge(key EdgeKey) bool {
	for i := range g.edges {
		if g.edges[i].Key() == key {
			return true
		}
	}
	return false
}

// Node returns the node called name
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in first-insertion order
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, *g.nodes[name])
	}
	return out
}

// Edges returns a copy of the edge list in insertion order
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i := range g.edges {
		out[i] = g.edges[i].clone()
	}
	return out
}

// EdgesFrom returns the edges whose source is name
func (g *Graph) EdgesFrom(name string) []Edge {
	return g.filterEdges(func(e Edge) bool { return e.Source == name })
}

// EdgesTo returns the edges whose target is name
func (g *Graph) EdgesTo(name string) []Edge {
	return g.filterEdges(func(e Edge) bool { return e.Target == name })
}

// EdgesByMethod returns the edges tagged with method
func (g *Graph) EdgesByMethod(method string) []Edge {
	return g.filterEdges(func(e Edge) bool { return e.Method == method })
}

func (g *Graph) filterEdges(keep func(Edge) bool) []Edge {
	out := make([]Edge, 0)
	for i := range g.edges {
		if keep(g.edges[i]) {
			out = append(out, g.edges[i].clone())
		}
	}
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// ControlNodes returns the names of control-flagged nodes, sorted
func (g *Graph) ControlNodes() []string {
	names := make([]string, 0)
	for name, n := range g.nodes {
		if n.IsControl {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ControlEdges returns the edges with a control node at either end
func (g *Graph) ControlEdges() []Edge {
	controls := make(map[string]bool)
	for _, name := range g.ControlNodes() {
		controls[name] = true
	}
	return g.filterEdges(func(e Edge) bool { return controls[e.Source] || controls[e.Target] })
}

// DanglingEdges returns edges that reference a node the graph does not hold.
// Lenient graphs accept such edges; this is how callers find them afterwards.
func (g *Graph) DanglingEdges() []Edge {
	return g.filterEdges(func(e Edge) bool {
		_, okSource := g.nodes[e.Source]
		_, okTarget := g.nodes[e.Target]
		return !okSource || !okTarget
	})
}

// Fingerprint hashes node names and ordered edge identities. Two builds from
// identical inputs and thresholds have the same fingerprint.
func (g *Graph) Fingerprint() core.Hash {
	names := append([]string(nil), g.order...)
	keys := make([]string, len(g.edges))
	for i := range g.edges {
		keys[i] = g.edges[i].Key().String()
	}
	return core.ComputeGraphHash(names, keys)
}

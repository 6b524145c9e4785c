package ecosystem

import "sort"

// Summary is the aggregate view of a graph
type Summary struct {
	NodeCount     int            `json:"node_count"`
	EdgeCount     int            `json:"edge_count"`
	Games         []string       `json:"games"`
	Methods       []string       `json:"methods"`
	EdgesByMethod map[string]int `json:"edges_by_method"`
	ControlGames  []string       `json:"control_games"`
}

// Summary is recomputed on every call; callers may mutate the graph in between.
func (g *Graph) Summary() Summary {
	games := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		games = append(games, name)
	}
	sort.Strings(games)

	byMethod := make(map[string]int)
	for i := range g.edges {
		byMethod[g.edges[i].Method]++
	}
	methods := make([]string, 0, len(byMethod))
	for method := range byMethod {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	return Summary{
		NodeCount:     len(g.nodes),
		EdgeCount:     len(g.edges),
		Games:         games,
		Methods:       methods,
		EdgesByMethod: byMethod,
		ControlGames:  g.ControlNodes(),
	}
}

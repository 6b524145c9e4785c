package ecosystem

import (
	"encoding/json"
	"fmt"

	"kenobase/domain/core"
)

// Core link keys. Every other key on a link is a flattened detail.
const (
	LinkSource    = "source"
	LinkTarget    = "target"
	LinkLagDays   = "lag_days"
	LinkMethod    = "method"
	LinkStatistic = "statistic"
	LinkQValue    = "q_value"
	LinkWeight    = "weight"
)

var coreLinkKeys = map[string]bool{
	LinkSource:    true,
	LinkTarget:    true,
	LinkLagDays:   true,
	LinkMethod:    true,
	LinkStatistic: true,
	LinkQValue:    true,
	LinkWeight:    true,
}

// IsCoreLinkKey reports whether key is one of the seven fixed link fields
func IsCoreLinkKey(key string) bool {
	return coreLinkKeys[key]
}

// WireNode is a node in node-link form; the node name travels as id
type WireNode struct {
	ID        string `json:"id"`
	DrawCount int    `json:"draw_count"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	PoolMax   int    `json:"pool_max"`
	DrawSize  int    `json:"draw_size"`
	IsControl bool   `json:"is_control"`
}

// WireLink is an edge with its details flattened next to the core fields
type WireLink map[string]any

// WireGraph is the node-link JSON document of a Graph.
//
// Details are flattened onto the link, and a loader recovers them as "every key
// that is not a core key". A detail whose key equals a core key therefore cannot
// survive: ToWire writes core fields last, so the detail value is overwritten.
// This is a property of the format shared with other consumers and is kept as is.
type WireGraph struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []WireNode     `json:"nodes"`
	Links      []WireLink     `json:"links"`
}

// ToWire converts the graph to node-link form
func (g *Graph) ToWire() WireGraph {
	meta := make(map[string]any, len(g.Metadata))
	for k, v := range g.Metadata {
		meta[k] = v
	}

	nodes := make([]WireNode, 0, len(g.order))
	for _, n := range g.Nodes() {
		nodes = append(nodes, WireNode{
			ID:        n.Name,
			DrawCount: n.DrawCount,
			StartDate: n.StartDate,
			EndDate:   n.EndDate,
			PoolMax:   n.PoolMax,
			DrawSize:  n.DrawSize,
			IsControl: n.IsControl,
		})
	}

	links := make([]WireLink, 0, len(g.edges))
	for _, e := range g.edges {
		link := make(WireLink, len(e.Details)+len(coreLinkKeys))
		for k, v := range e.Details {
			link[k] = v
		}
		link[LinkSource] = e.Source
		link[LinkTarget] = e.Target
		link[LinkLagDays] = e.LagDays
		link[LinkMethod] = e.Method
		link[LinkStatistic] = e.Statistic
		link[LinkQValue] = e.QValue
		link[LinkWeight] = e.Weight
		links = append(links, link)
	}

	return WireGraph{
		Directed:   true,
		Multigraph: true,
		Graph:      meta,
		Nodes:      nodes,
		Links:      links,
	}
}

// FromWire rebuilds a graph from node-link form. Links are re-added through
// AddEdge, so duplicate identities in the document collapse to the first one.
func FromWire(w WireGraph, opts ...GraphOption) (*Graph, error) {
	g := NewGraph(opts...)
	for k, v := range w.Graph {
		g.Metadata[k] = v
	}

	for i, wn := range w.Nodes {
		if wn.ID == "" {
			return nil, core.NewWireFormatError(fmt.Sprintf("nodes[%d].id", i), "missing")
		}
		g.AddNode(Node{
			Name:      wn.ID,
			DrawCount: wn.DrawCount,
			StartDate: wn.StartDate,
			EndDate:   wn.EndDate,
			PoolMax:   wn.PoolMax,
			DrawSize:  wn.DrawSize,
			IsControl: wn.IsControl,
		})
	}

	for i, link := range w.Links {
		e, err := edgeFromLink(link)
		if err != nil {
			return nil, fmt.Errorf("links[%d]: %w", i, err)
		}
		if _, err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("links[%d]: %w", i, err)
		}
	}

	return g, nil
}

func edgeFromLink(link WireLink) (Edge, error) {
	var e Edge
	var err error

	if e.Source, err = linkString(link, LinkSource); err != nil {
		return Edge{}, err
	}
	if e.Target, err = linkString(link, LinkTarget); err != nil {
		return Edge{}, err
	}
	if e.Method, err = linkString(link, LinkMethod); err != nil {
		return Edge{}, err
	}
	lag, err := linkNumber(link, LinkLagDays)
	if err != nil {
		return Edge{}, err
	}
	e.LagDays = int(lag)
	if e.Statistic, err = linkNumber(link, LinkStatistic); err != nil {
		return Edge{}, err
	}
	if e.QValue, err = linkNumber(link, LinkQValue); err != nil {
		return Edge{}, err
	}
	if e.Weight, err = linkNumber(link, LinkWeight); err != nil {
		return Edge{}, err
	}

	for k, v := range link {
		if coreLinkKeys[k] {
			continue
		}
		if e.Details == nil {
			e.Details = make(map[string]any)
		}
		e.Details[k] = v
	}
	return e, nil
}

func linkString(link WireLink, key string) (string, error) {
	raw, ok := link[key]
	if !ok {
		return "", core.NewWireFormatError(key, "missing")
	}
	s, ok := raw.(string)
	if !ok {
		return "", core.NewWireFormatError(key, fmt.Sprintf("expected string, got %T", raw))
	}
	return s, nil
}

func linkNumber(link WireLink, key string) (float64, error) {
	raw, ok := link[key]
	if !ok {
		return 0, core.NewWireFormatError(key, "missing")
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, core.NewWireFormatError(key, fmt.Sprintf("expected number, got %T", raw))
	}
}

package ecosystem

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kenobase/domain/core"
)

func sampleGraph() *Graph {
	g := NewGraph()
	g.Metadata["generated_at"] = "2024-01-01T00:00:00Z"
	g.Metadata["q_threshold"] = 0.05
	g.Metadata["lift_threshold"] = 1.1
	g.Metadata["config"] = map[string]any{"lags": []any{1.0, 7.0}}

	g.AddNode(Node{Name: "KENO", DrawCount: 1000, StartDate: "2022-01-01", EndDate: "2024-12-31", PoolMax: 70, DrawSize: 20})
	g.AddNode(Node{Name: "EUROJACKPOT", DrawCount: 150, PoolMax: 50, DrawSize: 5, IsControl: true})

	_, _ = g.AddEdge(Edge{
		Source: "KENO", Target: "AUSWAHLWETTE", LagDays: 7, Method: MethodLiftNumber,
		Statistic: 2.41, QValue: 0.01, Weight: 2.41,
		Details: map[string]any{"trigger": "11", "trigger_kind": "number", "target_number": 3.0, "support": 42.0},
	})
	_, _ = g.AddEdge(Edge{
		Source: "A", Target: "B", LagDays: 3, Method: "dtw_euclidean",
		Statistic: -4.0, QValue: 0.02, Weight: 4.0,
		Details: map[string]any{"n_samples": 300.0, "null_mean": -6.1, "null_std": 0.8},
	})
	return g
}

func TestGraph_ToWire(t *testing.T) {
	w := sampleGraph().ToWire()

	assert.True(t, w.Directed)
	assert.True(t, w.Multigraph)
	require.Len(t, w.Nodes, 2)
	assert.Equal(t, "KENO", w.Nodes[0].ID)
	require.Len(t, w.Links, 2)

	link := w.Links[0]
	assert.Equal(t, "KENO", link[LinkSource])
	assert.Equal(t, 7, link[LinkLagDays])
	assert.Equal(t, "11", link["trigger"], "details are flattened")
	_, nested := link["details"]
	assert.False(t, nested)
}

func TestWire_RoundTrip(t *testing.T) {
	g := sampleGraph()

	data, err := json.Marshal(g.ToWire())
	require.NoError(t, err)

	var w WireGraph
	require.NoError(t, json.Unmarshal(data, &w))

	loaded, err := FromWire(w)
	require.NoError(t, err)

	again, err := json.Marshal(loaded.ToWire())
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	assert.Equal(t, g.Fingerprint(), loaded.Fingerprint())
	edges := loaded.Edges()
	assert.Equal(t, map[string]any{"n_samples": 300.0, "null_mean": -6.1, "null_std": 0.8}, edges[1].Details)
}

func TestWire_InMemoryRoundTrip(t *testing.T) {
	g := sampleGraph()
	loaded, err := FromWire(g.ToWire())
	require.NoError(t, err)
	assert.Equal(t, g.ToWire(), loaded.ToWire())
}

func TestWire_DetailKeyCollision(t *testing.T) {
	g := NewGraph()
	_, _ = g.AddEdge(Edge{
		Source: "A", Target: "B", LagDays: 1, Method: "granger",
		Statistic: 2.0, QValue: 0.01, Weight: 2.0,
		Details: map[string]any{"weight": "detail-value", "extra": true},
	})

	link := g.ToWire().Links[0]
	assert.Equal(t, 2.0, link[LinkWeight], "core value overwrites a colliding detail")

	loaded, err := FromWire(g.ToWire())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"extra": true}, loaded.Edges()[0].Details)
}

func TestFromWire_Invalid(t *testing.T) {
	tests := []struct {
		name string
		w    WireGraph
	}{
		{"node without id", WireGraph{Nodes: []WireNode{{ID: ""}}}},
		{"link without source", WireGraph{Links: []WireLink{{"target": "B", "lag_days": 1.0, "method": "m", "statistic": 1.0, "q_value": 0.0, "weight": 1.0}}}},
		{"non-numeric lag", WireGraph{Links: []WireLink{{"source": "A", "target": "B", "lag_days": "seven", "method": "m", "statistic": 1.0, "q_value": 0.0, "weight": 1.0}}}},
		{"missing weight", WireGraph{Links: []WireLink{{"source": "A", "target": "B", "lag_days": 1.0, "method": "m", "statistic": 1.0, "q_value": 0.0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromWire(tt.w)
			assert.True(t, errors.Is(err, core.ErrInvalidWireFormat), "got %v", err)
		})
	}
}

func TestFromWire_DuplicateLinksCollapse(t *testing.T) {
	link := func(stat float64) WireLink {
		return WireLink{"source": "A", "target": "B", "lag_days": 1.0, "method": "granger", "statistic": stat, "q_value": 0.01, "weight": stat}
	}
	g, err := FromWire(WireGraph{Links: []WireLink{link(1.0), link(2.0)}})
	require.NoError(t, err)
	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 1.0, g.Edges()[0].Statistic)
}

package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kenobase/domain/ecosystem"
	apperrors "kenobase/internal/errors"
)

func exportGraph(t *testing.T) *ecosystem.Graph {
	t.Helper()
	catalog := ecosystem.DefaultCatalog()
	g := ecosystem.NewGraph()
	g.AddNode(catalog.NodeFor(ecosystem.GameKeno, 1000, "2022-01-01", "2024-12-31"))
	g.AddNode(catalog.NodeFor(ecosystem.GameEurojackpot, 300, "2022-01-04", "2024-12-27"))
	for _, e := range []ecosystem.Edge{
		{Source: "KENO", Target: "AUSWAHLWETTE", LagDays: 7, Method: ecosystem.MethodLiftNumber,
			Statistic: 2.41, QValue: 0.01, Weight: 2.41, Details: map[string]any{"trigger": "11"}},
		{Source: "EUROJACKPOT", Target: "KENO", LagDays: 1, Method: "granger",
			Statistic: -2.5, QValue: 0.04, Weight: 2.5},
	} {
		_, err := g.AddEdge(e)
		require.NoError(t, err)
	}
	g.Metadata["q_threshold"] = 0.05
	g.Metadata["config"] = map[string]any{"n_permutations": 1000.0}
	return g
}

func TestWriteGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.xlsx")
	require.NoError(t, WriteGraph(path, exportGraph(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetNodes, SheetEdges}, f.GetSheetList())

	nodes, err := f.GetRows(SheetNodes)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, nodeHeaders, nodes[0])
	assert.Equal(t, []string{"KENO", "1000", "2022-01-01", "2024-12-31", "70", "20", "FALSE"}, nodes[1])
	assert.Equal(t, "TRUE", nodes[2][6])

	edges, err := f.GetRows(SheetEdges)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, edgeHeaders, edges[0])
	assert.Equal(t, []string{"KENO", "AUSWAHLWETTE", "7", ecosystem.MethodLiftNumber, "2.41", "0.01", "2.41", `{"trigger":"11"}`}, edges[1])
	assert.Equal(t, "granger", edges[2][3])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	values := make(map[string]string)
	for _, row := range summary[1:] {
		values[row[0]] = row[1]
	}
	assert.Equal(t, "2", values["node_count"])
	assert.Equal(t, "2", values["edge_count"])
	assert.Equal(t, "1", values["edges:granger"])
	assert.Equal(t, "EUROJACKPOT", values["control_game"])
	assert.Equal(t, `{"n_permutations":1000}`, values["meta:config"])
}

func TestWriteGraph_BadPath(t *testing.T) {
	err := WriteGraph(filepath.Join(t.TempDir(), "missing", "dir", "graph.xlsx"), ecosystem.NewGraph())
	assert.Equal(t, apperrors.CodeExportFailed, apperrors.GetCode(err))
}

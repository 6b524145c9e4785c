package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kenobase/adapters/results"
	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	"kenobase/internal"
	apperrors "kenobase/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestService(t *testing.T) (*EcosystemGraphService, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := internal.NewLoggerWithOutput(internal.LogLevelDebug, &buf)
	return NewEcosystemGraphService(results.NewFileReader(), logger), &buf
}

const scenarioGames = `"games": {"KENO": {"draws": 1000, "start": "2022-01-01", "end": "2024-12-31"}}`

func TestBuild_ScenarioA_NodesOnly(t *testing.T) {
	svc, _ := newTestService(t)
	primary := writeFile(t, t.TempDir(), "primary.json", `{`+scenarioGames+`}`)

	g, err := svc.Build(primary, DefaultBuildOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	n, ok := g.Node("KENO")
	require.True(t, ok)
	assert.Equal(t, 70, n.PoolMax)
	assert.Equal(t, 20, n.DrawSize)
	assert.False(t, n.IsControl)
	assert.Equal(t, 1000, n.DrawCount)
}

func TestBuild_ScenarioB_AcceptedNumberTrigger(t *testing.T) {
	svc, _ := newTestService(t)
	primary := writeFile(t, t.TempDir(), "primary.json", `{`+scenarioGames+`,
	  "conditional_lifts": {"significant": {"number_triggers": [
	    {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 7, "trigger": "11",
	     "target_number": 3, "lift": 2.41, "q_value": 0.01, "support": 42}
	  ]}}}`)

	g, err := svc.Build(primary, BuildOptions{Thresholds: ecosystem.Thresholds{Q: 0.05, Lift: 1.1}})
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 1)
	e := edges[0]
	assert.Equal(t, ecosystem.MethodLiftNumber, e.Method)
	assert.Equal(t, 2.41, e.Weight)
	assert.Equal(t, 2.41, e.Statistic)
	assert.Equal(t, 7, e.LagDays)
	assert.Equal(t, map[string]any{
		"trigger_kind":  "number",
		"trigger":       "11",
		"target_number": 3.0,
		"support":       42.0,
	}, e.Details)

	// AUSWAHLWETTE is not in the games section: accepted without validation
	assert.Len(t, g.DanglingEdges(), 1)
}

func TestBuild_ScenarioC_LiftBelowThreshold(t *testing.T) {
	svc, _ := newTestService(t)
	primary := writeFile(t, t.TempDir(), "primary.json", `{`+scenarioGames+`,
	  "conditional_lifts": {"significant": {"number_triggers": [
	    {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 7, "trigger": "11",
	     "target_number": 3, "lift": 1.05, "q_value": 0.01, "support": 42}
	  ]}}}`)

	g, stats, err := svc.BuildWithStats(primary, DefaultBuildOptions())
	require.NoError(t, err)
	require.NotNil(t, g, "an empty graph is a success, not a failure")
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 1, stats.PrimaryRejected)
	assert.Equal(t, StateDone, stats.State)
}

func TestBuild_ScenarioD_DTWSignFlip(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	primary := writeFile(t, dir, "primary.json", `{"games": {}}`)
	alternative := writeFile(t, dir, "alt.json", `{"results": [
	  {"source": "A", "target": "B", "lag": 3, "method": "dtw_euclidean", "statistic": -4.0, "q_value": 0.02}
	]}`)

	opts := DefaultBuildOptions()
	opts.AlternativePath = alternative
	g, err := svc.Build(primary, opts)
	require.NoError(t, err)

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, 4.0, edges[0].Weight)
	assert.Equal(t, -4.0, edges[0].Statistic)
	assert.Equal(t, 3, edges[0].LagDays)
	assert.Equal(t, alternative, g.Metadata["alternative_path"])
}

const fullPrimary = `{
  "games": {
    "KENO": {"draws": 1000, "start": "2022-01-01", "end": "2024-12-31"},
    "EUROJACKPOT": {"draws": 300, "start": "2022-01-04", "end": "2024-12-27"},
    "KENO": {"draws": 1001, "start": "2022-01-01", "end": "2025-01-01"}
  },
  "config": {"n_permutations": 1000},
  "conditional_lifts": {"significant": {
    "ordered_value_triggers": [
      {"source": "KENO", "target": "LOTTO_6AUS49", "lag_days": 2, "trigger": 4, "target_number": 7, "lift": 1.4, "q_value": 0.03, "support": 10}
    ],
    "keno_position_triggers": [
      {"source": "KENO", "target": "LOTTO_6AUS49", "lag_days": 1, "trigger": "pos3", "position": 3, "target_number": 17, "lift": 1.2, "q_value": 0.05, "support": 20},
      {"source": "KENO", "target": "LOTTO_6AUS49", "lag_days": 1, "trigger": "pos4", "position": 4, "target_number": 17, "lift": 1.9, "q_value": 0.01, "support": 25}
    ],
    "number_triggers": [
      {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 7, "trigger": "11", "lift": 2.41, "q_value": 0.01, "support": 42},
      {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 7, "trigger": "12", "lift": 3.5, "q_value": 0.001, "support": 12},
      {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 14, "trigger": "13", "lift": 1.5, "q_value": 0.2, "support": 9},
      {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 21, "trigger": "14", "q_value": 0.01}
    ]
  }}
}`

const fullAlternative = `{"results": [
  {"source": "LOTTO_6AUS49", "target": "KENO", "lag": 1, "method": "granger", "statistic": -2.5, "q_value": 0.04, "n_samples": 500, "null_mean": 0.1, "null_std": 1.0},
  {"source": "EUROJACKPOT", "target": "KENO", "lag": 1, "method": "transfer_entropy", "statistic": 0.08, "q_value": 0.01, "is_control": true, "segment": "2023"},
  {"source": "LOTTO_6AUS49", "target": "KENO", "lag": 1, "method": "mutual_information", "statistic": 0.3, "q_value": 0.5},
  {"source": "LOTTO_6AUS49", "target": "KENO", "lag": 1, "method": "granger", "statistic": 9.9, "q_value": 0.001}
]}`

func TestBuild_FullPipeline(t *testing.T) {
	svc, logs := newTestService(t)
	dir := t.TempDir()
	primary := writeFile(t, dir, "primary.json", fullPrimary)
	alternative := writeFile(t, dir, "alt.json", fullAlternative)

	opts := DefaultBuildOptions()
	opts.AlternativePath = alternative
	g, stats, err := svc.BuildWithStats(primary, opts)
	require.NoError(t, err)

	t.Run("duplicate game name keeps the last entry", func(t *testing.T) {
		assert.Equal(t, 2, g.NodeCount())
		keno, _ := g.Node("KENO")
		assert.Equal(t, 1001, keno.DrawCount)
		ej, _ := g.Node("EUROJACKPOT")
		assert.True(t, ej.IsControl)
	})

	t.Run("edge order is number, position, ordered, alternative", func(t *testing.T) {
		edges := g.Edges()
		methods := make([]string, len(edges))
		for i, e := range edges {
			methods[i] = e.Method
		}
		assert.Equal(t, []string{
			ecosystem.MethodLiftNumber,
			ecosystem.MethodLiftPosition,
			ecosystem.MethodLiftOrdered,
			"granger",
			"transfer_entropy",
		}, methods)
	})

	t.Run("first write wins within a source", func(t *testing.T) {
		edges := g.Edges()
		assert.Equal(t, "11", edges[0].Details["trigger"])
		assert.Equal(t, 2.41, edges[0].Weight)
		assert.Equal(t, "pos3", edges[1].Details["trigger"])
		assert.Equal(t, 3.0, edges[1].Details["position"])
		assert.Equal(t, 2.5, edges[3].Weight)
	})

	t.Run("every edge satisfies the thresholds", func(t *testing.T) {
		for _, e := range g.Edges() {
			assert.LessOrEqual(t, e.QValue, opts.Thresholds.Q)
			if e.Family() == ecosystem.FamilyLift {
				assert.GreaterOrEqual(t, e.Statistic, opts.Thresholds.Lift)
			}
		}
	})

	t.Run("control coupling is kept and logged", func(t *testing.T) {
		control := g.EdgesFrom("EUROJACKPOT")
		require.Len(t, control, 1)
		assert.Equal(t, true, control[0].Details["is_control"])
		assert.Equal(t, "2023", control[0].Details["segment"])
		assert.Contains(t, logs.String(), "[WARN] CONTROL GAME COUPLING: EUROJACKPOT -> KENO")
		assert.Equal(t, 1, stats.ControlSignals)
	})

	t.Run("stats", func(t *testing.T) {
		assert.Equal(t, 3, stats.PrimaryAccepted)
		assert.Equal(t, 1, stats.PrimaryRejected)
		assert.Equal(t, 1, stats.PrimaryIncomplete)
		assert.Equal(t, 2, stats.AlternativeAccepted)
		assert.Equal(t, 1, stats.AlternativeRejected)
		assert.Equal(t, 3, stats.Duplicates)
		assert.True(t, stats.AlternativeLoaded)
	})

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, 0.05, g.Metadata["q_threshold"])
		assert.Equal(t, 1.1, g.Metadata["lift_threshold"])
		assert.Equal(t, map[string]any{"n_permutations": 1000.0}, g.Metadata["config"])
		assert.NotEmpty(t, g.Metadata["generated_at"])
		assert.NotEmpty(t, g.Metadata["build_id"])
		assert.Equal(t, g.Fingerprint().String(), g.Metadata["fingerprint"])
	})
}

func TestBuild_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	primary := writeFile(t, dir, "primary.json", fullPrimary)
	alternative := writeFile(t, dir, "alt.json", fullAlternative)

	opts := DefaultBuildOptions()
	opts.AlternativePath = alternative

	first, err := svc.Build(primary, opts)
	require.NoError(t, err)
	second, err := svc.Build(primary, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
	assert.Equal(t, first.Nodes(), second.Nodes())
	assert.Equal(t, first.Edges(), second.Edges())
}

func TestBuild_PrimaryFailuresAreFatal(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.json")},
		{"invalid json", writeFile(t, dir, "broken.json", `{"games": {`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := svc.Build(tt.path, DefaultBuildOptions())
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, core.ErrPrimaryResults))
			assert.Equal(t, apperrors.CodePrimaryResultsInvalid, apperrors.GetCode(err))
		})
	}
}

func TestBuild_AlternativeFailuresAreNotFatal(t *testing.T) {
	svc, logs := newTestService(t)
	dir := t.TempDir()
	primary := writeFile(t, dir, "primary.json", fullPrimary)

	for _, altPath := range []string{
		filepath.Join(dir, "missing.json"),
		writeFile(t, dir, "broken.json", `{"results": [`),
	} {
		opts := DefaultBuildOptions()
		opts.AlternativePath = altPath

		g, stats, err := svc.BuildWithStats(primary, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, g.EdgeCount())
		assert.False(t, stats.AlternativeLoaded)
		_, hasPath := g.Metadata["alternative_path"]
		assert.False(t, hasPath)
	}
	assert.Contains(t, logs.String(), "continuing with primary results only")
}

func TestBuild_CustomCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	primary := writeFile(t, t.TempDir(), "primary.json", `{"games": {"A": {"draws": 5}, "KENO": {"draws": 9}}}`)

	catalog := ecosystem.GameCatalog{
		Games:    map[string]ecosystem.GameSpec{"A": {PoolMax: 10, DrawSize: 3}},
		Controls: []string{"A"},
	}
	opts := DefaultBuildOptions()
	opts.Catalog = &catalog

	g, err := svc.Build(primary, opts)
	require.NoError(t, err)

	a, _ := g.Node("A")
	assert.Equal(t, 10, a.PoolMax)
	assert.True(t, a.IsControl)

	keno, _ := g.Node("KENO")
	assert.Equal(t, 0, keno.PoolMax, "KENO is unknown to this catalog")
	assert.Equal(t, []string{"A"}, g.Summary().ControlGames)
}

func TestBuild_StrictNodes(t *testing.T) {
	svc, _ := newTestService(t)
	primary := writeFile(t, t.TempDir(), "primary.json", fullPrimary)

	opts := DefaultBuildOptions()
	opts.StrictNodes = true

	g, err := svc.Build(primary, opts)
	require.Error(t, err)
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, core.ErrUnknownNode))
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))
}

func TestBuildAll_MergesInSourceOrder(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	strong := writeFile(t, dir, "strong.json", `{"games": {"KENO": {"draws": 1}},
	  "conditional_lifts": {"significant": {"number_triggers": [
	    {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 7, "trigger": "11", "lift": 3.0, "q_value": 0.01}]}}}`)
	weak := writeFile(t, dir, "weak.json", `{"games": {"KENO": {"draws": 2}},
	  "conditional_lifts": {"significant": {"number_triggers": [
	    {"source": "KENO", "target": "AUSWAHLWETTE", "lag_days": 7, "trigger": "11", "lift": 1.5, "q_value": 0.01}]}}}`)

	opts := DefaultBuildOptions()
	merged, err := svc.BuildAll(context.Background(), []BuildSource{
		{PrimaryPath: strong, Options: opts},
		{PrimaryPath: weak, Options: opts},
	})
	require.NoError(t, err)

	require.Equal(t, 1, merged.EdgeCount())
	assert.Equal(t, 3.0, merged.Edges()[0].Weight, "edges: first source wins")
	keno, _ := merged.Node("KENO")
	assert.Equal(t, 2, keno.DrawCount, "nodes: last source wins")
	assert.Equal(t, 2, merged.Metadata["merged_sources"])

	_, err = svc.BuildAll(context.Background(), []BuildSource{
		{PrimaryPath: strong, Options: opts},
		{PrimaryPath: filepath.Join(dir, "missing.json"), Options: opts},
	})
	assert.True(t, errors.Is(err, core.ErrPrimaryResults))
}

func TestBuildState_String(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "EDGES_FROM_ALTERNATIVE", StateEdgesFromAlternative.String())
	assert.Equal(t, "DONE", StateDone.String())
}

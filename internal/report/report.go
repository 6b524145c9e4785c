// Package report renders human-readable summaries of ecosystem graphs.
package report

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"kenobase/domain/ecosystem"
)

// MethodStats describes the weight distribution of one method's edges
type MethodStats struct {
	Method string  `json:"method"`
	Family string  `json:"family"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// NullScore places an edge's statistic against its permutation null
type NullScore struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	LagDays int     `json:"lag_days"`
	Method  string  `json:"method"`
	Z       float64 `json:"z"`
	// P is the upper-tail normal probability of Z
	P float64 `json:"p"`
}

// Report is the computed content of a graph report
type Report struct {
	GeneratedAt   string            `json:"generated_at"`
	Summary       ecosystem.Summary `json:"summary"`
	Methods       []MethodStats     `json:"methods"`
	ControlAlerts []ecosystem.Edge  `json:"control_alerts"`
	NullScores    []NullScore       `json:"null_scores"`
	DanglingEdges int               `json:"dangling_edges"`
}

// Build computes the report for g
func Build(g *ecosystem.Graph) (*Report, error) {
	r := &Report{
		Summary:       g.Summary(),
		ControlAlerts: g.ControlEdges(),
		NullScores:    make([]NullScore, 0),
		DanglingEdges: len(g.DanglingEdges()),
	}
	r.GeneratedAt, _ = g.Metadata["generated_at"].(string)

	for _, method := range r.Summary.Methods {
		ms, err := methodStats(method, g.EdgesByMethod(method))
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", method, err)
		}
		r.Methods = append(r.Methods, ms)
	}

	for _, e := range g.Edges() {
		if score, ok := nullScore(e); ok {
			r.NullScores = append(r.NullScores, score)
		}
	}
	sort.SliceStable(r.NullScores, func(i, j int) bool {
		return r.NullScores[i].Z > r.NullScores[j].Z
	})

	return r, nil
}

func methodStats(method string, edges []ecosystem.Edge) (MethodStats, error) {
	ms := MethodStats{Method: method, Family: ecosystem.FamilyOf(method).String(), Count: len(edges)}
	if len(edges) == 0 {
		return ms, nil
	}
	weights := make(stats.Float64Data, len(edges))
	for i, e := range edges {
		weights[i] = e.Weight
	}

	var err error
	if ms.Mean, err = weights.Mean(); err != nil {
		return ms, err
	}
	if ms.Median, err = weights.Median(); err != nil {
		return ms, err
	}
	// nearest rank stays defined for one or two samples
	if ms.P90, err = weights.PercentileNearestRank(90); err != nil {
		return ms, err
	}
	if ms.Max, err = weights.Max(); err != nil {
		return ms, err
	}
	return ms, nil
}

// nullScore needs null_mean and a positive null_std in the edge details
func nullScore(e ecosystem.Edge) (NullScore, bool) {
	mean, okMean := e.Details["null_mean"].(float64)
	std, okStd := e.Details["null_std"].(float64)
	if !okMean || !okStd || std <= 0 || math.IsNaN(std) {
		return NullScore{}, false
	}
	z := (e.Statistic - mean) / std
	return NullScore{
		Source:  e.Source,
		Target:  e.Target,
		LagDays: e.LagDays,
		Method:  e.Method,
		Z:       z,
		P:       distuv.UnitNormal.Survival(z),
	}, true
}

// Markdown renders r as a markdown document
func Markdown(r *Report) []byte {
	var b bytes.Buffer

	b.WriteString("# Ecosystem graph report\n\n")
	if r.GeneratedAt != "" {
		fmt.Fprintf(&b, "Generated at %s.\n\n", r.GeneratedAt)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Nodes | Edges | Methods | Dangling edges |\n")
	b.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", r.Summary.NodeCount, r.Summary.EdgeCount, len(r.Summary.Methods), r.DanglingEdges)
	if len(r.Summary.Games) > 0 {
		b.WriteString("Games: ")
		for i, game := range r.Summary.Games {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(game)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("## Control game alerts\n\n")
	if len(r.ControlAlerts) == 0 {
		b.WriteString("No edge touches a control game.\n\n")
	} else {
		fmt.Fprintf(&b, "**%d edge(s) touch a control game.** Control couplings should not be significant; treat them as a false-positive signal for the whole analysis.\n\n", len(r.ControlAlerts))
		b.WriteString("| Source | Target | Lag | Method | Statistic | q |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, e := range r.ControlAlerts {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %.4f | %.4g |\n", e.Source, e.Target, e.LagDays, e.Method, e.Statistic, e.QValue)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Weights by method\n\n")
	if len(r.Methods) == 0 {
		b.WriteString("No edges.\n\n")
	} else {
		b.WriteString("| Method | Family | Edges | Mean | Median | P90 | Max |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, m := range r.Methods {
			fmt.Fprintf(&b, "| %s | %s | %d | %.4f | %.4f | %.4f | %.4f |\n", m.Method, m.Family, m.Count, m.Mean, m.Median, m.P90, m.Max)
		}
		b.WriteString("\n")
	}

	if len(r.NullScores) > 0 {
		b.WriteString("## Permutation null\n\n")
		b.WriteString("| Edge | z | p |\n")
		b.WriteString("|---|---|---|\n")
		for _, s := range r.NullScores {
			fmt.Fprintf(&b, "| %s -> %s (%s, lag %d) | %.3f | %.4g |\n", s.Source, s.Target, s.Method, s.LagDays, s.Z, s.P)
		}
		b.WriteString("\n")
	}

	return b.Bytes()
}

// HTML renders r as a standalone HTML page
func HTML(r *Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(Markdown(r))

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Ecosystem graph report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

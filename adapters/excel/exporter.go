package excel

import (
	"encoding/json"
	"sort"

	"github.com/xuri/excelize/v2"

	"kenobase/domain/ecosystem"
	"kenobase/internal/errors"
)

// Workbook sheet names
const (
	SheetSummary = "Summary"
	SheetNodes   = "Nodes"
	SheetEdges   = "Edges"
)

var (
	nodeHeaders = []string{"name", "draw_count", "start_date", "end_date", "pool_max", "draw_size", "is_control"}
	edgeHeaders = []string{"source", "target", "lag_days", "method", "statistic", "q_value", "weight", "details"}
)

// WriteGraph exports g as a three-sheet workbook. Edges touching a control
// game are highlighted.
func WriteGraph(path string, g *ecosystem.Graph) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.ExportFailed(path, err)
	}
	for _, sheet := range []string{SheetNodes, SheetEdges} {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.ExportFailed(path, err)
		}
	}

	if err := writeSummary(f, g); err != nil {
		return errors.ExportFailed(path, err)
	}
	if err := writeNodes(f, g); err != nil {
		return errors.ExportFailed(path, err)
	}
	if err := writeEdges(f, g); err != nil {
		return errors.ExportFailed(path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ExportFailed(path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, g *ecosystem.Graph) error {
	summary := g.Summary()
	rows := [][]interface{}{
		{"node_count", summary.NodeCount},
		{"edge_count", summary.EdgeCount},
	}
	for _, method := range summary.Methods {
		rows = append(rows, []interface{}{"edges:" + method, summary.EdgesByMethod[method]})
	}
	for _, game := range summary.ControlGames {
		rows = append(rows, []interface{}{"control_game", game})
	}

	keys := make([]string, 0, len(g.Metadata))
	for k := range g.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []interface{}{"meta:" + k, cellValue(g.Metadata[k])})
	}

	return writeRows(f, SheetSummary, []string{"key", "value"}, rows, nil)
}

func writeNodes(f *excelize.File, g *ecosystem.Graph) error {
	nodes := g.Nodes()
	rows := make([][]interface{}, len(nodes))
	for i, n := range nodes {
		rows[i] = []interface{}{n.Name, n.DrawCount, n.StartDate, n.EndDate, n.PoolMax, n.DrawSize, n.IsControl}
	}
	return writeRows(f, SheetNodes, nodeHeaders, rows, nil)
}

func writeEdges(f *excelize.File, g *ecosystem.Graph) error {
	controls := make(map[string]bool)
	for _, name := range g.ControlNodes() {
		controls[name] = true
	}

	edges := g.Edges()
	rows := make([][]interface{}, len(edges))
	highlight := make([]bool, len(edges))
	for i, e := range edges {
		details := ""
		if len(e.Details) > 0 {
			raw, err := json.Marshal(e.Details)
			if err != nil {
				return err
			}
			details = string(raw)
		}
		rows[i] = []interface{}{e.Source, e.Target, e.LagDays, e.Method, e.Statistic, e.QValue, e.Weight, details}
		highlight[i] = controls[e.Source] || controls[e.Target]
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FDE2E1"}},
	})
	if err != nil {
		return err
	}
	return writeRows(f, SheetEdges, edgeHeaders, rows, func(rowIdx int) (int, bool) {
		return style, highlight[rowIdx]
	})
}

// writeRows writes a header row and data rows. styleFor, when set, picks a
// style for data row i.
func writeRows(f *excelize.File, sheet string, headers []string, rows [][]interface{}, styleFor func(i int) (int, bool)) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		if styleFor == nil {
			continue
		}
		if style, ok := styleFor(r); ok {
			last, _ := excelize.CoordinatesToCellName(len(headers), r+2)
			if err := f.SetCellStyle(sheet, cell, last, style); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue flattens metadata values excelize cannot write directly
func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, int, int64, float64:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

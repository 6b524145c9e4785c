package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	"kenobase/internal/errors"
)

// AnalysisName tags exported graph documents
const AnalysisName = "ecosystem_graph"

// GraphDocument is the exported form of a built graph
type GraphDocument struct {
	Analysis    string              `json:"analysis"`
	GeneratedAt string              `json:"generated_at"`
	Summary     ecosystem.Summary   `json:"summary"`
	Graph       ecosystem.WireGraph `json:"graph"`
}

// NewGraphDocument wraps g for export. generated_at is taken from the graph
// metadata when the builder stamped it.
func NewGraphDocument(g *ecosystem.Graph) GraphDocument {
	generatedAt, ok := g.Metadata["generated_at"].(string)
	if !ok || generatedAt == "" {
		generatedAt = core.Now().ISO()
	}
	return GraphDocument{
		Analysis:    AnalysisName,
		GeneratedAt: generatedAt,
		Summary:     g.Summary(),
		Graph:       g.ToWire(),
	}
}

// EncodeGraphDocument writes g as an indented JSON document
func EncodeGraphDocument(w io.Writer, g *ecosystem.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewGraphDocument(g))
}

// SaveGraphDocument writes g to path, creating parent directories
func SaveGraphDocument(path string, g *ecosystem.Graph) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.ExportFailed(path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.ExportFailed(path, err)
	}
	defer f.Close()

	if err := EncodeGraphDocument(f, g); err != nil {
		return errors.ExportFailed(path, err)
	}
	return f.Close()
}

// LoadGraphDocument reads a graph from path
func LoadGraphDocument(path string, opts ...ecosystem.GraphOption) (*ecosystem.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WireFormatInvalid(path, err)
	}
	g, err := DecodeGraphDocument(data, opts...)
	if err != nil {
		return nil, errors.WireFormatInvalid(path, err)
	}
	return g, nil
}

// DecodeGraphDocument accepts either a full graph document or a bare
// node-link graph
func DecodeGraphDocument(data []byte, opts ...ecosystem.GraphOption) (*ecosystem.Graph, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", core.ErrInvalidWireFormat)
	}

	var raw []byte
	switch {
	case gjson.GetBytes(data, "graph.links").Exists():
		raw = []byte(gjson.GetBytes(data, "graph").Raw)
	case gjson.GetBytes(data, "links").Exists():
		raw = data
	default:
		return nil, fmt.Errorf("%w: no links found", core.ErrInvalidWireFormat)
	}

	var wire ecosystem.WireGraph
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidWireFormat, err)
	}
	return ecosystem.FromWire(wire, opts...)
}

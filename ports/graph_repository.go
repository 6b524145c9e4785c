package ports

import (
	"context"

	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
)

// GraphRecord describes one persisted graph build
type GraphRecord struct {
	ID          core.BuildID `db:"id" json:"id"`
	GeneratedAt string       `db:"generated_at" json:"generated_at"`
	Fingerprint string       `db:"fingerprint" json:"fingerprint"`
	NodeCount   int          `db:"node_count" json:"node_count"`
	EdgeCount   int          `db:"edge_count" json:"edge_count"`
}

// GraphRepository persists built ecosystem graphs
type GraphRepository interface {
	SaveGraph(ctx context.Context, id core.BuildID, g *ecosystem.Graph) error
	GetGraph(ctx context.Context, id core.BuildID) (*ecosystem.Graph, error)
	ListGraphs(ctx context.Context, limit int) ([]GraphRecord, error)
	DeleteGraph(ctx context.Context, id core.BuildID) error
}

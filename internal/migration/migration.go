package migration

import (
	"context"

	"github.com/jmoiron/sqlx"

	"kenobase/internal"
	"kenobase/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the graph repository schema. Statements stay within
// the subset of SQL shared by PostgreSQL and SQLite.
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.0.0",
		logger:  logger,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Safe to call on
// every startup.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createGraphsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create ecosystem_graphs table"))
	}

	if err := r.createNodesTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create ecosystem_nodes table"))
	}

	if err := r.createEdgesTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create ecosystem_edges table"))
	}

	r.createIndexes(ctx, db)
	r.logger.Debug("graph schema %s ready (%s)", r.version, db.DriverName())
	return nil
}

func (r *MigrationRunner) createGraphsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ecosystem_graphs (
			id VARCHAR(64) PRIMARY KEY,
			generated_at VARCHAR(64) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			node_count INTEGER NOT NULL DEFAULT 0,
			edge_count INTEGER NOT NULL DEFAULT 0,
			metadata TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func (r *MigrationRunner) createNodesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ecosystem_nodes (
			graph_id VARCHAR(64) NOT NULL REFERENCES ecosystem_graphs(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			name VARCHAR(100) NOT NULL,
			draw_count INTEGER NOT NULL DEFAULT 0,
			start_date VARCHAR(32),
			end_date VARCHAR(32),
			pool_max INTEGER NOT NULL DEFAULT 0,
			draw_size INTEGER NOT NULL DEFAULT 0,
			is_control BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (graph_id, name)
		)
	`)
	return err
}

func (r *MigrationRunner) createEdgesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ecosystem_edges (
			graph_id VARCHAR(64) NOT NULL REFERENCES ecosystem_graphs(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			source VARCHAR(100) NOT NULL,
			target VARCHAR(100) NOT NULL,
			lag_days INTEGER NOT NULL,
			method VARCHAR(100) NOT NULL,
			statistic DOUBLE PRECISION NOT NULL,
			q_value DOUBLE PRECISION NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			details TEXT,
			PRIMARY KEY (graph_id, source, target, lag_days, method)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_graphs_generated_at ON ecosystem_graphs(generated_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_graphs_fingerprint ON ecosystem_graphs(fingerprint)",
		"CREATE INDEX IF NOT EXISTS idx_edges_graph_ordinal ON ecosystem_edges(graph_id, ordinal)",
		"CREATE INDEX IF NOT EXISTS idx_edges_graph_method ON ecosystem_edges(graph_id, method)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			r.logger.Warn("failed to create index: %v", err)
		}
	}
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	"kenobase/internal/errors"
	"kenobase/ports"
)

// GraphRepositoryImpl implements GraphRepository on PostgreSQL or SQLite
type GraphRepositoryImpl struct {
	db *sqlx.DB
}

// NewGraphRepository creates a new graph repository
func NewGraphRepository(db *sqlx.DB) ports.GraphRepository {
	return &GraphRepositoryImpl{db: db}
}

type graphRow struct {
	ports.GraphRecord
	Metadata sql.NullString `db:"metadata"`
}

type nodeRow struct {
	Name      string         `db:"name"`
	DrawCount int            `db:"draw_count"`
	StartDate sql.NullString `db:"start_date"`
	EndDate   sql.NullString `db:"end_date"`
	PoolMax   int            `db:"pool_max"`
	DrawSize  int            `db:"draw_size"`
	IsControl bool           `db:"is_control"`
}

type edgeRow struct {
	Source    string         `db:"source"`
	Target    string         `db:"target"`
	LagDays   int            `db:"lag_days"`
	Method    string         `db:"method"`
	Statistic float64        `db:"statistic"`
	QValue    float64        `db:"q_value"`
	Weight    float64        `db:"weight"`
	Details   sql.NullString `db:"details"`
}

// SaveGraph stores g under id, replacing any graph already stored there.
// Node and edge order is preserved.
func (r *GraphRepositoryImpl) SaveGraph(ctx context.Context, id core.BuildID, g *ecosystem.Graph) error {
	metadata, err := json.Marshal(g.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to encode graph metadata")
	}
	generatedAt, _ := g.Metadata["generated_at"].(string)
	if generatedAt == "" {
		generatedAt = core.Now().ISO()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := deleteGraphRows(ctx, tx, id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO ecosystem_graphs (id, generated_at, fingerprint, node_count, edge_count, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`), id.String(), generatedAt, g.Fingerprint().String(), g.NodeCount(), g.EdgeCount(), string(metadata))
	if err != nil {
		return dbError(err, "failed to insert graph")
	}

	insertNode := tx.Rebind(`
		INSERT INTO ecosystem_nodes (graph_id, ordinal, name, draw_count, start_date, end_date, pool_max, draw_size, is_control)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, n := range g.Nodes() {
		_, err := tx.ExecContext(ctx, insertNode, id.String(), i, n.Name, n.DrawCount,
			nullString(n.StartDate), nullString(n.EndDate), n.PoolMax, n.DrawSize, n.IsControl)
		if err != nil {
			return dbError(err, fmt.Sprintf("failed to insert node %s", n.Name))
		}
	}

	insertEdge := tx.Rebind(`
		INSERT INTO ecosystem_edges (graph_id, ordinal, source, target, lag_days, method, statistic, q_value, weight, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for i, e := range g.Edges() {
		details := sql.NullString{}
		if len(e.Details) > 0 {
			raw, err := json.Marshal(e.Details)
			if err != nil {
				return errors.Wrapf(err, "failed to encode details of edge %s", e.Key())
			}
			details = sql.NullString{String: string(raw), Valid: true}
		}
		_, err := tx.ExecContext(ctx, insertEdge, id.String(), i, e.Source, e.Target, e.LagDays,
			e.Method, e.Statistic, e.QValue, e.Weight, details)
		if err != nil {
			return dbError(err, fmt.Sprintf("failed to insert edge %s", e.Key()))
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit graph")
	}
	return nil
}

// GetGraph loads a stored graph. The result is lenient: stored graphs may
// carry edges to games outside their node set.
func (r *GraphRepositoryImpl) GetGraph(ctx context.Context, id core.BuildID) (*ecosystem.Graph, error) {
	var row graphRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, generated_at, fingerprint, node_count, edge_count, metadata
		FROM ecosystem_graphs
		WHERE id = ?
	`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrGraphNotFound, id)
	}
	if err != nil {
		return nil, dbError(err, "failed to get graph")
	}

	g := ecosystem.NewGraph()
	if row.Metadata.Valid && row.Metadata.String != "" {
		if err := json.Unmarshal([]byte(row.Metadata.String), &g.Metadata); err != nil {
			return nil, errors.Wrapf(err, "graph %s has corrupt metadata", id)
		}
	}

	var nodes []nodeRow
	err = r.db.SelectContext(ctx, &nodes, r.db.Rebind(`
		SELECT name, draw_count, start_date, end_date, pool_max, draw_size, is_control
		FROM ecosystem_nodes
		WHERE graph_id = ?
		ORDER BY ordinal
	`), id.String())
	if err != nil {
		return nil, dbError(err, "failed to get graph nodes")
	}
	for _, n := range nodes {
		g.AddNode(ecosystem.Node{
			Name:      n.Name,
			DrawCount: n.DrawCount,
			StartDate: n.StartDate.String,
			EndDate:   n.EndDate.String,
			PoolMax:   n.PoolMax,
			DrawSize:  n.DrawSize,
			IsControl: n.IsControl,
		})
	}

	var edges []edgeRow
	err = r.db.SelectContext(ctx, &edges, r.db.Rebind(`
		SELECT source, target, lag_days, method, statistic, q_value, weight, details
		FROM ecosystem_edges
		WHERE graph_id = ?
		ORDER BY ordinal
	`), id.String())
	if err != nil {
		return nil, dbError(err, "failed to get graph edges")
	}
	for _, e := range edges {
		edge := ecosystem.Edge{
			Source:    e.Source,
			Target:    e.Target,
			LagDays:   e.LagDays,
			Method:    e.Method,
			Statistic: e.Statistic,
			QValue:    e.QValue,
			Weight:    e.Weight,
		}
		if e.Details.Valid && e.Details.String != "" {
			if err := json.Unmarshal([]byte(e.Details.String), &edge.Details); err != nil {
				return nil, errors.Wrapf(err, "edge %s has corrupt details", edge.Key())
			}
		}
		if _, err := g.AddEdge(edge); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// ListGraphs returns stored graphs, newest first
func (r *GraphRepositoryImpl) ListGraphs(ctx context.Context, limit int) ([]ports.GraphRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	records := make([]ports.GraphRecord, 0)
	err := r.db.SelectContext(ctx, &records, r.db.Rebind(`
		SELECT id, generated_at, fingerprint, node_count, edge_count
		FROM ecosystem_graphs
		ORDER BY generated_at DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, dbError(err, "failed to list graphs")
	}
	return records, nil
}

// DeleteGraph removes a stored graph with its nodes and edges
func (r *GraphRepositoryImpl) DeleteGraph(ctx context.Context, id core.BuildID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM ecosystem_graphs WHERE id = ?`), id.String())
	if err != nil {
		return dbError(err, "failed to look up graph")
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", core.ErrGraphNotFound, id)
	}

	if err := deleteGraphRows(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit delete")
	}
	return nil
}

// deleteGraphRows deletes children explicitly; SQLite only cascades with
// foreign_keys enabled.
func deleteGraphRows(ctx context.Context, tx *sqlx.Tx, id core.BuildID) error {
	for _, table := range []string{"ecosystem_edges", "ecosystem_nodes"} {
		query := tx.Rebind(fmt.Sprintf("DELETE FROM %s WHERE graph_id = ?", table))
		if _, err := tx.ExecContext(ctx, query, id.String()); err != nil {
			return dbError(err, "failed to delete from "+table)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM ecosystem_graphs WHERE id = ?`), id.String()); err != nil {
		return dbError(err, "failed to delete graph")
	}
	return nil
}

func dbError(err error, message string) error {
	return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, message))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

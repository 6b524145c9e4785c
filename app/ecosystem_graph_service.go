package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	"kenobase/internal/errors"
	"kenobase/ports"
)

// Logger is the logging surface the builder needs
type Logger interface {
	Warn(format string, args ...interface{})
	Info(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// BuildState tracks the builder's progress through one build
type BuildState int

const (
	StateInit BuildState = iota
	StatePrimaryLoaded
	StateNodesPopulated
	StateEdgesFromPrimary
	StateEdgesFromAlternative
	StateDone
)

func (s BuildState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StatePrimaryLoaded:
		return "PRIMARY_LOADED"
	case StateNodesPopulated:
		return "NODES_POPULATED"
	case StateEdgesFromPrimary:
		return "EDGES_FROM_PRIMARY"
	case StateEdgesFromAlternative:
		return "EDGES_FROM_ALTERNATIVE"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("BuildState(%d)", int(s))
	}
}

// BuildOptions configures one graph build
type BuildOptions struct {
	Thresholds ecosystem.Thresholds
	// AlternativePath is optional; empty means primary-only
	AlternativePath string
	// Catalog defaults to ecosystem.DefaultCatalog when nil
	Catalog *ecosystem.GameCatalog
	// StrictNodes rejects edges naming games outside the games section.
	// A rejected edge fails the build.
	StrictNodes bool
}

// DefaultBuildOptions returns q=0.05, lift=1.1, default catalog, lenient nodes
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Thresholds: ecosystem.DefaultThresholds()}
}

// BuildStats counts what happened to the raw records of one build
type BuildStats struct {
	State               BuildState `json:"-"`
	PrimaryAccepted     int        `json:"primary_accepted"`
	PrimaryRejected     int        `json:"primary_rejected"`
	PrimaryIncomplete   int        `json:"primary_incomplete"`
	AlternativeLoaded   bool       `json:"alternative_loaded"`
	AlternativeAccepted int        `json:"alternative_accepted"`
	AlternativeRejected int        `json:"alternative_rejected"`
	Duplicates          int        `json:"duplicates"`
	ControlSignals      int        `json:"control_signals"`
}

// EcosystemGraphService builds ecosystem graphs from coupling-results files
type EcosystemGraphService struct {
	reader ports.ResultsReader
	logger Logger
	now    func() time.Time
}

// NewEcosystemGraphService creates a new graph builder
func NewEcosystemGraphService(reader ports.ResultsReader, logger Logger) *EcosystemGraphService {
	return &EcosystemGraphService{
		reader: reader,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Build builds one graph. The only error paths are an unusable primary file
// and, in strict mode, an edge naming an unknown game; an empty edge list is
// a successful build.
func (s *EcosystemGraphService) Build(primaryPath string, opts BuildOptions) (*ecosystem.Graph, error) {
	g, _, err := s.BuildWithStats(primaryPath, opts)
	return g, err
}

// BuildWithStats is Build plus per-record accounting
func (s *EcosystemGraphService) BuildWithStats(primaryPath string, opts BuildOptions) (*ecosystem.Graph, *BuildStats, error) {
	stats := &BuildStats{State: StateInit}
	catalog := ecosystem.DefaultCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}
	var graphOpts []ecosystem.GraphOption
	if opts.StrictNodes {
		graphOpts = append(graphOpts, ecosystem.WithStrictNodes())
	}
	g := ecosystem.NewGraph(graphOpts...)

	primary, err := s.reader.ReadPrimary(primaryPath)
	if err != nil {
		return nil, nil, errors.PrimaryResultsInvalid(primaryPath, fmt.Errorf("%w: %w", core.ErrPrimaryResults, err))
	}
	s.advance(stats, StatePrimaryLoaded, primaryPath)

	for _, game := range primary.Games {
		if _, known := catalog.Lookup(game.Name); !known {
			s.logger.Debug("game %s not in catalog, pool metadata left at zero", game.Name)
		}
		g.AddNode(catalog.NodeFor(game.Name, game.Draws, game.Start, game.End))
	}
	s.advance(stats, StateNodesPopulated, primaryPath)

	for _, category := range ecosystem.TriggerCategories {
		for _, record := range primary.Triggers[category.Key] {
			if record.Lift == nil || record.QValue == nil {
				stats.PrimaryIncomplete++
				s.logger.Warn("skipping %s record %s -> %s without lift or q_value", category.Key, record.Source, record.Target)
				continue
			}
			lift, q := *record.Lift, *record.QValue
			if !opts.Thresholds.AcceptLift(q, lift) {
				stats.PrimaryRejected++
				continue
			}
			edge := ecosystem.Edge{
				Source:    record.Source,
				Target:    record.Target,
				LagDays:   roundLag(record.LagDays),
				Method:    category.Method,
				Statistic: lift,
				QValue:    q,
				Weight:    ecosystem.EdgeWeight(category.Method, lift),
				Details:   triggerDetails(category, record),
			}
			if catalog.IsControl(edge.Source) || catalog.IsControl(edge.Target) {
				stats.ControlSignals++
				s.logger.Warn("CONTROL GAME COUPLING: %s -> %s lag=%d method=%s lift=%.4f q=%.4g",
					edge.Source, edge.Target, edge.LagDays, edge.Method, lift, q)
			}
			added, err := g.AddEdge(edge)
			if err != nil {
				return nil, nil, errors.WithCode(errors.CodeValidationError, err)
			}
			if !added {
				stats.Duplicates++
				continue
			}
			stats.PrimaryAccepted++
		}
	}
	s.advance(stats, StateEdgesFromPrimary, primaryPath)

	if opts.AlternativePath != "" {
		if err := s.addAlternativeEdges(g, opts, stats); err != nil {
			return nil, nil, err
		}
	}

	g.Metadata["generated_at"] = core.NewTimestamp(s.now()).ISO()
	g.Metadata["build_id"] = core.NewBuildID().String()
	g.Metadata["q_threshold"] = opts.Thresholds.Q
	g.Metadata["lift_threshold"] = opts.Thresholds.Lift
	g.Metadata["primary_path"] = primaryPath
	if stats.AlternativeLoaded {
		g.Metadata["alternative_path"] = opts.AlternativePath
	}
	if primary.Config != nil {
		g.Metadata["config"] = primary.Config
	}
	g.Metadata["fingerprint"] = g.Fingerprint().String()
	s.advance(stats, StateDone, primaryPath)

	s.logger.Info("ecosystem graph built from %s: %d nodes, %d edges (%d lift, %d alternative)",
		primaryPath, g.NodeCount(), g.EdgeCount(), stats.PrimaryAccepted, stats.AlternativeAccepted)
	return g, stats, nil
}

// addAlternativeEdges never fails on input problems: a missing or unreadable
// alternative file is logged and the build continues primary-only.
func (s *EcosystemGraphService) addAlternativeEdges(g *ecosystem.Graph, opts BuildOptions, stats *BuildStats) error {
	alternative, err := s.reader.ReadAlternative(opts.AlternativePath)
	if err != nil {
		s.logger.Warn("alternative results %s unavailable, continuing with primary results only: %v", opts.AlternativePath, err)
		return nil
	}
	stats.AlternativeLoaded = true

	for _, record := range alternative.Results {
		if record.Statistic == nil || record.QValue == nil {
			stats.AlternativeRejected++
			s.logger.Debug("skipping %s record %s -> %s without statistic or q_value", record.Method, record.Source, record.Target)
			continue
		}
		statistic, q := *record.Statistic, *record.QValue
		if !opts.Thresholds.AcceptAlternative(q) {
			stats.AlternativeRejected++
			continue
		}
		edge := ecosystem.Edge{
			Source:    record.Source,
			Target:    record.Target,
			LagDays:   roundLag(record.Lag),
			Method:    record.Method,
			Statistic: statistic,
			QValue:    q,
			Weight:    ecosystem.EdgeWeight(record.Method, statistic),
			Details:   alternativeDetails(record),
		}
		if record.IsControl {
			stats.ControlSignals++
			s.logger.Warn("CONTROL GAME COUPLING: %s -> %s lag=%d method=%s statistic=%.4f q=%.4g (control coupling should not be significant)",
				edge.Source, edge.Target, edge.LagDays, edge.Method, statistic, q)
		}
		added, err := g.AddEdge(edge)
		if err != nil {
			return errors.WithCode(errors.CodeValidationError, err)
		}
		if !added {
			stats.Duplicates++
			continue
		}
		stats.AlternativeAccepted++
	}

	s.advance(stats, StateEdgesFromAlternative, opts.AlternativePath)
	return nil
}

func (s *EcosystemGraphService) advance(stats *BuildStats, next BuildState, path string) {
	s.logger.Debug("graph build %s: %s -> %s", path, stats.State, next)
	stats.State = next
}

// BuildSource is one result set for BuildAll
type BuildSource struct {
	PrimaryPath string
	Options     BuildOptions
}

// BuildAll builds one graph per source concurrently and merges them in slice
// order, which makes the slice order the merge's global ordering.
func (s *EcosystemGraphService) BuildAll(ctx context.Context, sources []BuildSource) (*ecosystem.Graph, error) {
	graphs := make([]*ecosystem.Graph, len(sources))
	eg, ctx := errgroup.WithContext(ctx)

	for i, source := range sources {
		i, source := i, source
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := s.Build(source.PrimaryPath, source.Options)
			if err != nil {
				return errors.Wrapf(err, "build %d of %d", i+1, len(sources))
			}
			graphs[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := ecosystem.Merge(graphs...)
	merged.Metadata["merged_sources"] = len(sources)
	merged.Metadata["fingerprint"] = merged.Fingerprint().String()
	return merged, nil
}

func roundLag(lag float64) int {
	return int(math.Round(lag))
}

func triggerDetails(category ecosystem.TriggerCategory, record ecosystem.TriggerRecord) map[string]any {
	details := map[string]any{"trigger_kind": category.Kind}
	if record.Trigger != nil {
		details["trigger"] = record.Trigger
	}
	putFloat(details, "target_number", record.TargetNumber)
	putFloat(details, "position", record.Position)
	putFloat(details, "support", record.Support)
	putFloat(details, "base_rate", record.BaseRate)
	putFloat(details, "conditional_rate", record.ConditionalRate)
	return details
}

func alternativeDetails(record ecosystem.AlternativeRecord) map[string]any {
	details := make(map[string]any)
	putFloat(details, "n_samples", record.NSamples)
	putFloat(details, "null_mean", record.NullMean)
	putFloat(details, "null_std", record.NullStd)
	if record.Segment != nil {
		details["segment"] = record.Segment
	}
	if record.IsControl {
		details["is_control"] = true
	}
	return details
}

func putFloat(details map[string]any, key string, value *float64) {
	if value != nil {
		details[key] = *value
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kenobase/adapters/catalog"
	"kenobase/adapters/excel"
	"kenobase/adapters/postgres"
	"kenobase/adapters/results"
	"kenobase/app"
	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	"kenobase/internal"
	"kenobase/internal/config"
	"kenobase/internal/report"
	"kenobase/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := internal.NewLogger(internal.ParseLevel(cfg.Logging.Level))

	rootCmd := &cobra.Command{
		Use:          "kenobase",
		Short:        "Build and inspect the lottery ecosystem coupling graph",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newBuildCmd(cfg, logger),
		newSummaryCmd(),
		newReportCmd(cfg),
		newExportXLSXCmd(),
		newPersistCmd(cfg, logger),
		newLoadCmd(cfg, logger),
		newListCmd(cfg, logger),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBuildCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var primaries []string
	var alternative, catalogFile, out, xlsx string
	var q, lift float64
	var strict bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the ecosystem graph from coupling results",
		Long: `Build the ecosystem graph from a primary conditional-lift results file and an
optional alternative-methods results file.

Repeat --primary to build several result sets concurrently and merge them; the
first --primary wins when two sets report the same edge.

Example: kenobase build --primary results/ecosystem_coupling.json --alternative results/alt.json --q 0.05 --lift 1.1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := catalog.LoadFile(catalogFile)
			if err != nil {
				return err
			}
			opts := app.BuildOptions{
				Thresholds:      ecosystem.Thresholds{Q: q, Lift: lift},
				AlternativePath: alternative,
				Catalog:         games,
				StrictNodes:     strict,
			}
			svc := app.NewEcosystemGraphService(results.NewFileReader(), logger)

			var g *ecosystem.Graph
			if len(primaries) == 1 {
				g, err = svc.Build(primaries[0], opts)
			} else {
				sources := make([]app.BuildSource, len(primaries))
				for i, p := range primaries {
					sources[i] = app.BuildSource{PrimaryPath: p, Options: opts}
				}
				g, err = svc.BuildAll(cmd.Context(), sources)
			}
			if err != nil {
				return err
			}

			if err := app.SaveGraphDocument(out, g); err != nil {
				return err
			}
			logger.Info("graph written to %s", out)

			if xlsx != "" {
				if err := excel.WriteGraph(xlsx, g); err != nil {
					return err
				}
				logger.Info("workbook written to %s", xlsx)
			}
			return printJSON(cmd.OutOrStdout(), g.Summary())
		},
	}

	cmd.Flags().StringSliceVar(&primaries, "primary", []string{cfg.Build.PrimaryPath}, "Primary conditional-lift results file (repeatable)")
	cmd.Flags().StringVar(&alternative, "alternative", cfg.Build.AlternativePath, "Alternative-methods results file (optional)")
	cmd.Flags().Float64Var(&q, "q", cfg.Build.QThreshold, "Maximum q-value for an edge")
	cmd.Flags().Float64Var(&lift, "lift", cfg.Build.LiftThreshold, "Minimum lift for a conditional-lift edge")
	cmd.Flags().StringVar(&catalogFile, "catalog", cfg.Build.CatalogFile, "YAML game catalog (default: built-in catalog)")
	cmd.Flags().BoolVar(&strict, "strict", cfg.Build.StrictNodes, "Fail when an edge names a game outside the games section")
	cmd.Flags().StringVar(&out, "out", cfg.Output.GraphPath, "Graph document output path")
	cmd.Flags().StringVar(&xlsx, "xlsx", cfg.Output.WorkbookPath, "Also export an xlsx workbook to this path")

	return cmd
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [graph-document]",
		Short: "Print the summary of a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.LoadGraphDocument(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), g.Summary())
		},
	}
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	var asHTML bool
	var out string

	cmd := &cobra.Command{
		Use:   "report [graph-document]",
		Short: "Render a markdown or HTML report of a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.LoadGraphDocument(args[0])
			if err != nil {
				return err
			}
			r, err := report.Build(g)
			if err != nil {
				return err
			}

			content := report.Markdown(r)
			if asHTML {
				content = report.HTML(r)
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			return os.WriteFile(out, content, 0o644)
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	cmd.Flags().StringVar(&out, "out", cfg.Output.ReportPath, "Output path (default: stdout)")

	return cmd
}

func newExportXLSXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-xlsx [graph-document] [workbook]",
		Short: "Export a graph document as an xlsx workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.LoadGraphDocument(args[0])
			if err != nil {
				return err
			}
			return excel.WriteGraph(args[1], g)
		},
	}
}

type dbFlags struct {
	driver string
	dsn    string
}

func (f *dbFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.driver, "driver", cfg.Database.Driver, "Database driver (postgres or sqlite)")
	cmd.Flags().StringVar(&f.dsn, "dsn", cfg.Database.URL, "Database connection string")
}

func (f *dbFlags) withRepository(ctx context.Context, logger *internal.Logger, fn func(repo ports.GraphRepository) error) error {
	db, err := postgres.Open(ctx, f.driver, f.dsn, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(postgres.NewGraphRepository(db))
}

func newPersistCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var db dbFlags

	cmd := &cobra.Command{
		Use:   "persist [graph-document]",
		Short: "Store a graph document in the database",
		Long: `Store a graph document in the database under its build_id (a new ID when
the document has none). Storing the same build again replaces it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := app.LoadGraphDocument(args[0])
			if err != nil {
				return err
			}
			id := core.NewBuildID()
			if raw, ok := g.Metadata["build_id"].(string); ok {
				if parsed, err := core.ParseBuildID(raw); err == nil {
					id = parsed
				}
			}

			return db.withRepository(cmd.Context(), logger, func(repo ports.GraphRepository) error {
				if err := repo.SaveGraph(cmd.Context(), id, g); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	db.register(cmd, cfg)

	return cmd
}

func newLoadCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var db dbFlags
	var out string

	cmd := &cobra.Command{
		Use:   "load [graph-id]",
		Short: "Write a stored graph back out as a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseBuildID(args[0])
			if err != nil {
				return err
			}
			return db.withRepository(cmd.Context(), logger, func(repo ports.GraphRepository) error {
				g, err := repo.GetGraph(cmd.Context(), id)
				if err != nil {
					return err
				}
				if out == "" {
					return app.EncodeGraphDocument(cmd.OutOrStdout(), g)
				}
				return app.SaveGraphDocument(out, g)
			})
		},
	}
	db.register(cmd, cfg)
	cmd.Flags().StringVar(&out, "out", "", "Output path (default: stdout)")

	return cmd
}

func newListCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var db dbFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored graphs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.withRepository(cmd.Context(), logger, func(repo ports.GraphRepository) error {
				records, err := repo.ListGraphs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), records)
			})
		},
	}
	db.register(cmd, cfg)
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of graphs to list")

	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

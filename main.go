package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"kenobase/adapters/catalog"
	"kenobase/adapters/excel"
	"kenobase/adapters/postgres"
	"kenobase/adapters/results"
	"kenobase/app"
	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	"kenobase/internal"
	"kenobase/internal/api"
	"kenobase/internal/config"
	"kenobase/internal/errors"
	"kenobase/internal/report"
)

// buildGraph runs one build from the environment configuration
func buildGraph(appConfig *config.Config, logger *internal.Logger) (*ecosystem.Graph, error) {
	games, err := catalog.LoadFile(appConfig.Build.CatalogFile)
	if err != nil {
		return nil, err
	}

	svc := app.NewEcosystemGraphService(results.NewFileReader(), logger)
	g, stats, err := svc.BuildWithStats(appConfig.Build.PrimaryPath, app.BuildOptions{
		Thresholds:      appConfig.Build.Thresholds(),
		AlternativePath: appConfig.Build.AlternativePath,
		Catalog:         games,
		StrictNodes:     appConfig.Build.StrictNodes,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("build stats: %d lift accepted, %d rejected, %d incomplete; %d alternative accepted, %d rejected; %d duplicates; %d control signals",
		stats.PrimaryAccepted, stats.PrimaryRejected, stats.PrimaryIncomplete,
		stats.AlternativeAccepted, stats.AlternativeRejected, stats.Duplicates, stats.ControlSignals)
	return g, nil
}

// writeOutputs exports g to every configured destination
func writeOutputs(ctx context.Context, appConfig *config.Config, logger *internal.Logger, g *ecosystem.Graph) error {
	if appConfig.Output.GraphPath != "" {
		if err := app.SaveGraphDocument(appConfig.Output.GraphPath, g); err != nil {
			return err
		}
		logger.Info("graph written to %s", appConfig.Output.GraphPath)
	}

	if appConfig.Output.ReportPath != "" {
		r, err := report.Build(g)
		if err != nil {
			return errors.Wrap(err, "failed to build report")
		}
		if err := os.WriteFile(appConfig.Output.ReportPath, report.Markdown(r), 0o644); err != nil {
			return errors.ExportFailed(appConfig.Output.ReportPath, err)
		}
	}

	if appConfig.Output.WorkbookPath != "" {
		if err := excel.WriteGraph(appConfig.Output.WorkbookPath, g); err != nil {
			return err
		}
	}

	if appConfig.Database.URL != "" {
		db, err := postgres.Open(ctx, appConfig.Database.Driver, appConfig.Database.URL, logger)
		if err != nil {
			return errors.Wrap(err, "failed to initialize database")
		}
		defer db.Close()

		raw, _ := g.Metadata["build_id"].(string)
		id, err := core.ParseBuildID(raw)
		if err != nil {
			id = core.NewBuildID()
		}
		if err := postgres.NewGraphRepository(db).SaveGraph(ctx, id, g); err != nil {
			return err
		}
		logger.Info("graph stored as %s", id)
	}
	return nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLevel(appConfig.Logging.Level))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := buildGraph(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to build ecosystem graph: %v", err)
	}

	if err := writeOutputs(ctx, appConfig, logger, g); err != nil {
		log.Fatalf("Failed to write outputs: %v", err)
	}

	server := api.NewServer(g, logger)
	if err := server.ListenAndServe(ctx, ":"+appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

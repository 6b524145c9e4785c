package config

import (
	"os"
	"strconv"

	"kenobase/domain/ecosystem"
	"kenobase/internal/errors"
)

// Config represents the complete application configuration.
// The graph builder itself takes none of this; only the entry points read it.
type Config struct {
	Build    BuildConfig
	Output   OutputConfig
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// BuildConfig holds the inputs and thresholds of a graph build
type BuildConfig struct {
	PrimaryPath     string
	AlternativePath string
	QThreshold      float64
	LiftThreshold   float64
	CatalogFile     string
	StrictNodes     bool
}

// OutputConfig holds export destinations
type OutputConfig struct {
	GraphPath    string
	ReportPath   string
	WorkbookPath string
}

// DatabaseConfig holds repository connection settings
type DatabaseConfig struct {
	URL    string
	Driver string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string
}

// Thresholds returns the build thresholds in domain form
func (b BuildConfig) Thresholds() ecosystem.Thresholds {
	return ecosystem.Thresholds{Q: b.QThreshold, Lift: b.LiftThreshold}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Build:    *loadBuildConfig(),
		Output:   *loadOutputConfig(),
		Database: *loadDatabaseConfig(),
		Server:   *loadServerConfig(),
		Logging:  LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadBuildConfig() *BuildConfig {
	return &BuildConfig{
		PrimaryPath:     getEnvOrDefault("PRIMARY_RESULTS", "results/ecosystem_coupling.json"),
		AlternativePath: getEnvOrDefault("ALTERNATIVE_RESULTS", ""),
		QThreshold:      getEnvFloatOrDefault("Q_THRESHOLD", ecosystem.DefaultQThreshold),
		LiftThreshold:   getEnvFloatOrDefault("LIFT_THRESHOLD", ecosystem.DefaultLiftThreshold),
		CatalogFile:     getEnvOrDefault("CATALOG_FILE", ""),
		StrictNodes:     getEnvBoolOrDefault("STRICT_NODES", false),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		GraphPath:    getEnvOrDefault("GRAPH_OUTPUT", "results/ecosystem_graph.json"),
		ReportPath:   getEnvOrDefault("REPORT_OUTPUT", ""),
		WorkbookPath: getEnvOrDefault("WORKBOOK_OUTPUT", ""),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:    getEnvOrDefault("DATABASE_URL", ""),
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validateConfig(config *Config) error {
	if config.Build.PrimaryPath == "" {
		return errors.ConfigInvalid("PRIMARY_RESULTS is required")
	}
	if config.Build.QThreshold <= 0 || config.Build.QThreshold > 1 {
		return errors.ConfigInvalid("Q_THRESHOLD must be in (0, 1]")
	}
	if config.Build.LiftThreshold < 0 {
		return errors.ConfigInvalid("LIFT_THRESHOLD must not be negative")
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

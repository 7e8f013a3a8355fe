// Package app wires configuration, storage, and services into the shared
// application core used by the server and CLI binaries.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/stocklens/internal/common"
	"github.com/bobmcallan/stocklens/internal/projection"
	"github.com/bobmcallan/stocklens/internal/services/analyzer"
	"github.com/bobmcallan/stocklens/internal/storage"
	"github.com/bobmcallan/stocklens/internal/storage/memory"
	"github.com/bobmcallan/stocklens/internal/storage/sqlite"
)

// App holds the initialized configuration, stores, and services.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Users       storage.UserStore
	Analyses    storage.AnalysisStore
	Analyzer    *analyzer.Service
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and initializes storage and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Check provided path, STOCKLENS_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("STOCKLENS_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stocklens.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stocklens.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}
	if config.Storage.ChartDir != "" && !filepath.IsAbs(config.Storage.ChartDir) {
		config.Storage.ChartDir = filepath.Join(binDir, config.Storage.ChartDir)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	app := &App{
		Config:      config,
		Logger:      logger,
		StartupTime: time.Now(),
	}

	switch config.Storage.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(config.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.New(config.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		app.Users = store
		app.Analyses = store
		logger.Info().Str("path", config.Storage.Path).Msg("sqlite storage ready")
	default:
		app.Users = memory.NewUserStore()
		app.Analyses = memory.NewAnalysisStore()
		logger.Info().Msg("in-memory storage ready")
	}

	policy := projection.ForName(config.Projection.Policy, config.Projection.Scale)
	app.Analyzer = analyzer.NewService(app.Analyses, policy, config.Projection.Scale, config.Storage.ChartDir, logger)

	logger.Info().
		Str("environment", config.Environment).
		Str("backend", config.Storage.Backend).
		Str("policy", policy.Name()).
		Msg("application initialized")

	return app, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Analyses != nil {
		return a.Analyses.Close()
	}
	return nil
}

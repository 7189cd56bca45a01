package main

import (
	"context"
	"fmt"
	"os"

	"solaudit/internal/analyzer"
	"solaudit/internal/audit"
	"solaudit/internal/chains"
	"solaudit/internal/config"
	"solaudit/internal/logging"
	"solaudit/internal/storage"
	"solaudit/internal/version"

	"github.com/spf13/cobra"
)

var (
	// configFlag is the CLI --config flag value
	configFlag string
)

var rootCmd = &cobra.Command{
	Use:   "solaudit",
	Short: "solaudit - Smart contract audit service",
	Long: `solaudit analyzes Solidity smart contracts for security vulnerabilities.
It combines pattern-based static analysis with model-based review, deduplicates
and scores the findings, and produces a weighted risk report. Deployed contracts
can be audited by address, with a bytecode-level fallback when no verified
source is available.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("solaudit version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Path to config file (JSON)")
}

// loadConfig resolves the effective configuration.
// Precedence: --config flag > SOLAUDIT_CONFIG env var > defaults.
func loadConfig() (*config.Config, error) {
	path := configFlag
	if path == "" {
		path = os.Getenv("SOLAUDIT_CONFIG")
	}
	return config.LoadConfig(path)
}

// newLogger builds the logger described by the config
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.ParseFormat(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// newRegistry builds the chain registry, applying the optional overrides file
func newRegistry(cfg *config.Config) (*chains.Registry, error) {
	registry := chains.NewRegistry()
	if cfg.Chains.File != "" {
		if err := registry.LoadFile(cfg.Chains.File); err != nil {
			return nil, fmt.Errorf("failed to load chains file: %w", err)
		}
	}
	return registry, nil
}

// buildPipeline wires the analyzers, chain reader, and storage into a
// pipeline. The registry is returned alongside so callers can reuse it
// (the overrides file is read once). The cleanup closes the model client
// and, when withStorage is set, the storage handle.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *logging.Logger, withStorage bool) (*audit.Pipeline, *storage.DB, *chains.Registry, func(), error) {
	if cfg.Model.APIKey == "" {
		return nil, nil, nil, nil, fmt.Errorf("model API key not configured (set SOLAUDIT_MODEL_APIKEY)")
	}

	model, err := analyzer.NewGeminiAnalyzer(ctx, cfg.Model.APIKey, cfg.Model.Model)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create model analyzer: %w", err)
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		model.Close()
		return nil, nil, nil, nil, err
	}

	var db *storage.DB
	var store audit.Persistence
	cleanup := func() { model.Close() }
	if withStorage {
		db, err = storage.Open(cfg.Storage.Path, logger)
		if err != nil {
			model.Close()
			return nil, nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		store = db
		cleanup = func() {
			model.Close()
			_ = db.Close()
		}
	}

	pipeline := audit.NewPipeline(
		cfg,
		analyzer.NewPatternAnalyzer(),
		model,
		analyzer.NewRPCReader(),
		registry,
		store,
		logger,
	)

	return pipeline, db, registry, cleanup, nil
}

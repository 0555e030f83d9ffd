package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"veridian-hq/lattice/pkg/cli"
	"veridian-hq/lattice/pkg/config"
	"veridian-hq/lattice/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice - document compliance evaluation engine",
	Long: `Lattice evaluates documents against a catalog of compliance requirements.

Each document is matched against the relevant requirements using a
deterministic keyword strategy, optionally upgraded to LLM-backed semantic
evaluation. Results are written as per-document reports and an aggregate
compliance matrix, and persisted for later inspection.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus LATTICE_* env when unset)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// setup loads configuration and builds the process logger. Every subcommand
// that touches the engine goes through here.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError("", err.Error())
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.LogLevel,
		Format: cfg.Telemetry.LogFormat,
	})
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry", err.Error())
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

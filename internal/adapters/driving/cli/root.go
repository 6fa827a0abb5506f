// Package cli provides the annomigrate command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/config/file"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
	"github.com/custodia-labs/annomigrate/internal/core/services"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	verbose     bool
	logJSON     bool
	configDir   string
	metricsFile string
)

// settingsService is resolved from the config directory on first use.
// Tests install their own before executing commands.
var settingsService driving.SettingsService

var rootCmd = &cobra.Command{
	Use:   "annomigrate",
	Short: "Migrate annotations from a Catch search service",
	Long: `annomigrate pulls AnnoJS annotations from a Catch search service page by
page, converts them to the Catcha schema, and imports them into a destination
store with replies ordered after their parents.

Every step leaves JSON artifacts in the output directory, so a run can be
inspected, resumed, or replayed offline.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "print debug and progress messages")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write log lines as JSON")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: ~/.annomigrate)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "",
		"write run counters to this file in Prometheus text format")
}

// Execute runs the root command. The context is cancelled on interrupt by
// the caller.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(logJSON)

	if settingsService != nil {
		return nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	logger.Debug("config file: %s", store.Path())
	settingsService = services.NewSettingsService(store)
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/artifacts"
	"github.com/custodia-labs/annomigrate/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/annomigrate/internal/connectors/catchpy"
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
	"github.com/custodia-labs/annomigrate/internal/core/services"
	"github.com/custodia-labs/annomigrate/internal/logger"
	"github.com/custodia-labs/annomigrate/internal/normalisers/annojs"
	"github.com/custodia-labs/annomigrate/internal/postprocessors"
)

// needs lists the external resources a command uses.
type needs uint8

const (
	// needSource connects to the search service.
	needSource needs = 1 << iota

	// needStore opens the destination database, which also keeps pull
	// checkpoints.
	needStore
)

// migratorFactory builds the migration service for a resolved config. The
// returned function releases what was opened. Tests replace it.
var migratorFactory = buildMigrator

func buildMigrator(cfg domain.MigrationConfig, n needs) (driving.MigrationService, func() error, error) {
	runID := uuid.NewString()

	// 1. Normaliser with the configured repair steps
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(cfg.Repairers)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	normaliser := annojs.New(
		annojs.WithPlatformName(cfg.PlatformName),
		annojs.WithRepairPipeline(pipeline),
	)

	// 2. Search client
	var client driven.SearchClient
	if n&needSource != 0 {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		tokens := catchpy.NewTokenProvider(cfg.Source.APIKey, cfg.Source.SecretKey, cfg.Source.Actor, domain.DefaultTokenTTL)
		c, err := catchpy.NewClient(catchpy.ConfigFromSettings(cfg.Source), tokens)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("search endpoint: %s", c.Endpoint())
		client = c
	}

	// 3. Destination store and checkpoints
	var (
		store       driven.AnnotationStore
		checkpoints driven.CheckpointStore = memory.NewCheckpointStore()
		closers     []func() error
	)
	if n&(needSource|needStore) != 0 {
		db, err := sqlite.NewStore(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		logger.Debug("destination store: %s", db.Path())
		store = db.AnnotationStore()
		checkpoints = db.CheckpointStore()
		closers = append(closers, db.Close)
	}

	// 4. Run metrics
	var metrics driven.MetricsRecorder
	if metricsFile != "" {
		recorder := prometheus.NewRecorder(prometheus.RunLabels(cfg.ContextID, runID, cfg.Pull.Workers))
		metrics = recorder
		path := metricsFile
		closers = append(closers, func() error { return recorder.WriteTextfile(path) })
	}

	m := services.NewMigrator(cfg, client, normaliser, artifacts.NewStore(cfg.OutDir), checkpoints, store, metrics,
		services.WithRunID(runID))

	release := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	return m, release, nil
}

// withMigrator resolves the config for cmd, builds the service and runs fn.
func withMigrator(cmd *cobra.Command, n needs, fn func(driving.MigrationService) error) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if n&needSource != 0 && cfg.Source.SecretKey == "" {
		cfg.Source.SecretKey = promptSecret(cmd)
	}

	m, release, err := migratorFactory(cfg, n)
	if err != nil {
		return err
	}
	runErr := fn(m)
	if err := release(); err != nil {
		logger.Warn("release resources: %v", err)
	}
	return runErr
}

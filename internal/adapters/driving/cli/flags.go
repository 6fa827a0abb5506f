package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// runFlags holds the values of the migration flags. Commands register the
// subset they use; only flags set on the command line override stored
// settings.
type runFlags struct {
	sourceURL  string
	apiKey     string
	secretKey  string
	actor      string
	apiVersion string
	timeout    time.Duration
	rateLimit  float64

	contextID   string
	outDir      string
	reuseOutDir bool

	offsetStart int
	pageSize    int
	maxPages    int
	workers     int

	storePath string
	orphans   string
}

var flagValues runFlags

func addSourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagValues.sourceURL, "source-url", "", "search service base URL, including http/https")
	f.StringVar(&flagValues.apiKey, "api-key", "", "consumer key used to sign tokens")
	f.StringVar(&flagValues.secretKey, "secret-key", "", "consumer secret used to sign tokens (prompted when omitted)")
	f.StringVar(&flagValues.actor, "user", domain.DefaultActor, "user the search token is issued for")
	f.StringVar(&flagValues.apiVersion, "api-version", string(domain.APIVersionV1), "search API version: v1 or v2")
	f.DurationVar(&flagValues.timeout, "timeout", domain.DefaultTimeout, "per request timeout")
	f.Float64Var(&flagValues.rateLimit, "rate-limit", 0, "maximum requests per second, 0 for unlimited")
}

func addContextFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagValues.contextID, "context-id", "", "collection to migrate; empty means all collections")
}

func addOutputFlags(cmd *cobra.Command, withReuse bool) {
	cmd.Flags().StringVar(&flagValues.outDir, "outdir", "tmp", "directory for input and output artifacts")
	if withReuse {
		cmd.Flags().BoolVar(&flagValues.reuseOutDir, "reuse-outdir", false, "write into an existing output directory")
	}
}

func addPullFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&flagValues.offsetStart, "offset-start", 0, "offset of the first row to pull")
	f.IntVar(&flagValues.pageSize, "page-size", domain.DefaultPageSize, "rows requested per page")
	f.IntVar(&flagValues.maxPages, "max-pages", domain.DefaultMaxPages, "abort when more pages than this are returned")
	f.IntVar(&flagValues.workers, "workers", 1, "pages requested concurrently")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagValues.storePath, "store", "", "destination database (default: ~/.annomigrate/data/catch.db)")
}

func addOrphanFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagValues.orphans, "orphans", string(domain.OrphanKeep),
		"replies whose parent is not in the batch: keep or separate")
}

// resolveConfig layers flags set on the command line over stored settings
// and defaults.
//
//nolint:gocognit,gocyclo // Flat list of flag overrides
func resolveConfig(cmd *cobra.Command) (domain.MigrationConfig, error) {
	cfg := domain.DefaultMigrationConfig()
	if settingsService != nil {
		stored, err := settingsService.Get()
		if err != nil {
			return cfg, fmt.Errorf("load settings: %w", err)
		}
		cfg = *stored
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("source-url") {
		cfg.Source.URL = flagValues.sourceURL
	}
	if changed("api-key") {
		cfg.Source.APIKey = flagValues.apiKey
	}
	if changed("secret-key") {
		cfg.Source.SecretKey = flagValues.secretKey
	}
	if changed("user") {
		cfg.Source.Actor = flagValues.actor
	}
	if changed("api-version") {
		cfg.Source.APIVersion = domain.APIVersion(flagValues.apiVersion)
	}
	if changed("timeout") {
		cfg.Source.Timeout = flagValues.timeout
	}
	if changed("rate-limit") {
		cfg.Source.RateLimit = flagValues.rateLimit
	}
	if changed("context-id") {
		cfg.ContextID = flagValues.contextID
	}
	if flags.Lookup("outdir") != nil {
		cfg.OutDir = flagValues.outDir
	}
	if changed("reuse-outdir") {
		cfg.ReuseOutDir = flagValues.reuseOutDir
	}
	if changed("offset-start") {
		cfg.Pull.StartOffset = flagValues.offsetStart
	}
	if changed("page-size") {
		cfg.Pull.PageSize = flagValues.pageSize
	}
	if changed("max-pages") {
		cfg.Pull.MaxPages = flagValues.maxPages
	}
	if changed("workers") {
		cfg.Pull.Workers = flagValues.workers
	}
	if changed("store") {
		cfg.StorePath = flagValues.storePath
	}
	if changed("orphans") {
		policy, err := domain.ParseOrphanPolicy(flagValues.orphans)
		if err != nil {
			return cfg, err
		}
		cfg.Orphans = policy
	}
	return cfg, nil
}

package domain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

const unknownDescription = "Unknown"

// APIVersion selects the search endpoint and its parameter spelling.
type APIVersion string

// Available search API versions.
const (
	// APIVersionV1 is /catch/annotator/search with a context_id parameter.
	APIVersionV1 APIVersion = "v1"

	// APIVersionV2 is /annos/search with a contextId parameter.
	APIVersionV2 APIVersion = "v2"
)

// IsValid returns true if the version is recognised.
func (v APIVersion) IsValid() bool {
	switch v {
	case APIVersionV1, APIVersionV2:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (v APIVersion) String() string {
	return string(v)
}

// Description returns a human-readable description of the version.
func (v APIVersion) Description() string {
	switch v {
	case APIVersionV1:
		return "v1 (/catch/annotator/search, context_id)"
	case APIVersionV2:
		return "v2 (/annos/search, contextId)"
	default:
		return unknownDescription
	}
}

// Defaults for a migration run.
const (
	DefaultPageSize       = 500
	DefaultMaxPages       = 50000
	DefaultTimeout        = 300 * time.Second
	DefaultActor          = "admin"
	DefaultTokenTTL       = 24 * time.Hour
	DefaultPlatformName   = "hxat-edx_v1.0"
	DefaultRepairPipeline = "first_range_anchor"
)

// SourceSettings describes the search service and its credentials.
type SourceSettings struct {
	URL        string
	APIKey     string
	SecretKey  string
	Actor      string
	APIVersion APIVersion
	Timeout    time.Duration

	// RateLimit is requests per second. Zero means unlimited.
	RateLimit float64
}

// PullSettings controls pagination.
type PullSettings struct {
	StartOffset int
	PageSize    int
	MaxPages    int

	// Workers bounds concurrent page prefetch. One means sequential.
	Workers int
}

// MigrationConfig holds everything a run needs. It is built once by the CLI
// and passed into constructors.
type MigrationConfig struct {
	Source SourceSettings
	Pull   PullSettings

	// ContextID scopes the run. Empty means all collections.
	ContextID string

	// OutDir receives file artifacts.
	OutDir      string
	ReuseOutDir bool

	// StorePath is the destination store database file.
	StorePath string

	// PlatformName is stamped on converted records.
	PlatformName string

	// Repairers lists repair steps applied before conversion, in order.
	Repairers []string

	Orphans OrphanPolicy
}

// DefaultMigrationConfig returns a configuration with sensible defaults.
// Source URL and credentials are left empty.
func DefaultMigrationConfig() MigrationConfig {
	return MigrationConfig{
		Source: SourceSettings{
			Actor:      DefaultActor,
			APIVersion: APIVersionV1,
			Timeout:    DefaultTimeout,
		},
		Pull: PullSettings{
			PageSize: DefaultPageSize,
			MaxPages: DefaultMaxPages,
			Workers:  1,
		},
		OutDir:       "tmp",
		PlatformName: DefaultPlatformName,
		Repairers:    []string{DefaultRepairPipeline},
		Orphans:      OrphanKeep,
	}
}

// ValidateSource checks the settings needed to talk to the search service.
func (c *MigrationConfig) ValidateSource() error {
	var errs []error
	if c.Source.URL == "" {
		errs = append(errs, errors.New("source url is required"))
	} else if u, err := url.Parse(c.Source.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("source url %q must include scheme and host", c.Source.URL))
	}
	if c.Source.APIKey == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	if c.Source.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if !c.Source.APIVersion.IsValid() {
		errs = append(errs, fmt.Errorf("unknown api version %q", c.Source.APIVersion))
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.Source.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	return wrapInvalid(errs)
}

// Validate checks the whole configuration for a pull.
func (c *MigrationConfig) Validate() error {
	var errs []error
	if err := c.ValidateSource(); err != nil {
		errs = append(errs, err)
	}
	if c.Pull.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Pull.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Pull.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Pull.StartOffset < 0 {
		errs = append(errs, errors.New("start offset must not be negative"))
	}
	if c.OutDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if _, err := ParseOrphanPolicy(string(c.Orphans)); err != nil {
		errs = append(errs, err)
	}
	return wrapInvalid(errs)
}

func wrapInvalid(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// ArtifactName turns a context identifier into the name used in artifact
// file names. An empty context means all collections.
func ArtifactName(contextID string) string {
	if contextID == "" {
		return "all"
	}
	return nonAlphanumeric.ReplaceAllString(contextID, "_")
}

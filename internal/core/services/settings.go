package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySourceURL        = "source.url"
	keySourceAPIKey     = "source.api_key"
	keySourceSecretKey  = "source.secret_key"
	keySourceUser       = "source.user"
	keySourceAPIVersion = "source.api_version"
	keySourceTimeout    = "source.timeout_seconds"
	keySourceRateLimit  = "source.rate_limit"
	keyPullPageSize     = "pull.page_size"
	keyPullMaxPages     = "pull.max_pages"
	keyPullWorkers      = "pull.workers"
	keyStorePath        = "store.path"
	keyRepairers        = "normalise.repairers"
	keyPlatformName     = "normalise.platform_name"
)

// keyKind is the value type accepted for a key.
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindList
)

var knownKeys = map[string]keyKind{
	keySourceURL:        kindString,
	keySourceAPIKey:     kindString,
	keySourceSecretKey:  kindString,
	keySourceUser:       kindString,
	keySourceAPIVersion: kindString,
	keySourceTimeout:    kindInt,
	keySourceRateLimit:  kindFloat,
	keyPullPageSize:     kindInt,
	keyPullMaxPages:     kindInt,
	keyPullWorkers:      kindInt,
	keyStorePath:        kindString,
	keyRepairers:        kindList,
	keyPlatformName:     kindString,
}

// SettingsService manages persisted migration settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
	}
}

// Get resolves stored settings on top of the defaults.
func (s *SettingsService) Get() (*domain.MigrationConfig, error) {
	cfg := domain.DefaultMigrationConfig()

	cfg.Source.URL = s.configStore.GetString(keySourceURL)
	cfg.Source.APIKey = s.configStore.GetString(keySourceAPIKey)
	cfg.Source.SecretKey = s.configStore.GetString(keySourceSecretKey)
	cfg.Source.Actor = s.getString(keySourceUser, cfg.Source.Actor)
	cfg.Source.APIVersion = s.getAPIVersion(cfg.Source.APIVersion)
	if secs := s.configStore.GetInt(keySourceTimeout); secs > 0 {
		cfg.Source.Timeout = time.Duration(secs) * time.Second
	}
	cfg.Source.RateLimit = s.configStore.GetFloat(keySourceRateLimit)

	cfg.Pull.PageSize = s.getInt(keyPullPageSize, cfg.Pull.PageSize)
	cfg.Pull.MaxPages = s.getInt(keyPullMaxPages, cfg.Pull.MaxPages)
	cfg.Pull.Workers = s.getInt(keyPullWorkers, cfg.Pull.Workers)

	cfg.StorePath = s.configStore.GetString(keyStorePath)
	cfg.PlatformName = s.getString(keyPlatformName, cfg.PlatformName)
	if _, exists := s.configStore.Get(keyRepairers); exists {
		cfg.Repairers = s.configStore.GetStringSlice(keyRepairers)
	}

	return &cfg, nil
}

// Save persists the settings that can be stored. Empty credentials are left
// untouched so a partial save never erases a stored secret.
func (s *SettingsService) Save(cfg *domain.MigrationConfig) error {
	if err := s.configStore.Set(keySourceURL, cfg.Source.URL); err != nil {
		return fmt.Errorf("save source url: %w", err)
	}
	if cfg.Source.APIKey != "" {
		if err := s.configStore.Set(keySourceAPIKey, cfg.Source.APIKey); err != nil {
			return fmt.Errorf("save api_key: %w", err)
		}
	}
	if cfg.Source.SecretKey != "" {
		if err := s.configStore.Set(keySourceSecretKey, cfg.Source.SecretKey); err != nil {
			return fmt.Errorf("save secret_key: %w", err)
		}
	}
	if err := s.configStore.Set(keySourceUser, cfg.Source.Actor); err != nil {
		return fmt.Errorf("save source user: %w", err)
	}
	if err := s.configStore.Set(keySourceAPIVersion, cfg.Source.APIVersion.String()); err != nil {
		return fmt.Errorf("save api version: %w", err)
	}
	if err := s.configStore.Set(keySourceTimeout, int(cfg.Source.Timeout/time.Second)); err != nil {
		return fmt.Errorf("save timeout: %w", err)
	}
	if err := s.configStore.Set(keySourceRateLimit, cfg.Source.RateLimit); err != nil {
		return fmt.Errorf("save rate limit: %w", err)
	}
	if err := s.configStore.Set(keyPullPageSize, cfg.Pull.PageSize); err != nil {
		return fmt.Errorf("save page size: %w", err)
	}
	if err := s.configStore.Set(keyPullMaxPages, cfg.Pull.MaxPages); err != nil {
		return fmt.Errorf("save max pages: %w", err)
	}
	if err := s.configStore.Set(keyPullWorkers, cfg.Pull.Workers); err != nil {
		return fmt.Errorf("save workers: %w", err)
	}
	if err := s.configStore.Set(keyStorePath, cfg.StorePath); err != nil {
		return fmt.Errorf("save store path: %w", err)
	}
	if err := s.configStore.Set(keyPlatformName, cfg.PlatformName); err != nil {
		return fmt.Errorf("save platform name: %w", err)
	}
	if err := s.configStore.Set(keyRepairers, cfg.Repairers); err != nil {
		return fmt.Errorf("save repairers: %w", err)
	}
	return nil
}

// Set stores a single key after checking it is known and well typed.
// Lists are comma separated.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindList:
		items := []string{}
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		typed = items
	default:
		if key == keySourceAPIVersion && !domain.APIVersion(value).IsValid() {
			return fmt.Errorf("%w: unknown api version %q", domain.ErrInvalidInput, value)
		}
		typed = value
	}
	return s.configStore.Set(key, typed)
}

// Keys returns every key the service understands, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the stored settings are enough to reach the source.
func (s *SettingsService) Validate() error {
	cfg, err := s.Get()
	if err != nil {
		return err
	}
	return cfg.ValidateSource()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.MigrationConfig {
	return domain.DefaultMigrationConfig()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getAPIVersion(defaultVal domain.APIVersion) domain.APIVersion {
	val := s.configStore.GetString(keySourceAPIVersion)
	if val == "" {
		return defaultVal
	}
	version := domain.APIVersion(val)
	if !version.IsValid() {
		return defaultVal
	}
	return version
}

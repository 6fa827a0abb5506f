package driving

import "github.com/custodia-labs/annomigrate/internal/core/domain"

// SettingsService manages persisted migration settings.
type SettingsService interface {
	// Get resolves stored settings on top of the defaults.
	Get() (*domain.MigrationConfig, error)

	// Save persists the settings that can be stored. Empty credentials are
	// left untouched.
	Save(cfg *domain.MigrationConfig) error

	// Set stores a single key after checking it is known and well typed.
	Set(key, value string) error

	// Keys returns every key the service understands, sorted.
	Keys() []string

	// Validate checks the stored settings are enough to reach the source.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.MigrationConfig
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	cfg, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultMigrationConfig()
	assert.Equal(t, defaults.Source.APIVersion, cfg.Source.APIVersion)
	assert.Equal(t, defaults.Source.Actor, cfg.Source.Actor)
	assert.Equal(t, defaults.Source.Timeout, cfg.Source.Timeout)
	assert.Equal(t, defaults.Pull, cfg.Pull)
	assert.Equal(t, defaults.PlatformName, cfg.PlatformName)
	assert.Equal(t, []string{domain.DefaultRepairPipeline}, cfg.Repairers)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("source.url", "https://catch.example.edu")
	_ = store.Set("source.api_key", "key-1")
	_ = store.Set("source.secret_key", "s3cret")
	_ = store.Set("source.user", "importer")
	_ = store.Set("source.api_version", "v2")
	_ = store.Set("source.timeout_seconds", 60)
	_ = store.Set("source.rate_limit", 2.5)
	_ = store.Set("pull.page_size", 250)
	_ = store.Set("pull.workers", 4)
	_ = store.Set("store.path", "/tmp/catch.db")
	_ = store.Set("normalise.repairers", []string{})

	cfg, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "https://catch.example.edu", cfg.Source.URL)
	assert.Equal(t, "key-1", cfg.Source.APIKey)
	assert.Equal(t, "s3cret", cfg.Source.SecretKey)
	assert.Equal(t, "importer", cfg.Source.Actor)
	assert.Equal(t, domain.APIVersionV2, cfg.Source.APIVersion)
	assert.Equal(t, time.Minute, cfg.Source.Timeout)
	assert.InDelta(t, 2.5, cfg.Source.RateLimit, 0)
	assert.Equal(t, 250, cfg.Pull.PageSize)
	assert.Equal(t, 4, cfg.Pull.Workers)
	assert.Equal(t, domain.DefaultMaxPages, cfg.Pull.MaxPages)
	assert.Equal(t, "/tmp/catch.db", cfg.StorePath)
	assert.Empty(t, cfg.Repairers)
}

func TestSettingsService_Get_InvalidVersionFallsBack(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("source.api_version", "v9")

	cfg, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.APIVersionV1, cfg.Source.APIVersion)
}

func TestSettingsService_SaveAndGet(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	cfg := domain.DefaultMigrationConfig()
	cfg.Source.URL = "https://catch.example.edu"
	cfg.Source.APIKey = "key-1"
	cfg.Source.SecretKey = "s3cret"
	cfg.Source.APIVersion = domain.APIVersionV2
	cfg.Pull.Workers = 3
	require.NoError(t, service.Save(&cfg))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, cfg.Source, got.Source)
	assert.Equal(t, cfg.Pull, got.Pull)
	assert.Equal(t, cfg.Repairers, got.Repairers)
}

func TestSettingsService_Save_KeepsStoredSecrets(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("source.secret_key", "s3cret")
	service := NewSettingsService(store)

	cfg := domain.DefaultMigrationConfig()
	cfg.Source.URL = "https://catch.example.edu"
	require.NoError(t, service.Save(&cfg))

	assert.Equal(t, "s3cret", store.GetString("source.secret_key"))
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, cfg *domain.MigrationConfig)
	}{
		{"string", "source.url", "https://x.example.edu", func(t *testing.T, cfg *domain.MigrationConfig) {
			assert.Equal(t, "https://x.example.edu", cfg.Source.URL)
		}},
		{"int", "pull.page_size", "100", func(t *testing.T, cfg *domain.MigrationConfig) {
			assert.Equal(t, 100, cfg.Pull.PageSize)
		}},
		{"float", "source.rate_limit", "0.5", func(t *testing.T, cfg *domain.MigrationConfig) {
			assert.InDelta(t, 0.5, cfg.Source.RateLimit, 0)
		}},
		{"list", "normalise.repairers", " first_range_anchor , ,", func(t *testing.T, cfg *domain.MigrationConfig) {
			assert.Equal(t, []string{"first_range_anchor"}, cfg.Repairers)
		}},
		{"api version", "source.api_version", "v2", func(t *testing.T, cfg *domain.MigrationConfig) {
			assert.Equal(t, domain.APIVersionV2, cfg.Source.APIVersion)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())
			require.NoError(t, service.Set(tt.key, tt.value))
			cfg, err := service.Get()
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	assert.ErrorIs(t, service.Set("search.mode", "hybrid"), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.Set("pull.page_size", "many"), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.Set("pull.workers", "-1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.Set("source.rate_limit", "fast"), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.Set("source.api_version", "v3"), domain.ErrInvalidInput)
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()

	assert.Contains(t, keys, "source.url")
	assert.Contains(t, keys, "normalise.repairers")
	assert.IsIncreasing(t, keys)
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	err := service.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_ = store.Set("source.url", "https://catch.example.edu")
	_ = store.Set("source.api_key", "key-1")
	_ = store.Set("source.secret_key", "s3cret")
	assert.NoError(t, service.Validate())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	defaults := NewSettingsService(memory.NewConfigStore()).GetDefaults()
	assert.Equal(t, domain.DefaultPageSize, defaults.Pull.PageSize)
}

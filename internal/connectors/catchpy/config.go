package catchpy

import (
	"fmt"
	"net/url"
	"time"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = domain.DefaultTimeout

	// HeaderAuthToken carries the signed token.
	HeaderAuthToken = "x-annotator-auth-token"

	pathV1 = "/catch/annotator/search"
	pathV2 = "/annos/search"
)

// ParamStyle is the spelling of the collection-scoping query parameter.
type ParamStyle string

const (
	ParamSnake ParamStyle = "context_id"
	ParamCamel ParamStyle = "contextId"
)

// Config holds the settings for one search client.
type Config struct {
	BaseURL    string
	APIVersion domain.APIVersion

	// ParamStyle overrides the parameter spelling implied by APIVersion.
	ParamStyle ParamStyle

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// RateLimit is requests per second. Zero means unlimited.
	RateLimit float64
}

// ConfigFromSettings builds a client config from migration settings.
func ConfigFromSettings(s domain.SourceSettings) Config {
	return Config{
		BaseURL:    s.URL,
		APIVersion: s.APIVersion,
		Timeout:    s.Timeout,
		RateLimit:  s.RateLimit,
	}
}

// endpoint resolves the search URL for the configured version.
func (c Config) endpoint() (*url.URL, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", domain.ErrInvalidConfig, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must include scheme and host", domain.ErrInvalidConfig, c.BaseURL)
	}
	path := pathV1
	if c.version() == domain.APIVersionV2 {
		path = pathV2
	}
	return base.ResolveReference(&url.URL{Path: path}), nil
}

func (c Config) version() domain.APIVersion {
	if c.APIVersion == "" {
		return domain.APIVersionV1
	}
	return c.APIVersion
}

// param returns the collection parameter name.
func (c Config) param() string {
	if c.ParamStyle != "" {
		return string(c.ParamStyle)
	}
	if c.version() == domain.APIVersionV2 {
		return string(ParamCamel)
	}
	return string(ParamSnake)
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

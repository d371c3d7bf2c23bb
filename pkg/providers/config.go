package providers

import (
	"fmt"
	"time"
)

// RateLimitConfig is the per-provider budget inside one 60 second window.
// A zero value for any field disables that budget.
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" mapstructure:"requests_per_minute"`
	TokensPerMinute   int `json:"tokens_per_minute" mapstructure:"tokens_per_minute"`
	MaxConcurrent     int `json:"max_concurrent" mapstructure:"max_concurrent"`
}

// ProviderConfig describes one configured backend. Identity is ID.
type ProviderConfig struct {
	ID           string           `json:"id" mapstructure:"id"`
	Type         ProviderType     `json:"type" mapstructure:"type"`
	Name         string           `json:"name" mapstructure:"name"`
	APIKey       string           `json:"api_key" mapstructure:"api_key"`
	BaseURL      string           `json:"base_url,omitempty" mapstructure:"base_url"`
	DefaultModel string           `json:"default_model,omitempty" mapstructure:"default_model"`
	Models       []string         `json:"models,omitempty" mapstructure:"models"`
	Enabled      bool             `json:"enabled" mapstructure:"enabled"`
	Priority     int              `json:"priority" mapstructure:"priority"`
	RateLimit    *RateLimitConfig `json:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// Validate rejects configurations that must never reach request time:
// unknown types, missing credentials, missing endpoints for self-hosted
// backends.
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: provider id is required", ErrInvalidConfig)
	}

	caps, ok := TypeCapabilities(c.Type)
	if !ok {
		return fmt.Errorf("%w: unknown provider type %q", ErrInvalidConfig, c.Type)
	}
	if caps.RequiresAPIKey && c.APIKey == "" {
		return fmt.Errorf("%w: provider %q (%s) requires an API key", ErrInvalidConfig, c.ID, c.Type)
	}
	if caps.RequiresBaseURL && c.BaseURL == "" {
		return fmt.Errorf("%w: provider %q (%s) requires a base URL", ErrInvalidConfig, c.ID, c.Type)
	}
	return nil
}

// Model returns the model to use for a call: explicit override first, then
// the configured default, then the type default.
func (c *ProviderConfig) Model(override string) string {
	if override != "" {
		return override
	}
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	caps, _ := TypeCapabilities(c.Type)
	return caps.DefaultModel
}

// typeCapabilities is the closed capability table for the known provider
// types. Adding a backend means adding a row here and a constructor in the
// factory, nothing else.
var typeCapabilities = map[ProviderType]Capabilities{
	TypeAnthropic: {
		SupportsPrompts:    true,
		SupportsSystemRole: true,
		RequiresAPIKey:     true,
		DefaultModel:       "claude-3-5-sonnet-latest",
	},
	TypeOpenAI: {
		SupportsPrompts:    true,
		SupportsSystemRole: true,
		RequiresAPIKey:     true,
		DefaultModel:       "gpt-4o-mini",
	},
	TypeOpenAICompatible: {
		SupportsPrompts:    true,
		SupportsSystemRole: true,
		RequiresAPIKey:     false, // local/self-hosted endpoints allow anonymous access
		RequiresBaseURL:    true,
	},
	TypeDeepL: {
		NativeTranslation: true,
		RequiresAPIKey:    true,
		DefaultModel:      "deepl",
	},
	TypeGoogle: {
		NativeTranslation: true,
		RequiresAPIKey:    true,
		DefaultModel:      "google-translate-v2",
	},
}

// TypeCapabilities returns the static capabilities of a provider type.
func TypeCapabilities(t ProviderType) (Capabilities, bool) {
	caps, ok := typeCapabilities[t]
	return caps, ok
}

// Default manager settings.
const (
	DefaultRetryAttempts  = 3
	DefaultTimeout        = 30 * time.Second
	DefaultRetryBaseDelay = time.Second
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Providers       []ProviderConfig `json:"providers" mapstructure:"providers"`
	DefaultProvider string           `json:"default_provider" mapstructure:"default_provider"`
	FallbackChain   []string         `json:"fallback_chain" mapstructure:"fallback_chain"`
	RetryAttempts   int              `json:"retry_attempts" mapstructure:"retry_attempts"`
	Timeout         time.Duration    `json:"timeout" mapstructure:"timeout"`

	// RetryBaseDelay is the unit of the exponential backoff: the sleep
	// before retry i (0-based) is RetryBaseDelay << i. Defaults to one
	// second, which gives the 1s/2s/4s ladder.
	RetryBaseDelay time.Duration `json:"retry_base_delay,omitempty" mapstructure:"retry_base_delay"`
}

// SetDefaults fills zero fields with the default policy values.
func (c *ManagerConfig) SetDefaults() {
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
}

// Validate checks the provider list. Unknown ids in DefaultProvider or
// FallbackChain are not an error here: the chain silently skips absent ids
// at call time, and a config layer may pre-validate with better diagnostics.
func (c *ManagerConfig) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i := range c.Providers {
		p := &c.Providers[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate provider id %q", ErrInvalidConfig, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProviderConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantErr string
	}{
		{
			name: "valid openai",
			cfg:  ProviderConfig{ID: "p", Type: TypeOpenAI, APIKey: "sk-test"},
		},
		{
			name:    "missing id",
			cfg:     ProviderConfig{Type: TypeOpenAI, APIKey: "sk-test"},
			wantErr: "provider id is required",
		},
		{
			name:    "unknown type",
			cfg:     ProviderConfig{ID: "p", Type: "mystery"},
			wantErr: "unknown provider type",
		},
		{
			name:    "anthropic requires api key",
			cfg:     ProviderConfig{ID: "p", Type: TypeAnthropic},
			wantErr: "requires an API key",
		},
		{
			name:    "compatible requires base url",
			cfg:     ProviderConfig{ID: "p", Type: TypeOpenAICompatible},
			wantErr: "requires a base URL",
		},
		{
			name: "compatible allows anonymous access",
			cfg:  ProviderConfig{ID: "p", Type: TypeOpenAICompatible, BaseURL: "http://localhost:11434/v1"},
		},
		{
			name:    "deepl requires api key",
			cfg:     ProviderConfig{ID: "p", Type: TypeDeepL},
			wantErr: "requires an API key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProviderConfigModelPrecedence(t *testing.T) {
	cfg := ProviderConfig{ID: "p", Type: TypeOpenAI, APIKey: "k", DefaultModel: "gpt-4o"}

	assert.Equal(t, "gpt-4.1", cfg.Model("gpt-4.1"), "explicit override wins")
	assert.Equal(t, "gpt-4o", cfg.Model(""), "configured default next")

	cfg.DefaultModel = ""
	assert.Equal(t, "gpt-4o-mini", cfg.Model(""), "type default last")
}

func TestManagerConfigSetDefaults(t *testing.T) {
	var cfg ManagerConfig
	cfg.SetDefaults()

	assert.Equal(t, DefaultRetryAttempts, cfg.RetryAttempts)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRetryBaseDelay, cfg.RetryBaseDelay)

	custom := ManagerConfig{RetryAttempts: 5, Timeout: time.Minute, RetryBaseDelay: 2 * time.Second}
	custom.SetDefaults()
	assert.Equal(t, 5, custom.RetryAttempts)
	assert.Equal(t, time.Minute, custom.Timeout)
}

func TestManagerConfigValidateDuplicateIDs(t *testing.T) {
	cfg := ManagerConfig{
		Providers: []ProviderConfig{
			{ID: "p", Type: TypeOpenAI, APIKey: "k"},
			{ID: "p", Type: TypeAnthropic, APIKey: "k"},
		},
	}
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "duplicate provider id")
}

func TestKnownTypesMatchCapabilityTable(t *testing.T) {
	for _, typ := range KnownTypes() {
		_, ok := TypeCapabilities(typ)
		assert.True(t, ok, "type %q must have a capability entry", typ)
	}
	_, ok := TypeCapabilities("mystery")
	assert.False(t, ok)
}

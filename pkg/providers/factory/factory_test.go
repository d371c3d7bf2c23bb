package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doc2book/doc2book/pkg/providers"
)

func TestCreateCoversEveryKnownType(t *testing.T) {
	for _, typ := range providers.KnownTypes() {
		cfg := providers.ProviderConfig{
			ID:      "p",
			Type:    typ,
			APIKey:  "test-key",
			BaseURL: "http://localhost:8080/v1",
		}
		adapter, err := Create(cfg, zap.NewNop())
		require.NoError(t, err, "type %q must have a constructor", typ)
		assert.NotNil(t, adapter)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	_, err := Create(providers.ProviderConfig{ID: "p", Type: "mystery"}, zap.NewNop())
	assert.ErrorIs(t, err, providers.ErrInvalidConfig)
}

func TestTranslationNativeTypesExposeTranslator(t *testing.T) {
	for _, typ := range []providers.ProviderType{providers.TypeDeepL, providers.TypeGoogle} {
		adapter, err := Create(providers.ProviderConfig{ID: "p", Type: typ, APIKey: "k"}, zap.NewNop())
		require.NoError(t, err)
		_, ok := adapter.(providers.Translator)
		assert.True(t, ok, "%q must implement Translator", typ)
	}

	adapter, err := Create(providers.ProviderConfig{ID: "p", Type: providers.TypeOpenAI, APIKey: "k"}, zap.NewNop())
	require.NoError(t, err)
	_, ok := adapter.(providers.Translator)
	assert.False(t, ok, "chat backends translate through completions, not natively")
}

func TestNewManagerRegistersEnabledProviders(t *testing.T) {
	m, err := NewManager(providers.ManagerConfig{
		Providers: []providers.ProviderConfig{
			{ID: "main", Type: providers.TypeOpenAI, APIKey: "k", Enabled: true},
			{ID: "off", Type: providers.TypeDeepL, APIKey: "k", Enabled: false},
		},
		DefaultProvider: "main",
	}, zap.NewNop())
	require.NoError(t, err)

	_, ok := m.Provider("main")
	assert.True(t, ok)
	_, ok = m.Provider("off")
	assert.False(t, ok, "disabled providers are not registered")
}

// Package factory maps the closed provider type set to adapter
// constructors. Adding a backend means one constructor entry here and one
// capability row in the providers package; no dispatch chain to edit.
package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/doc2book/doc2book/pkg/providers"
	"github.com/doc2book/doc2book/pkg/providers/anthropic"
	"github.com/doc2book/doc2book/pkg/providers/deepl"
	"github.com/doc2book/doc2book/pkg/providers/google"
	"github.com/doc2book/doc2book/pkg/providers/openai"
)

type constructor func(cfg providers.ProviderConfig) providers.Provider

var constructors = map[providers.ProviderType]constructor{
	providers.TypeAnthropic: func(cfg providers.ProviderConfig) providers.Provider {
		return anthropic.FromProviderConfig(cfg)
	},
	providers.TypeOpenAI: func(cfg providers.ProviderConfig) providers.Provider {
		return openai.FromProviderConfig(cfg)
	},
	providers.TypeOpenAICompatible: func(cfg providers.ProviderConfig) providers.Provider {
		return openai.FromProviderConfig(cfg)
	},
	providers.TypeDeepL: func(cfg providers.ProviderConfig) providers.Provider {
		return deepl.FromProviderConfig(cfg)
	},
	providers.TypeGoogle: func(cfg providers.ProviderConfig) providers.Provider {
		return google.FromProviderConfig(cfg)
	},
}

// Create builds the adapter for a provider configuration. It satisfies
// providers.CreateFunc.
func Create(cfg providers.ProviderConfig, logger *zap.Logger) (providers.Provider, error) {
	build, ok := constructors[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider type %q",
			providers.ErrInvalidConfig, cfg.Type)
	}
	return build(cfg), nil
}

// NewManager builds a provider manager wired to the real adapters.
func NewManager(cfg providers.ManagerConfig, logger *zap.Logger) (*providers.Manager, error) {
	return providers.NewManager(cfg, Create, logger)
}

// Package config loads and persists the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/viper"

	"github.com/doc2book/doc2book/pkg/providers"
)

// envPrefix scopes environment overrides, e.g. DOC2BOOK_TARGET_LANG.
const envPrefix = "DOC2BOOK"

// Config is the full application configuration.
type Config struct {
	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// UseAITranslation routes translation through chat completions even
	// when a translation-native backend is configured.
	UseAITranslation bool   `mapstructure:"use_ai_translation"`
	Instruction      string `mapstructure:"instruction"`

	OutputDir string `mapstructure:"output_dir"`
	Debug     bool   `mapstructure:"debug"`

	Providers       []providers.ProviderConfig `mapstructure:"providers"`
	DefaultProvider string                     `mapstructure:"default_provider"`
	FallbackChain   []string                   `mapstructure:"fallback_chain"`
	RetryAttempts   int                        `mapstructure:"retry_attempts"`
	RequestTimeout  int                        `mapstructure:"request_timeout"`
}

// Default creates a configuration with sensible defaults and no providers.
func Default() *Config {
	return &Config{
		SourceLang:     "",
		TargetLang:     "English",
		ChunkSize:      2000,
		ChunkOverlap:   0,
		OutputDir:      "output",
		RetryAttempts:  providers.DefaultRetryAttempts,
		RequestTimeout: int(providers.DefaultTimeout / time.Second),
	}
}

// Load reads the configuration from configPath, or from .doc2book.yaml in
// the working directory and home directory when the path is empty. A
// missing file yields the defaults. API keys can be supplied through the
// environment as DOC2BOOK_<PROVIDER_ID>_API_KEY.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".doc2book")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if configPath != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvKeys(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to configPath, creating parent
// directories as needed. An empty path targets ~/.doc2book.yaml.
func Save(cfg *Config, configPath string) error {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(home, ".doc2book.yaml")
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("source_lang", cfg.SourceLang)
	v.Set("target_lang", cfg.TargetLang)
	v.Set("chunk_size", cfg.ChunkSize)
	v.Set("chunk_overlap", cfg.ChunkOverlap)
	v.Set("use_ai_translation", cfg.UseAITranslation)
	v.Set("instruction", cfg.Instruction)
	v.Set("output_dir", cfg.OutputDir)
	v.Set("debug", cfg.Debug)
	v.Set("providers", providerMaps(cfg.Providers))
	v.Set("default_provider", cfg.DefaultProvider)
	v.Set("fallback_chain", cfg.FallbackChain)
	v.Set("retry_attempts", cfg.RetryAttempts)
	v.Set("request_timeout", cfg.RequestTimeout)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}
	return v.WriteConfig()
}

// Validate checks the provider wiring. Unlike the manager, which skips
// unknown chain ids at call time, the config layer rejects them up front
// with a closest-match suggestion.
func (c *Config) Validate() error {
	mc := c.ManagerConfig()
	if err := mc.Validate(); err != nil {
		return err
	}

	ids := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	if c.DefaultProvider != "" && !contains(ids, c.DefaultProvider) {
		return unknownIDError("default_provider", c.DefaultProvider, ids)
	}
	for _, id := range c.FallbackChain {
		if !contains(ids, id) {
			return unknownIDError("fallback_chain", id, ids)
		}
	}
	return nil
}

// ManagerConfig converts the application configuration into the provider
// manager configuration.
func (c *Config) ManagerConfig() providers.ManagerConfig {
	mc := providers.ManagerConfig{
		Providers:       c.Providers,
		DefaultProvider: c.DefaultProvider,
		FallbackChain:   c.FallbackChain,
		RetryAttempts:   c.RetryAttempts,
		Timeout:         time.Duration(c.RequestTimeout) * time.Second,
	}
	mc.SetDefaults()
	return mc
}

// providerMaps renders provider configs with their file key names so a
// saved config reads back identically.
func providerMaps(list []providers.ProviderConfig) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, p := range list {
		m := map[string]any{
			"id":      p.ID,
			"type":    string(p.Type),
			"enabled": p.Enabled,
		}
		if p.Name != "" {
			m["name"] = p.Name
		}
		if p.APIKey != "" {
			m["api_key"] = p.APIKey
		}
		if p.BaseURL != "" {
			m["base_url"] = p.BaseURL
		}
		if p.DefaultModel != "" {
			m["default_model"] = p.DefaultModel
		}
		if len(p.Models) > 0 {
			m["models"] = p.Models
		}
		if p.Priority != 0 {
			m["priority"] = p.Priority
		}
		if p.RateLimit != nil {
			m["rate_limit"] = map[string]any{
				"requests_per_minute": p.RateLimit.RequestsPerMinute,
				"tokens_per_minute":   p.RateLimit.TokensPerMinute,
				"max_concurrent":      p.RateLimit.MaxConcurrent,
			}
		}
		out = append(out, m)
	}
	return out
}

// applyEnvKeys fills missing API keys from DOC2BOOK_<PROVIDER_ID>_API_KEY
// so secrets can stay out of the config file.
func applyEnvKeys(cfg *Config) {
	for i := range cfg.Providers {
		if cfg.Providers[i].APIKey != "" {
			continue
		}
		id := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(cfg.Providers[i].ID))
		if key := os.Getenv(envPrefix + "_" + id + "_API_KEY"); key != "" {
			cfg.Providers[i].APIKey = key
		}
	}
}

func unknownIDError(field, id string, ids []string) error {
	matches := fuzzy.RankFindNormalizedFold(id, ids)
	if len(matches) > 0 {
		sort.Sort(matches)
		return fmt.Errorf("%w: %s references unknown provider %q (did you mean %q?)",
			providers.ErrInvalidConfig, field, id, matches[0].Target)
	}
	return fmt.Errorf("%w: %s references unknown provider %q",
		providers.ErrInvalidConfig, field, id)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target_lang", "English")
	v.SetDefault("chunk_size", 2000)
	v.SetDefault("chunk_overlap", 0)
	v.SetDefault("output_dir", "output")
	v.SetDefault("retry_attempts", providers.DefaultRetryAttempts)
	v.SetDefault("request_timeout", int(providers.DefaultTimeout/time.Second))
}

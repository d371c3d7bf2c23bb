// Package google adapts the Google Cloud Translation v2 REST API to the
// provider capability contract. Like DeepL it is translation-native.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doc2book/doc2book/pkg/providers"
)

const defaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Config for the Google Translate backend.
type Config struct {
	APIKey  string
	BaseURL string
	Name    string
	Timeout time.Duration
}

// Provider is the Google Translate adapter.
type Provider struct {
	config     Config
	httpClient *http.Client
}

var (
	_ providers.Provider   = (*Provider)(nil)
	_ providers.Translator = (*Provider)(nil)
)

// New creates a Google Translate adapter.
func New(config Config) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = defaultEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Provider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// FromProviderConfig builds the adapter from the shared provider config.
func FromProviderConfig(cfg providers.ProviderConfig) *Provider {
	name := cfg.Name
	if name == "" {
		name = string(cfg.Type)
	}
	return New(Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Name:    name,
	})
}

// Name returns the backend name.
func (p *Provider) Name() string {
	if p.config.Name != "" {
		return p.config.Name
	}
	return "google"
}

// Complete is not supported: the Translation API has no chat surface.
func (p *Provider) Complete(ctx context.Context, messages []providers.Message, opts providers.CompletionOptions) (*providers.Response, error) {
	return &providers.Response{
		Success: false,
		Error:   "completion is not supported by google translate",
	}, nil
}

// Translate calls the v2 translate endpoint.
func (p *Provider) Translate(ctx context.Context, text string, opts providers.TranslationOptions) (*providers.TranslationResult, error) {
	format := "text"
	if opts.PreserveFormatting {
		format = "html"
	}
	payload := translateRequest{
		Q:      text,
		Source: normalizeLanguageCode(opts.SourceLanguage),
		Target: normalizeLanguageCode(opts.TargetLanguage),
		Format: format,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := p.config.BaseURL + "?key=" + url.QueryEscape(p.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewRetryableError(providers.ErrCodeNetwork, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, providers.ErrorFromStatusCode(resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var translateResp translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(translateResp.Data.Translations) == 0 {
		return &providers.TranslationResult{Success: false, Error: "no translation returned"}, nil
	}

	first := translateResp.Data.Translations[0]
	return &providers.TranslationResult{
		Success:                true,
		TranslatedText:         first.TranslatedText,
		DetectedSourceLanguage: first.DetectedSourceLanguage,
	}, nil
}

// IsAvailable checks the languages discovery endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	endpoint := p.config.BaseURL + "/languages?key=" + url.QueryEscape(p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Models returns the single pseudo-model name.
func (p *Provider) Models(ctx context.Context) []string {
	return []string{"google-translate-v2"}
}

// normalizeLanguageCode lowercases tags and maps common language names to
// ISO codes; Google expects lowercase two-letter codes.
func normalizeLanguageCode(lang string) string {
	lower := strings.ToLower(strings.TrimSpace(lang))

	names := map[string]string{
		"chinese":    "zh",
		"english":    "en",
		"spanish":    "es",
		"french":     "fr",
		"german":     "de",
		"japanese":   "ja",
		"korean":     "ko",
		"portuguese": "pt",
		"russian":    "ru",
		"italian":    "it",
	}
	if code, ok := names[lower]; ok {
		return code
	}
	if i := strings.IndexAny(lower, "-_"); i > 0 {
		return lower[:i]
	}
	return lower
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

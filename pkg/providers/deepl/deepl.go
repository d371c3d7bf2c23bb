// Package deepl adapts the DeepL REST API to the provider capability
// contract. DeepL is translation-native: it implements Translator and
// reports completion requests as unsupported.
package deepl

import (
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

const (
	proEndpoint  = "https://api.deepl.com/v2"
	freeEndpoint = "https://api-free.deepl.com/v2"
)

// Config for the DeepL backend.
type Config struct {
	APIKey  string
	BaseURL string
	Name    string
	Timeout time.Duration
}

// Provider is the DeepL adapter.
type Provider struct {
	config     Config
	httpClient *http.Client
}

var (
	_ providers.Provider   = (*Provider)(nil)
	_ providers.Translator = (*Provider)(nil)
)

// New creates a DeepL adapter. Free-tier keys (":fx" suffix) route to the
// free endpoint automatically.
func New(config Config) *Provider {
	if config.BaseURL == "" {
		if strings.HasSuffix(config.APIKey, ":fx") {
			config.BaseURL = freeEndpoint
		} else {
			config.BaseURL = proEndpoint
		}
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
	return "deepl"
}

// Complete is not supported: DeepL has no chat completion surface. The
// unsupported operation is a normalized failure, not an error, so the
// manager fails over without retrying.
func (p *Provider) Complete(ctx context.Context, messages []providers.Message, opts providers.CompletionOptions) (*providers.Response, error) {
	return &providers.Response{
		Success: false,
		Error:   "completion is not supported by deepl",
	}, nil
}

// Translate calls the /translate endpoint.
func (p *Provider) Translate(ctx context.Context, text string, opts providers.TranslationOptions) (*providers.TranslationResult, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("target_lang", normalizeLanguageCode(opts.TargetLanguage, false))
	if opts.SourceLanguage != "" {
		params.Set("source_lang", normalizeLanguageCode(opts.SourceLanguage, true))
	}
	if opts.PreserveFormatting {
		params.Set("preserve_formatting", "1")
	}
	if opts.Formality != "" {
		params.Set("formality", opts.Formality)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/translate", strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewRetryableError(providers.ErrCodeNetwork, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		// 456 is DeepL's quota-exceeded code; treat it like 429.
		if resp.StatusCode == 456 {
			return nil, providers.NewRetryableError(providers.ErrCodeRateLimit, "quota exceeded", nil)
		}
		return nil, providers.ErrorFromStatusCode(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var translateResp translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(translateResp.Translations) == 0 {
		return &providers.TranslationResult{Success: false, Error: "no translation returned"}, nil
	}

	return &providers.TranslationResult{
		Success:                true,
		TranslatedText:         translateResp.Translations[0].Text,
		DetectedSourceLanguage: translateResp.Translations[0].DetectedSourceLanguage,
	}, nil
}

// IsAvailable checks the /usage endpoint, which is free to call.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/usage", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Models returns the single pseudo-model name.
func (p *Provider) Models(ctx context.Context) []string {
	return []string{"deepl"}
}

// normalizeLanguageCode maps common names and tags to DeepL's uppercase
// codes. Target languages for English and Portuguese need a regional
// variant.
func normalizeLanguageCode(lang string, isSource bool) string {
	upper := strings.ToUpper(strings.TrimSpace(lang))

	names := map[string]string{
		"CHINESE":    "ZH",
		"ENGLISH":    "EN",
		"SPANISH":    "ES",
		"FRENCH":     "FR",
		"GERMAN":     "DE",
		"JAPANESE":   "JA",
		"KOREAN":     "KO",
		"PORTUGUESE": "PT",
		"RUSSIAN":    "RU",
		"ITALIAN":    "IT",
	}
	if code, ok := names[upper]; ok {
		upper = code
	}

	if !isSource {
		switch upper {
		case "EN":
			return "EN-US"
		case "PT":
			return "PT-BR"
		}
	}

	if strings.Contains(upper, "_") {
		parts := strings.SplitN(upper, "_", 2)
		return parts[0] + "-" + parts[1]
	}
	return upper
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

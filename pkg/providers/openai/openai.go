// Package openai adapts OpenAI and OpenAI-compatible chat backends to the
// provider capability contract. Compatible self-hosted endpoints (vLLM,
// Ollama's OpenAI facade, LiteLLM, ...) differ only in base URL and key
// requirements.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/doc2book/doc2book/pkg/providers"
)

// Config for an OpenAI or OpenAI-compatible backend.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Models       []string
	Name         string
}

// Provider is the OpenAI adapter.
type Provider struct {
	config Config
	client openai.Client
}

var _ providers.Provider = (*Provider)(nil)

// New creates an OpenAI adapter from a backend configuration.
func New(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	// Retry and failover policy belongs to the manager, not the transport.
	opts = append(opts, option.WithMaxRetries(0))

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
	}
}

// FromProviderConfig builds the adapter from the shared provider config.
func FromProviderConfig(cfg providers.ProviderConfig) *Provider {
	name := cfg.Name
	if name == "" {
		name = string(cfg.Type)
	}
	return New(Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		DefaultModel: cfg.Model(""),
		Models:       cfg.Models,
		Name:         name,
	})
}

// Name returns the backend name.
func (p *Provider) Name() string {
	if p.config.Name != "" {
		return p.config.Name
	}
	return "openai"
}

// Complete runs a chat completion and normalizes the result.
func (p *Provider) Complete(ctx context.Context, messages []providers.Message, opts providers.CompletionOptions) (*providers.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages: buildMessages(messages, opts.SystemPrompt),
		Model:    openai.ChatModel(p.model(opts.Model)),
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return &providers.Response{
			Success:      false,
			Model:        completion.Model,
			ResponseTime: time.Since(start),
			Error:        "no choices returned",
		}, nil
	}

	return &providers.Response{
		Success: true,
		Content: completion.Choices[0].Message.Content,
		Usage: &providers.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
		Model:        completion.Model,
		ResponseTime: time.Since(start),
	}, nil
}

// IsAvailable probes the backend with a one-token completion.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
		Model:     openai.ChatModel(p.model("")),
		MaxTokens: openai.Int(1),
	}
	_, err := p.client.Chat.Completions.New(ctx, params)
	return err == nil
}

// Models lists the backend's models, falling back to the configured list
// when discovery fails. Compatible endpoints frequently lack the models
// route entirely.
func (p *Provider) Models(ctx context.Context) []string {
	page, err := p.client.Models.List(ctx)
	if err == nil && len(page.Data) > 0 {
		names := make([]string, 0, len(page.Data))
		for _, m := range page.Data {
			names = append(names, m.ID)
		}
		return names
	}

	if len(p.config.Models) > 0 {
		return p.config.Models
	}
	if p.config.DefaultModel != "" {
		return []string{p.config.DefaultModel}
	}
	return nil
}

func (p *Provider) model(override string) string {
	if override != "" {
		return override
	}
	if p.config.DefaultModel != "" {
		return p.config.DefaultModel
	}
	return "gpt-4o-mini"
}

// buildMessages converts neutral messages to the SDK union, prepending the
// system prompt when present.
func buildMessages(messages []providers.Message, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		converted = append(converted, openai.SystemMessage(systemPrompt))
	}
	for _, msg := range messages {
		switch msg.Role {
		case providers.RoleSystem:
			converted = append(converted, openai.SystemMessage(msg.Content))
		case providers.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}
	return converted
}

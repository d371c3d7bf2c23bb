// Package anthropic adapts the Anthropic Messages API to the provider
// capability contract.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/doc2book/doc2book/pkg/providers"
)

// defaultMaxTokens applies when the caller sets no cap: the Messages API
// requires an explicit max_tokens on every request.
const defaultMaxTokens = 4096

// Config for the Anthropic backend.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Models       []string
	Name         string
}

// Provider is the Anthropic adapter.
type Provider struct {
	config Config
	client anthropic.Client
}

var _ providers.Provider = (*Provider)(nil)

// New creates an Anthropic adapter from a backend configuration.
func New(config Config) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	opts = append(opts, option.WithMaxRetries(0))

	return &Provider{
		config: config,
		client: anthropic.NewClient(opts...),
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
	return "anthropic"
}

// Complete runs a Messages API call and normalizes the result.
func (p *Provider) Complete(ctx context.Context, messages []providers.Message, opts providers.CompletionOptions) (*providers.Response, error) {
	msgs, system := buildMessages(messages, opts.SystemPrompt)

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model(opts.Model)),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if len(opts.StopSequences) > 0 {
		params.StopSequences = opts.StopSequences
	}

	start := time.Now()
	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic message failed: %w", err)
	}

	content := textContent(message)
	if content == "" {
		return &providers.Response{
			Success:      false,
			Model:        string(message.Model),
			ResponseTime: time.Since(start),
			Error:        "no text content returned",
		}, nil
	}

	inputTokens := int(message.Usage.InputTokens)
	outputTokens := int(message.Usage.OutputTokens)
	return &providers.Response{
		Success: true,
		Content: content,
		Usage: &providers.Usage{
			PromptTokens:     inputTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      inputTokens + outputTokens,
		},
		Model:        string(message.Model),
		ResponseTime: time.Since(start),
	}, nil
}

// IsAvailable probes the backend with a one-token message.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model("")),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	return err == nil
}

// Models returns the configured model list; the API has no public discovery
// endpoint worth depending on.
func (p *Provider) Models(ctx context.Context) []string {
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
	return "claude-3-5-sonnet-latest"
}

// buildMessages converts neutral messages to SDK params. System-role
// messages and the explicit system prompt both land in the system blocks;
// the Messages API has no system role inside the conversation.
func buildMessages(messages []providers.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	if systemPrompt != "" {
		system = append(system, anthropic.TextBlockParam{Text: systemPrompt})
	}

	msgs := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case providers.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case providers.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return msgs, system
}

// textContent joins the text blocks of a response.
func textContent(message *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

package providers

import (
	"context"
	"time"
)

// ProviderType identifies one of the supported backend kinds. The set is
// closed: validation and the factory both dispatch on it.
type ProviderType string

const (
	TypeAnthropic        ProviderType = "anthropic"
	TypeOpenAI           ProviderType = "openai"
	TypeOpenAICompatible ProviderType = "openai-compatible"
	TypeDeepL            ProviderType = "deepl"
	TypeGoogle           ProviderType = "google"
)

// KnownTypes returns every provider type the factory can construct.
func KnownTypes() []ProviderType {
	return []ProviderType{TypeAnthropic, TypeOpenAI, TypeOpenAICompatible, TypeDeepL, TypeGoogle}
}

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message in provider-neutral form.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions carries per-call overrides for Complete.
type CompletionOptions struct {
	Model         string   `json:"model,omitempty"`
	Temperature   float64  `json:"temperature,omitempty"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	TopP          float64  `json:"top_p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
	SystemPrompt  string   `json:"system_prompt,omitempty"`

	// ProviderID forces a specific provider instead of the manager default.
	ProviderID string `json:"provider_id,omitempty"`
}

// Usage is the token accounting reported by a backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized result of a completion call. Failures are
// values, not errors: Success=false with Error set.
type Response struct {
	Success      bool          `json:"success"`
	Content      string        `json:"content,omitempty"`
	Usage        *Usage        `json:"usage,omitempty"`
	Model        string        `json:"model,omitempty"`
	ResponseTime time.Duration `json:"response_time,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// TranslationOptions carries per-call options for translation.
type TranslationOptions struct {
	TargetLanguage     string `json:"target_language"`
	SourceLanguage     string `json:"source_language,omitempty"`
	PreserveFormatting bool   `json:"preserve_formatting,omitempty"`
	Formality          string `json:"formality,omitempty"`
	ProviderID         string `json:"provider_id,omitempty"`

	// Instruction is extra guidance injected into the system prompt when the
	// translation is performed through a chat completion backend.
	Instruction string `json:"instruction,omitempty"`
}

// TranslationResult is the normalized result of a translation call.
type TranslationResult struct {
	Success                bool   `json:"success"`
	TranslatedText         string `json:"translated_text,omitempty"`
	DetectedSourceLanguage string `json:"detected_source_language,omitempty"`
	Error                  string `json:"error,omitempty"`
}

// Status is a point-in-time availability snapshot of one provider.
type Status struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Available bool          `json:"available"`
	Latency   time.Duration `json:"latency"`
	LastCheck time.Time     `json:"last_check"`
	Error     string        `json:"error,omitempty"`
}

// Provider is the capability contract every backend adapter implements.
//
// Complete returns a non-nil error only for transport-level failures
// (network, timeout, auth); those drive the manager's retry and failover.
// Backend-level failures that still produced a readable response are
// normalized into Response{Success: false} and are not retried on the
// same provider.
type Provider interface {
	// Name returns the backend type name, for logging.
	Name() string

	// IsAvailable probes the backend with a minimal low-cost request.
	// It never panics and never returns an error; failures map to false.
	IsAvailable(ctx context.Context) bool

	// Complete runs a chat completion and normalizes the result.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (*Response, error)

	// Models lists the models the backend offers, best effort. Adapters
	// without a discovery endpoint return their configured list.
	Models(ctx context.Context) []string
}

// Translator is the optional native-translation capability. Backends that
// are translation services rather than chat models (DeepL, Google) implement
// it; the manager discovers it with a type assertion.
type Translator interface {
	Translate(ctx context.Context, text string, opts TranslationOptions) (*TranslationResult, error)
}

// Capabilities describes what a provider type can do. Derived from the type
// tag alone, not from a live backend.
type Capabilities struct {
	SupportsPrompts    bool   `json:"supports_prompts"`
	SupportsSystemRole bool   `json:"supports_system_role"`
	NativeTranslation  bool   `json:"native_translation"`
	RequiresAPIKey     bool   `json:"requires_api_key"`
	RequiresBaseURL    bool   `json:"requires_base_url"`
	DefaultModel       string `json:"default_model"`
}

// Package translation layers document-level content processing on top of
// the provider manager: chunking, prompt assembly, and the translate,
// summarize, and rewrite stages.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/doc2book/doc2book/pkg/providers"
)

var (
	// ErrEmptyText is returned when a stage receives nothing to process.
	ErrEmptyText = errors.New("text is empty")
	// ErrNoClient is returned when a service is built without a provider client.
	ErrNoClient = errors.New("provider client is required")
	// ErrChunkFailed is returned when a chunk exhausts all providers.
	ErrChunkFailed = errors.New("chunk processing failed")
)

// Client is the slice of the provider manager the service needs.
// *providers.Manager satisfies it.
type Client interface {
	Complete(ctx context.Context, messages []providers.Message, opts providers.CompletionOptions) *providers.Response
	Translate(ctx context.Context, text string, opts providers.TranslationOptions) *providers.TranslationResult
	TranslateWithAI(ctx context.Context, text string, opts providers.TranslationOptions) *providers.TranslationResult
}

// Config controls a translation service.
type Config struct {
	SourceLanguage string
	TargetLanguage string
	ChunkSize      int
	ChunkOverlap   int
	// UseAI routes translation through chat completions instead of the
	// translation-native backends.
	UseAI bool
	// Instruction is appended to every prompt the service builds.
	Instruction string
}

// Result is the outcome of a document-level stage.
type Result struct {
	JobID      string
	Text       string
	Chunks     int
	Duration   time.Duration
	TokensUsed int
}

// Service runs document-level stages over a provider client.
type Service struct {
	config  Config
	client  Client
	chunker Chunker
	prompts *PromptBuilder
	logger  *zap.Logger
}

// NewService builds a service. The chunker defaults to paragraph
// splitting at the configured size.
func NewService(cfg Config, client Client, logger *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "English"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	prompts := NewPromptBuilder(
		LanguageDisplayName(cfg.SourceLanguage),
		LanguageDisplayName(cfg.TargetLanguage))
	prompts.AddInstruction(cfg.Instruction)

	return &Service{
		config:  cfg,
		client:  client,
		chunker: NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		prompts: prompts,
		logger:  logger,
	}, nil
}

// TranslateDocument chunks the text, translates every chunk, and joins
// the results. A chunk that exhausts all providers fails the job.
func (s *Service) TranslateDocument(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	jobID := uuid.New().String()
	start := time.Now()
	chunks := s.chunker.Chunk(text)

	s.logger.Info("translation job started",
		zap.String("job_id", jobID),
		zap.Int("chunks", len(chunks)),
		zap.String("target", s.config.TargetLanguage),
		zap.Bool("use_ai", s.config.UseAI))

	opts := providers.TranslationOptions{
		SourceLanguage:     s.config.SourceLanguage,
		TargetLanguage:     s.config.TargetLanguage,
		PreserveFormatting: true,
		Instruction:        s.config.Instruction,
	}

	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		var result *providers.TranslationResult
		if s.config.UseAI {
			result = s.client.TranslateWithAI(ctx, chunk, opts)
		} else {
			result = s.client.Translate(ctx, chunk, opts)
		}
		if !result.Success {
			s.logger.Error("chunk translation failed",
				zap.String("job_id", jobID),
				zap.Int("chunk", i),
				zap.String("error", result.Error))
			return nil, fmt.Errorf("%w: chunk %d of %d: %s", ErrChunkFailed, i+1, len(chunks), result.Error)
		}
		translated = append(translated, result.TranslatedText)
	}

	res := &Result{
		JobID:    jobID,
		Text:     strings.Join(translated, "\n\n"),
		Chunks:   len(chunks),
		Duration: time.Since(start),
	}
	s.logger.Info("translation job finished",
		zap.String("job_id", jobID),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// Summarize produces a bounded summary of the text through the chat
// backends. Long input is summarized chunk by chunk, then condensed.
func (s *Service) Summarize(ctx context.Context, text string, maxWords int) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if maxWords <= 0 {
		maxWords = 200
	}

	jobID := uuid.New().String()
	start := time.Now()
	chunks := s.chunker.Chunk(text)

	prompt := s.prompts.SummaryPrompt(maxWords)
	parts := make([]string, 0, len(chunks))
	tokens := 0
	for i, chunk := range chunks {
		resp := s.complete(ctx, prompt, chunk)
		if !resp.Success {
			return nil, fmt.Errorf("%w: chunk %d of %d: %s", ErrChunkFailed, i+1, len(chunks), resp.Error)
		}
		parts = append(parts, resp.Content)
		if resp.Usage != nil {
			tokens += resp.Usage.TotalTokens
		}
	}

	summary := strings.Join(parts, "\n\n")
	if len(parts) > 1 {
		resp := s.complete(ctx, prompt, summary)
		if !resp.Success {
			return nil, fmt.Errorf("%w: condensing pass: %s", ErrChunkFailed, resp.Error)
		}
		summary = resp.Content
		if resp.Usage != nil {
			tokens += resp.Usage.TotalTokens
		}
	}

	return &Result{
		JobID:      jobID,
		Text:       summary,
		Chunks:     len(chunks),
		Duration:   time.Since(start),
		TokensUsed: tokens,
	}, nil
}

// Rewrite restyles the text chunk by chunk through the chat backends.
func (s *Service) Rewrite(ctx context.Context, text, style string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if style == "" {
		style = "clear and concise"
	}

	jobID := uuid.New().String()
	start := time.Now()
	chunks := s.chunker.Chunk(text)

	prompt := s.prompts.RewritePrompt(style)
	parts := make([]string, 0, len(chunks))
	tokens := 0
	for i, chunk := range chunks {
		resp := s.complete(ctx, prompt, chunk)
		if !resp.Success {
			return nil, fmt.Errorf("%w: chunk %d of %d: %s", ErrChunkFailed, i+1, len(chunks), resp.Error)
		}
		parts = append(parts, resp.Content)
		if resp.Usage != nil {
			tokens += resp.Usage.TotalTokens
		}
	}

	return &Result{
		JobID:      jobID,
		Text:       strings.Join(parts, "\n\n"),
		Chunks:     len(chunks),
		Duration:   time.Since(start),
		TokensUsed: tokens,
	}, nil
}

func (s *Service) complete(ctx context.Context, systemPrompt, text string) *providers.Response {
	return s.client.Complete(ctx,
		[]providers.Message{{Role: providers.RoleUser, Content: text}},
		providers.CompletionOptions{SystemPrompt: systemPrompt})
}

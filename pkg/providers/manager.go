package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// statusCheckTimeout bounds each availability probe in ProviderStatuses.
const statusCheckTimeout = 5 * time.Second

// CreateFunc builds an adapter from its configuration. The concrete
// implementation lives in the factory package so that this package stays
// free of vendor SDK imports.
type CreateFunc func(cfg ProviderConfig, logger *zap.Logger) (Provider, error)

// Manager owns the adapter registry, the per-provider rate limiters, the
// fallback chain and the retry policy. Every completion and translation
// call is routed through it; content-processing stages never touch an
// adapter directly.
//
// A Manager is safe for concurrent use. Registry mutation (AddProvider,
// RemoveProvider) is administrative and serialized against in-flight calls
// with a read-mostly lock.
type Manager struct {
	mu       sync.RWMutex
	adapters map[string]Provider
	configs  map[string]ProviderConfig
	limiters map[string]*RateLimiter

	defaultProvider string
	fallbackChain   []string
	retryAttempts   int
	timeout         time.Duration
	retryBaseDelay  time.Duration

	create CreateFunc
	logger *zap.Logger
}

// NewManager builds a manager and registers every enabled provider from the
// configuration. Invalid provider configurations are rejected here, never
// at request time.
func NewManager(cfg ManagerConfig, create CreateFunc, logger *zap.Logger) (*Manager, error) {
	if create == nil {
		return nil, fmt.Errorf("%w: adapter factory is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		adapters:        make(map[string]Provider),
		configs:         make(map[string]ProviderConfig),
		limiters:        make(map[string]*RateLimiter),
		defaultProvider: cfg.DefaultProvider,
		fallbackChain:   append([]string(nil), cfg.FallbackChain...),
		retryAttempts:   cfg.RetryAttempts,
		timeout:         cfg.Timeout,
		retryBaseDelay:  cfg.RetryBaseDelay,
		create:          create,
		logger:          logger,
	}

	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			m.logger.Info("skipping disabled provider", zap.String("provider_id", pc.ID))
			continue
		}
		if err := m.AddProvider(pc); err != nil {
			return nil, fmt.Errorf("failed to register provider %q: %w", pc.ID, err)
		}
	}

	return m, nil
}

// AddProvider validates a configuration, builds its adapter and registers
// config, adapter and rate limiter together. An existing provider with the
// same id is replaced; a replaced limiter starts from a fresh window, its
// accumulated counts are discarded.
func (m *Manager) AddProvider(cfg ProviderConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	adapter, err := m.create(cfg, m.logger)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.adapters[cfg.ID] = adapter
	m.configs[cfg.ID] = cfg
	if cfg.RateLimit != nil {
		m.limiters[cfg.ID] = NewRateLimiter(*cfg.RateLimit)
	} else {
		delete(m.limiters, cfg.ID)
	}

	m.logger.Info("provider registered",
		zap.String("provider_id", cfg.ID),
		zap.String("type", string(cfg.Type)),
		zap.Bool("rate_limited", cfg.RateLimit != nil))
	return nil
}

// RemoveProvider unregisters a provider. Adapter, config and limiter are
// removed together; removing an unknown id is a no-op.
func (m *Manager) RemoveProvider(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.adapters, id)
	delete(m.configs, id)
	delete(m.limiters, id)
}

// Provider returns the registered adapter for an id.
func (m *Manager) Provider(id string) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adapter, ok := m.adapters[id]
	return adapter, ok
}

// lookup snapshots the adapter and limiter for one candidate under the
// read lock, so a concurrent RemoveProvider cannot pull them out from
// under an in-flight call.
func (m *Manager) lookup(id string) (Provider, *RateLimiter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	adapter, ok := m.adapters[id]
	if !ok {
		return nil, nil, false
	}
	return adapter, m.limiters[id], true
}

// candidateChain builds the deterministic failover order: the requested (or
// default) provider first, then the fallback chain minus that provider.
// Priority never reorders the chain at call time.
func (m *Manager) candidateChain(primary string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain := make([]string, 0, len(m.fallbackChain)+1)
	if primary != "" {
		chain = append(chain, primary)
	}
	for _, id := range m.fallbackChain {
		if id != primary {
			chain = append(chain, id)
		}
	}
	return chain
}

// Complete routes a completion through rate limiting, per-provider retry
// and the fallback chain. It always returns a result value: when every
// candidate fails the result is Success=false, never a Go error.
func (m *Manager) Complete(ctx context.Context, messages []Message, opts CompletionOptions) *Response {
	primary := opts.ProviderID
	if primary == "" {
		m.mu.RLock()
		primary = m.defaultProvider
		m.mu.RUnlock()
	}

	estimated := estimateTokens(messages, opts)

	for _, id := range m.candidateChain(primary) {
		adapter, limiter, ok := m.lookup(id)
		if !ok {
			// Absent ids in the chain are skipped, not errors.
			continue
		}

		resp, err := m.executeOnProvider(ctx, id, adapter, limiter, estimated,
			func(callCtx context.Context) (*Response, error) {
				return adapter.Complete(callCtx, messages, opts)
			})
		if err != nil {
			m.logger.Warn("provider failed, trying next candidate",
				zap.String("provider_id", id),
				zap.String("provider", adapter.Name()),
				zap.Error(err))
			continue
		}
		if resp.Success {
			return resp
		}
		m.logger.Warn("provider returned unsuccessful response",
			zap.String("provider_id", id),
			zap.String("error", resp.Error))
	}

	return &Response{Success: false, Error: "all providers failed"}
}

// executeOnProvider applies the shared per-candidate discipline: acquire a
// rate-limit slot, run the call with bounded retry under the configured
// timeout, and release the slot on every exit path with the tokens used.
func (m *Manager) executeOnProvider(ctx context.Context, id string, adapter Provider, limiter *RateLimiter,
	estimatedTokens int, call func(context.Context) (*Response, error),
) (*Response, error) {
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if limiter != nil {
		if err := limiter.WaitForSlot(callCtx, estimatedTokens); err != nil {
			return nil, fmt.Errorf("provider %q: %w", id, err)
		}
	}

	resp, err := m.executeWithRetry(callCtx, func() (*Response, error) {
		return call(callCtx)
	})
	if err != nil {
		if limiter != nil {
			limiter.EndRequest(0)
		}
		return nil, err
	}

	if limiter != nil {
		tokens := 0
		if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		limiter.EndRequest(tokens)
	}
	return resp, nil
}

// executeWithRetry attempts fn up to retryAttempts times, sleeping
// retryBaseDelay*2^i between attempts. Non-retryable errors fail over
// immediately; the last error is returned to the caller after the final
// attempt.
func (m *Manager) executeWithRetry(ctx context.Context, fn func() (*Response, error)) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < m.retryAttempts; attempt++ {
		if attempt > 0 {
			delay := m.retryBaseDelay << (attempt - 1)
			m.logger.Debug("retrying after backoff",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(delay):
			}
		}

		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// findTranslationProvider resolves the provider id to use for a native
// translation: a deepl-typed provider wins, then any adapter exposing the
// Translator capability, then the default provider (which signals
// "translate via completion" to the caller).
func (m *Manager) findTranslationProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, cfg := range m.configs {
		if cfg.Type == TypeDeepL {
			return id
		}
	}
	for id, adapter := range m.adapters {
		if _, ok := adapter.(Translator); ok {
			return id
		}
	}
	return m.defaultProvider
}

// Translate routes a native translation through a translation-capable
// provider with the same rate-limit discipline as Complete, using the text
// length as the token proxy. A provider without the capability yields a
// failure result, not an error.
func (m *Manager) Translate(ctx context.Context, text string, opts TranslationOptions) *TranslationResult {
	id := opts.ProviderID
	if id == "" {
		id = m.findTranslationProvider()
	}

	adapter, limiter, ok := m.lookup(id)
	if !ok {
		return &TranslationResult{Success: false, Error: fmt.Sprintf("provider %q not found", id)}
	}

	translator, ok := adapter.(Translator)
	if !ok {
		return &TranslationResult{
			Success: false,
			Error:   fmt.Sprintf("provider %q does not support native translation", id),
		}
	}

	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if limiter != nil {
		if err := limiter.WaitForSlot(callCtx, len(text)); err != nil {
			return &TranslationResult{Success: false, Error: err.Error()}
		}
	}

	result, err := translator.Translate(callCtx, text, opts)
	if err != nil {
		if limiter != nil {
			limiter.EndRequest(0)
		}
		m.logger.Warn("translation failed",
			zap.String("provider_id", id),
			zap.Error(err))
		return &TranslationResult{Success: false, Error: err.Error()}
	}
	if limiter != nil {
		limiter.EndRequest(len(text))
	}
	return result
}

// TranslateWithAI performs a translation through a chat completion backend
// by building the translation instruction into the system prompt. It calls
// Complete, never Translate, so the two paths cannot recurse.
func (m *Manager) TranslateWithAI(ctx context.Context, text string, opts TranslationOptions) *TranslationResult {
	systemPrompt := buildTranslationPrompt(opts)

	resp := m.Complete(ctx, []Message{{Role: RoleUser, Content: text}}, CompletionOptions{
		SystemPrompt: systemPrompt,
		ProviderID:   opts.ProviderID,
	})
	if !resp.Success {
		return &TranslationResult{Success: false, Error: resp.Error}
	}
	return &TranslationResult{
		Success:        true,
		TranslatedText: resp.Content,
	}
}

// buildTranslationPrompt turns translation options into a system prompt for
// a chat completion backend.
func buildTranslationPrompt(opts TranslationOptions) string {
	prompt := "You are a professional translator."
	if opts.SourceLanguage != "" {
		prompt += fmt.Sprintf(" Translate the user's text from %s to %s.", opts.SourceLanguage, opts.TargetLanguage)
	} else {
		prompt += fmt.Sprintf(" Translate the user's text to %s.", opts.TargetLanguage)
	}
	if opts.PreserveFormatting {
		prompt += " Preserve the original formatting, markup and whitespace exactly."
	}
	if opts.Formality != "" {
		prompt += fmt.Sprintf(" Use a %s register.", opts.Formality)
	}
	if opts.Instruction != "" {
		prompt += "\n\n" + opts.Instruction
	}
	prompt += " Output only the translated text."
	return prompt
}

// ProviderStatuses probes every registered provider, racing each probe
// against a fixed 5 second deadline. A probe that loses the race is
// reported as unavailable; the underlying call is not aborted and finishes
// unobserved. The method never fails: per-provider problems surface inline.
func (m *Manager) ProviderStatuses(ctx context.Context) []Status {
	m.mu.RLock()
	ids := make([]string, 0, len(m.adapters))
	for id := range m.adapters {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	statuses := make([]Status, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		adapter, _, ok := m.lookup(id)
		if !ok {
			continue
		}
		m.mu.RLock()
		name := m.configs[id].Name
		m.mu.RUnlock()
		if name == "" {
			name = adapter.Name()
		}

		wg.Add(1)
		go func(i int, id, name string, adapter Provider) {
			defer wg.Done()
			statuses[i] = m.checkProvider(ctx, id, name, adapter)
		}(i, id, name, adapter)
	}
	wg.Wait()

	return statuses
}

// checkProvider races one availability probe against statusCheckTimeout.
func (m *Manager) checkProvider(ctx context.Context, id, name string, adapter Provider) Status {
	start := time.Now()
	status := Status{ID: id, Name: name, LastCheck: start}

	probeCtx, cancel := context.WithTimeout(ctx, statusCheckTimeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		done <- adapter.IsAvailable(probeCtx)
	}()

	select {
	case available := <-done:
		status.Available = available
		status.Latency = time.Since(start)
		if !available {
			status.Error = "availability probe failed"
		}
	case <-probeCtx.Done():
		status.Available = false
		status.Latency = time.Since(start)
		status.Error = "availability check timed out"
	}
	return status
}

// TestProvider builds a throwaway adapter from a candidate configuration
// and probes it, without touching the registry. Used to vet credentials
// before saving a configuration.
func (m *Manager) TestProvider(ctx context.Context, cfg ProviderConfig) Status {
	status := Status{ID: cfg.ID, Name: cfg.Name, LastCheck: time.Now()}

	if err := cfg.Validate(); err != nil {
		status.Error = err.Error()
		return status
	}
	adapter, err := m.create(cfg, m.logger)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	return m.checkProvider(ctx, cfg.ID, cfg.Name, adapter)
}

// estimateTokens approximates the prompt cost of a completion for rate-limit
// admission. Four characters per token is the usual rough cut; the real
// usage reported by the backend replaces the estimate at EndRequest time.
func estimateTokens(messages []Message, opts CompletionOptions) int {
	chars := len(opts.SystemPrompt)
	for _, msg := range messages {
		chars += len(msg.Content)
	}
	return chars / 4
}

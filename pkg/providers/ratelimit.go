package providers

import (
	"context"
	"sync"
	"time"
)

const (
	// rateLimitWindow is the fixed budget window. Counters reset once the
	// window has fully elapsed; this is deliberately not a sliding log, so
	// bursty traffic may briefly admit close to twice the nominal rate
	// across a window boundary.
	rateLimitWindow = 60 * time.Second

	// slotPollInterval is how often WaitForSlot re-checks the budget.
	slotPollInterval = 100 * time.Millisecond
)

// RateLimiter enforces up to three independent budgets for one provider
// inside a fixed 60 second window: requests per minute, tokens per minute
// and concurrent in-flight calls. A zero budget disables that check.
//
// All state is guarded by a single mutex so that the check and the
// increment acting on it are atomic with respect to concurrent callers;
// use TryAcquire (or WaitForSlot) rather than CanRequest+StartRequest when
// racing for the last slot matters.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	tokensPerMinute   int
	maxConcurrent     int

	requestCount    int
	tokenCount      int
	concurrentCount int
	windowStart     time.Time

	// now is replaceable in tests to simulate clock advancement.
	now func() time.Time
}

// RateLimitStatus is a read-only snapshot for observability.
type RateLimitStatus struct {
	RequestCount      int           `json:"request_count"`
	TokenCount        int           `json:"token_count"`
	ConcurrentCount   int           `json:"concurrent_count"`
	RequestsPerMinute int           `json:"requests_per_minute"`
	TokensPerMinute   int           `json:"tokens_per_minute"`
	MaxConcurrent     int           `json:"max_concurrent"`
	WindowStart       time.Time     `json:"window_start"`
	WindowResetIn     time.Duration `json:"window_reset_in"`
}

// NewRateLimiter creates a limiter from a budget configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	l := &RateLimiter{
		requestsPerMinute: cfg.RequestsPerMinute,
		tokensPerMinute:   cfg.TokensPerMinute,
		maxConcurrent:     cfg.MaxConcurrent,
		now:               time.Now,
	}
	l.windowStart = l.now()
	return l
}

// resetWindowLocked zeroes the counters once the window has elapsed.
// Callers must hold mu.
func (l *RateLimiter) resetWindowLocked() {
	if l.now().Sub(l.windowStart) >= rateLimitWindow {
		l.requestCount = 0
		l.tokenCount = 0
		l.windowStart = l.now()
	}
}

// canRequestLocked checks every enabled budget. Callers must hold mu.
func (l *RateLimiter) canRequestLocked(estimatedTokens int) bool {
	if l.requestsPerMinute > 0 && l.requestCount >= l.requestsPerMinute {
		return false
	}
	if l.tokensPerMinute > 0 && l.tokenCount+estimatedTokens > l.tokensPerMinute {
		return false
	}
	if l.maxConcurrent > 0 && l.concurrentCount >= l.maxConcurrent {
		return false
	}
	return true
}

// CanRequest reports whether a request with the given token estimate would
// currently fit the budget. The answer can be stale by the time the caller
// acts on it; TryAcquire is the race-free path.
func (l *RateLimiter) CanRequest(estimatedTokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetWindowLocked()
	return l.canRequestLocked(estimatedTokens)
}

// TryAcquire atomically checks the budget and, if it fits, records the
// request start. Exactly one of two concurrent callers competing for the
// last slot wins.
func (l *RateLimiter) TryAcquire(estimatedTokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetWindowLocked()
	if !l.canRequestLocked(estimatedTokens) {
		return false
	}
	l.requestCount++
	l.concurrentCount++
	return true
}

// StartRequest unconditionally records a request start. Prefer TryAcquire;
// StartRequest exists for callers that already hold an authorization.
func (l *RateLimiter) StartRequest() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetWindowLocked()
	l.requestCount++
	l.concurrentCount++
}

// EndRequest releases the in-flight slot and accounts the tokens actually
// used (0 on failure). Must be called exactly once per acquired slot, on
// every exit path.
func (l *RateLimiter) EndRequest(tokensUsed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.concurrentCount > 0 {
		l.concurrentCount--
	}
	if tokensUsed > 0 {
		l.tokenCount += tokensUsed
	}
}

// WaitForSlot blocks until the budget admits the request, acquiring the
// slot atomically when it does. It polls on a short interval and gives up
// with ErrRateLimitExceeded when ctx is done, so the caller's deadline
// bounds the wait. A request is never silently dropped: the caller gets
// either a slot or an explicit error.
func (l *RateLimiter) WaitForSlot(ctx context.Context, estimatedTokens int) error {
	if l.TryAcquire(estimatedTokens) {
		return nil
	}

	ticker := time.NewTicker(slotPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ErrRateLimitExceeded
		case <-ticker.C:
			if l.TryAcquire(estimatedTokens) {
				return nil
			}
		}
	}
}

// Status returns a snapshot of the limiter state. It never mutates state:
// an elapsed window shows its stale counters until the next acquire.
func (l *RateLimiter) Status() RateLimitStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	resetIn := rateLimitWindow - l.now().Sub(l.windowStart)
	if resetIn < 0 {
		resetIn = 0
	}
	return RateLimitStatus{
		RequestCount:      l.requestCount,
		TokenCount:        l.tokenCount,
		ConcurrentCount:   l.concurrentCount,
		RequestsPerMinute: l.requestsPerMinute,
		TokensPerMinute:   l.tokensPerMinute,
		MaxConcurrent:     l.maxConcurrent,
		WindowStart:       l.windowStart,
		WindowResetIn:     resetIn,
	}
}

// Reset zeroes all counters and restarts the window. Administrative escape
// hatch; in-flight accounting is discarded.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requestCount = 0
	l.tokenCount = 0
	l.concurrentCount = 0
	l.windowStart = l.now()
}

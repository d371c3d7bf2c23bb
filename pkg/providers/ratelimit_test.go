package providers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter window without real sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(cfg RateLimitConfig) (*RateLimiter, *fakeClock) {
	clock := newFakeClock()
	l := NewRateLimiter(cfg)
	l.now = clock.Now
	l.windowStart = clock.Now()
	return l, clock
}

func TestRateLimiterWindowReset(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		require.True(t, l.TryAcquire(0), "request %d should fit the budget", i+1)
		l.EndRequest(0)
	}

	assert.False(t, l.CanRequest(0), "4th request must be denied inside the window")
	assert.False(t, l.TryAcquire(0))

	clock.Advance(59 * time.Second)
	assert.False(t, l.CanRequest(0), "window has not elapsed yet")

	clock.Advance(time.Second)
	assert.True(t, l.CanRequest(0), "window elapsed, budget must reset")

	status := l.Status()
	assert.Equal(t, 0, status.RequestCount)
	assert.Equal(t, 0, status.TokenCount)
}

func TestRateLimiterTokenAccounting(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{TokensPerMinute: 1000})

	tokensUsed := []int{100, 0, 250, 42}
	sum := 0
	for _, tokens := range tokensUsed {
		require.True(t, l.TryAcquire(0))
		l.EndRequest(tokens)
		sum += tokens
	}

	status := l.Status()
	assert.Equal(t, sum, status.TokenCount)
	assert.Equal(t, 0, status.ConcurrentCount)
	assert.GreaterOrEqual(t, status.TokenCount, 0)
}

func TestRateLimiterTokenBudgetDeniesEstimate(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{TokensPerMinute: 100})

	require.True(t, l.TryAcquire(60))
	l.EndRequest(60)

	assert.True(t, l.CanRequest(40), "exactly filling the budget is allowed")
	assert.False(t, l.CanRequest(41), "estimate exceeding the budget is denied")
}

func TestRateLimiterConcurrentCap(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{MaxConcurrent: 2})

	require.True(t, l.TryAcquire(0))
	require.True(t, l.TryAcquire(0))
	assert.False(t, l.TryAcquire(0), "third in-flight call exceeds the cap")

	l.EndRequest(0)
	assert.True(t, l.TryAcquire(0), "released slot is reusable")
}

func TestRateLimiterLastSlotRace(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{RequestsPerMinute: 5})

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire(0) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, acquired, "exactly the budget may be acquired under contention")
	assert.Equal(t, 5, l.Status().RequestCount)
}

func TestRateLimiterWaitForSlotTimesOut(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{RequestsPerMinute: 1})
	require.True(t, l.TryAcquire(0))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := l.WaitForSlot(ctx, 0)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestRateLimiterWaitForSlotAcquiresFreedSlot(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{MaxConcurrent: 1})
	require.True(t, l.TryAcquire(0))

	go func() {
		time.Sleep(150 * time.Millisecond)
		l.EndRequest(0)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := l.WaitForSlot(ctx, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, l.Status().ConcurrentCount)
}

func TestRateLimiterEndRequestNeverGoesNegative(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{MaxConcurrent: 1})

	l.EndRequest(0)
	l.EndRequest(10)

	status := l.Status()
	assert.Equal(t, 0, status.ConcurrentCount)
	assert.Equal(t, 10, status.TokenCount)
}

func TestRateLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{RequestsPerMinute: 2, TokensPerMinute: 100})
	require.True(t, l.TryAcquire(0))
	l.EndRequest(50)

	l.Reset()

	status := l.Status()
	assert.Equal(t, 0, status.RequestCount)
	assert.Equal(t, 0, status.TokenCount)
	assert.Equal(t, 0, status.ConcurrentCount)
}

func TestRateLimiterStatusDoesNotMutate(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{RequestsPerMinute: 1})
	require.True(t, l.TryAcquire(0))
	l.EndRequest(0)

	clock.Advance(2 * rateLimitWindow)

	// Status reports the stale window untouched; the reset happens on the
	// next admission check.
	assert.Equal(t, 1, l.Status().RequestCount)
	assert.True(t, l.CanRequest(0))
	assert.Equal(t, 0, l.Status().RequestCount)
}

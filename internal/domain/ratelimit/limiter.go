package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Scope names the two independent ceilings enforced per tenant.
type Scope string

const (
	ScopeMinute Scope = "minute"
	ScopeDay    Scope = "day"
)

// CodeRateLimited is the stable error code for quota rejections.
const CodeRateLimited = "rate_limited"

// Error is returned when a tenant exceeds a ceiling. RetryAfter is computed
// from the window boundary; this is the only pipeline error with defined
// client-side retry guidance.
type Error struct {
	Scope      Scope
	Limit      int
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Limit, e.Scope)
}

// CounterStore is a keyed atomic counter with windowed expiry. Incr must
// atomically increment and return the new count for (key, windowStart) so
// concurrent requests for one tenant never undercount.
type CounterStore interface {
	Incr(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error)
}

// Limiter enforces per-tenant requests-per-minute and requests-per-day
// ceilings over fixed windows.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// Allow consumes one request slot for tenantID. It returns *Error when either
// ceiling is exceeded and nil when the request may proceed. Store failures
// are returned as-is; callers decide whether to fail open.
func (l *Limiter) Allow(ctx context.Context, tenantID string, perMinute, perDay int) error {
	now := l.now().UTC()

	minuteStart := now.Truncate(time.Minute)
	count, err := l.store.Incr(ctx, minuteKey(tenantID), minuteStart, 2*time.Minute)
	if err != nil {
		return fmt.Errorf("increment minute window: %w", err)
	}
	if count > int64(perMinute) {
		return &Error{
			Scope:      ScopeMinute,
			Limit:      perMinute,
			RetryAfter: positive(minuteStart.Add(time.Minute).Sub(now)),
		}
	}

	dayStart := now.Truncate(24 * time.Hour)
	count, err = l.store.Incr(ctx, dayKey(tenantID), dayStart, 48*time.Hour)
	if err != nil {
		return fmt.Errorf("increment day window: %w", err)
	}
	if count > int64(perDay) {
		return &Error{
			Scope:      ScopeDay,
			Limit:      perDay,
			RetryAfter: positive(dayStart.Add(24 * time.Hour).Sub(now)),
		}
	}

	return nil
}

func minuteKey(tenantID string) string { return "rl:m:" + tenantID }
func dayKey(tenantID string) string    { return "rl:d:" + tenantID }

// positive guards against a zero retry-after at the exact window edge.
func positive(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	return d
}

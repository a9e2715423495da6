package venue

import (
	"context"
	"math/rand"
	"time"
)

// ReconnectConfig is the backoff schedule for one reconnect cycle. Unlike
// pkg/retry.Config (whose jitter is a multiplicative +/- fraction of the
// delay), reconnect delays use an additive, one-sided jitter window, so
// this schedule is its own small type rather than a retry.Config literal.
type ReconnectConfig struct {
	InitialDelay        time.Duration
	MaxDelay            time.Duration
	MaxAttemptsPerCycle int
	JitterMax           time.Duration
}

// DefaultReconnectConfig matches the venue reconnect policy: 500ms initial,
// doubling per attempt, capped at 5s, 3 attempts per cycle before the
// adapter reports failure to the supervisor, plus 0-199ms jitter on every
// delay to avoid herd reconnects after a shared outage.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialDelay:        500 * time.Millisecond,
		MaxDelay:            5 * time.Second,
		MaxAttemptsPerCycle: 3,
		JitterMax:           199 * time.Millisecond,
	}
}

// delayForAttempt returns the base (pre-jitter) delay for the kth attempt
// (0-indexed): min(initial*2^k, cap).
func (c ReconnectConfig) delayForAttempt(attempt int) time.Duration {
	delay := c.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			delay = c.MaxDelay
			break
		}
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// jitter returns a pseudo-random [0, JitterMax) delay addition. rng may be
// nil, in which case the package-level source is used.
func (c ReconnectConfig) jitter(rng *rand.Rand) time.Duration {
	if c.JitterMax <= 0 {
		return 0
	}
	if rng != nil {
		return time.Duration(rng.Int63n(int64(c.JitterMax)))
	}
	return time.Duration(rand.Int63n(int64(c.JitterMax)))
}

// ReconnectWithBackoff runs up to cfg.MaxAttemptsPerCycle connect attempts,
// waiting delayForAttempt(k)+jitter between them. It returns nil on the
// first successful connectFn call, or the last error once attempts are
// exhausted. The caller (the adapter's supervisor-driven reconnect loop) is
// expected to call this repeatedly, indefinitely, on failure — this
// function itself never retries forever.
func ReconnectWithBackoff(ctx context.Context, cfg ReconnectConfig, connectFn func(ctx context.Context) error) error {
	return reconnectWithBackoff(ctx, cfg, connectFn, nil)
}

// reconnectWithBackoff is the testable core: an explicit *rand.Rand lets
// property tests pin jitter deterministically.
func reconnectWithBackoff(ctx context.Context, cfg ReconnectConfig, connectFn func(ctx context.Context) error, rng *rand.Rand) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttemptsPerCycle; attempt++ {
		delay := cfg.delayForAttempt(attempt) + cfg.jitter(rng)

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return lastErr
			}
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := connectFn(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return lastErr
}

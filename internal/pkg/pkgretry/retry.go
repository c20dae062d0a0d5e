package pkgretry

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is used for zero fields of a Policy.
var DefaultPolicy = Policy{
	MaxAttempts: 5,
	BaseDelay:   20 * time.Millisecond,
	MaxDelay:    time.Second,
}

func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}

// Do calls fn until it succeeds, returns an error rejected by retryable, or
// MaxAttempts calls were made. The last error is returned as is.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context) error) error {
	p = p.normalize()

	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		if serr := sleep(ctx, FullJitter(Exponential(p.BaseDelay, attempt, p.MaxDelay))); serr != nil {
			return fmt.Errorf("%w (retry aborted: %v)", err, serr)
		}
	}

	return err
}

// Exponential returns base * 2^attempt capped at limit.
func Exponential(base time.Duration, attempt int, limit time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 62 {
		attempt = 62
	}

	multiplier := int64(1) << attempt
	if int64(base) > math.MaxInt64/multiplier {
		return limit
	}

	d := time.Duration(int64(base) * multiplier)
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

// FullJitter returns a random duration in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(d)))
	if err != nil {
		return d / 2
	}
	return time.Duration(n.Int64())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

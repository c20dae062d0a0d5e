package pkglock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

// Locker runs fn while holding the named lock. It reports false without
// calling fn when another holder has the lock.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}

// Redis is a Locker backed by redsync.
type Redis struct {
	rs  *redsync.Redsync
	ttl time.Duration
}

// NewRedis builds a Redis locker. Locks expire after ttl so a crashed holder
// cannot block others forever.
func NewRedis(client goredislib.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Redis{
		rs:  redsync.New(goredis.NewPool(client)),
		ttl: ttl,
	}
}

func (l *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.ttl), redsync.WithTries(1))

	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return false, nil
		}
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil || !ok {
			slog.WarnContext(ctx, "failed to release lock", "key", key, "error", err)
		}
	}()

	return true, fn(ctx)
}

// Noop is a Locker for single-instance deployments; it always acquires.
type Noop struct{}

func (Noop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) (bool, error) {
	return true, fn(ctx)
}

package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/goledger/internal/ledger/entity"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goledger/internal/pkg/pkglock"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgretry"
	"github.com/shandysiswandi/goledger/internal/pkg/pkgroutine"
)

const (
	DefaultInterval  = 10 * time.Second
	DefaultThreshold = 48 * time.Hour
	DefaultWorkers   = 8
	DefaultLockKey   = "goledger:settlement:sweep"
)

type Store interface {
	ListStalePending(ctx context.Context, cutoff time.Time) ([]entity.Transaction, error)
	RunAtomic(ctx context.Context, ops ...entity.Op) error
}

type Clock interface {
	Now() time.Time
}

type Config struct {
	Interval  time.Duration
	Threshold time.Duration
	Workers   int
	LockKey   string
	Retry     pkgretry.Policy
}

type Dependency struct {
	Store  Store
	Clock  Clock
	Locker pkglock.Locker
	Config Config
}

// Result summarises one sweep run.
type Result struct {
	Found   int
	Settled int
	// Skipped counts transactions another sweeper settled first.
	Skipped int
	Failed  int
	// Deferred counts transactions left PENDING because ctx ended before
	// they were started. The next run picks them up.
	Deferred int
}

// Sweeper settles PENDING transfers once they are older than the threshold.
type Sweeper struct {
	store     Store
	clock     Clock
	locker    pkglock.Locker
	interval  time.Duration
	threshold time.Duration
	workers   int
	lockKey   string
	retry     pkgretry.Policy

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(dep Dependency) *Sweeper {
	cfg := dep.Config

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	lockKey := cfg.LockKey
	if lockKey == "" {
		lockKey = DefaultLockKey
	}

	var clock Clock = realClock{}
	if dep.Clock != nil {
		clock = dep.Clock
	}

	var locker pkglock.Locker = pkglock.Noop{}
	if dep.Locker != nil {
		locker = dep.Locker
	}

	return &Sweeper{
		store:     dep.Store,
		clock:     clock,
		locker:    locker,
		interval:  interval,
		threshold: threshold,
		workers:   workers,
		lockKey:   lockKey,
		retry:     cfg.Retry,
		done:      make(chan struct{}),
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Start runs the sweep loop in its own goroutine until Stop is called.
// Calling it more than once is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)
		_ = s.Run(ctx)
	}()
}

// Stop ends a loop launched by Start and waits for an in-flight run, bounded
// by ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	started, cancel := s.started, s.cancel
	s.mu.Unlock()

	if !started {
		return nil
	}
	cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run sweeps every interval until ctx is done. A failed run is logged and the
// loop carries on.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "settlement sweeper started", "interval", s.interval.String(), "threshold", s.threshold.String())

	for {
		select {
		case <-ctx.Done():
			slog.Info("settlement sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "settlement sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs once under the sweep lock. When another instance holds the lock
// it returns an empty Result.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result
	acquired, err := s.locker.WithLock(ctx, s.lockKey, func(ctx context.Context) error {
		var err error
		res, err = s.SettleDue(ctx)
		return err
	})
	if err != nil {
		return res, err
	}
	if !acquired {
		slog.DebugContext(ctx, "settlement sweep skipped, lock held elsewhere", "key", s.lockKey)
	}

	return res, nil
}

// SettleDue settles every PENDING transaction created before now minus the
// threshold. A failing transaction is logged and counted; it never stops the
// others.
func (s *Sweeper) SettleDue(ctx context.Context) (Result, error) {
	if s.store == nil {
		return Result{}, pkgerror.NewServer(errors.New("settlement store is not configured"))
	}

	cutoff := s.clock.Now().Add(-s.threshold)
	due, err := s.store.ListStalePending(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("list stale pending transactions: %w", err)
	}

	res := Result{Found: len(due)}
	if len(due) == 0 {
		return res, nil
	}

	var settled, skipped atomic.Int64
	started := 0
	mgr := pkgroutine.NewManager(s.workers)
	for _, tx := range due {
		scheduled := mgr.Go(ctx, func(ctx context.Context) error {
			err := s.settle(ctx, tx)
			switch {
			case err == nil:
				settled.Add(1)
				slog.InfoContext(ctx, "transaction settled",
					"tx_id", tx.ID,
					"to_account_id", derefID(tx.ToAccountID),
					"amount", tx.Amount.String(),
				)
				return nil
			case errors.Is(err, entity.ErrNotPending):
				skipped.Add(1)
				return nil
			default:
				slog.ErrorContext(ctx, "failed to settle transaction", "tx_id", tx.ID, "error", err)
				return fmt.Errorf("settle transaction %d: %w", tx.ID, err)
			}
		})
		if !scheduled {
			break
		}
		started++
	}

	// Per-item errors are already logged; only the counts matter here.
	_ = mgr.Wait()

	res.Settled = int(settled.Load())
	res.Skipped = int(skipped.Load())
	res.Failed = started - res.Settled - res.Skipped
	res.Deferred = res.Found - started

	slog.InfoContext(ctx, "settlement sweep finished",
		"found", res.Found,
		"settled", res.Settled,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"deferred", res.Deferred,
	)

	return res, nil
}

// settle flips tx to SETTLED and credits the receiver with the face amount in
// one atomic unit. The status predicate makes a second attempt fail with
// entity.ErrNotPending instead of crediting twice.
func (s *Sweeper) settle(ctx context.Context, tx entity.Transaction) error {
	if tx.ToAccountID == nil {
		return fmt.Errorf("transaction %d has no receiver", tx.ID)
	}

	at := s.clock.Now()
	return pkgretry.Do(ctx, s.retry, pkgerror.IsRetryable, func(ctx context.Context) error {
		return s.store.RunAtomic(ctx,
			entity.SettleTransaction{ID: tx.ID, At: at},
			entity.AdjustBalance{AccountID: *tx.ToAccountID, Delta: tx.Amount},
		)
	})
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

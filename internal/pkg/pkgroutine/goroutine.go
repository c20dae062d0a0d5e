package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine = 10

// ErrPanic is collected in place of the error of a task that panicked.
var ErrPanic = errors.New("goroutine panicked")

// Manager runs tasks on at most a fixed number of goroutines and keeps the
// errors they return until Wait.
type Manager struct {
	wg    sync.WaitGroup
	slots chan struct{}

	mu   sync.Mutex
	errs []error
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}
	return &Manager{slots: make(chan struct{}, maxGoroutine)}
}

// Go runs f on its own goroutine once a slot is free, blocking until then.
// It reports false, without running f, when ctx ends first.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "task dropped before start", "error", ctx.Err())
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() { <-g.slots }()
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "task panicked", "panic", rvr, "stack", string(debug.Stack()))
				g.collect(fmt.Errorf("%w: %v", ErrPanic, rvr))
			}
		}()

		if err := f(ctx); err != nil {
			g.collect(err)
		}
	}()
	return true
}

func (g *Manager) collect(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = append(g.errs, err)
}

// Wait blocks until every started task returns, then joins their errors.
func (g *Manager) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

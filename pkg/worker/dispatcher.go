// Package worker runs detached tasks: work submitted after a response is
// already decided, whose failures are logged and never reach the caller.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Task is a unit of detached work. The context carries the task timeout.
type Task func(ctx context.Context) error

// ErrClosed is returned by Submit after Shutdown has started.
var ErrClosed = errors.New("dispatcher is shut down")

type Dispatcher struct {
	wg      conc.WaitGroup
	sem     chan struct{}
	timeout time.Duration
	log     *zap.Logger

	base   context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher runs at most concurrency tasks at once, each bounded by timeout.
func NewDispatcher(concurrency int, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sem:     make(chan struct{}, concurrency),
		timeout: timeout,
		log:     log.With(zap.String("component", "dispatcher")),
		base:    base,
		cancel:  cancel,
	}
}

// Submit schedules task and returns immediately. Tasks queue for a
// concurrency slot inside their own goroutine so callers never block.
func (d *Dispatcher) Submit(name string, task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("Task rejected after shutdown", zap.String("task", name))
		return ErrClosed
	}

	d.wg.Go(func() {
		d.run(name, task)
	})
	return nil
}

func (d *Dispatcher) run(name string, task Task) {
	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-d.base.Done():
		d.log.Warn("Task dropped on shutdown", zap.String("task", name))
		return
	}

	ctx, cancel := context.WithTimeout(d.base, d.timeout)
	defer cancel()

	start := time.Now()
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = task(ctx) })

	if r := pc.Recovered(); r != nil {
		d.log.Error("Task panicked",
			zap.String("task", name),
			zap.Error(r.AsError()),
			zap.String("stack", string(r.Stack)),
		)
		return
	}
	if err != nil {
		d.log.Error("Task failed",
			zap.String("task", name),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}

	d.log.Debug("Task done", zap.String("task", name), zap.Duration("duration", time.Since(start)))
}

// Shutdown stops accepting tasks and waits for running ones. If ctx ends
// first, task contexts are cancelled and ctx's error is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

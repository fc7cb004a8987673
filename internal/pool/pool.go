// Package pool implements the bounded execution slot pool that runs work
// items concurrently against a shared capability environment.
//
// A pool is created in the Open state and transitions to Closed exactly once.
// Up to Capacity.Max work items execute concurrently; excess submissions
// queue on the slot semaphore until a slot frees. Submission is non-blocking:
// callers receive a Handle whose completion is polled, never waited on.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/akshayn23/drover/internal/capability"
	"github.com/akshayn23/drover/internal/util"
)

// State is the lifecycle state of a pool
type State int32

const (
	// StateUnopened is the zero value; no usable pool is ever in this state
	// because Open constructs pools directly into StateOpen
	StateUnopened State = iota
	// StateOpen accepts submissions and runs work
	StateOpen
	// StateClosed accepts nothing; terminal
	StateClosed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnopened:
		return "Unopened"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Capacity bounds the pool's concurrency
type Capacity struct {
	// Min is the minimum concurrency the caller expects; informational
	Min int
	// Max is the hard bound on concurrently executing work items
	Max int
}

// normalize clamps capacity to sane values: Max >= Min >= 1
func (c Capacity) normalize() Capacity {
	if c.Min < 1 {
		c.Min = 1
	}
	if c.Max < c.Min {
		c.Max = c.Min
	}
	return c
}

// WorkFunc is a single work item. It receives a per-task isolated scope over
// the pool's capability environment and the caller-supplied argument list.
// The context is cancelled when the task times out or the pool closes.
type WorkFunc func(ctx context.Context, scope *capability.Scope, args []interface{}) (interface{}, error)

// Pool is a bounded set of execution slots sharing one capability environment
type Pool struct {
	capacity Capacity
	env      *capability.Env
	logger   *slog.Logger

	// slots bounds concurrent work item execution
	slots *semaphore.Weighted

	// baseCtx parents every work item context; cancelled on Close
	baseCtx context.Context
	cancel  context.CancelFunc

	state atomic.Int32

	// wg tracks in-flight work item goroutines for Dispose
	wg sync.WaitGroup
}

// Open materializes the capability bundle and constructs a pool in the Open
// state. Individual capability failures are warned and tolerated; only a
// failing required capability aborts construction.
func Open(capacity Capacity, bundle *capability.Bundle, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	capacity = capacity.normalize()

	if bundle == nil {
		bundle = capability.NewBundle()
	}

	env, err := bundle.Materialize(logger)
	if err != nil {
		return nil, util.WrapErrorf(err, "failed to open pool")
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		capacity: capacity,
		env:      env,
		logger:   logger,
		slots:    semaphore.NewWeighted(int64(capacity.Max)),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	p.state.Store(int32(StateOpen))

	logger.Debug("pool opened",
		"min_capacity", capacity.Min,
		"max_capacity", capacity.Max,
		"capabilities", len(env.Names()))

	return p, nil
}

// State returns the current lifecycle state
func (p *Pool) State() State {
	return State(p.state.Load())
}

// Capacity returns the pool's normalized capacity
func (p *Pool) Capacity() Capacity {
	return p.capacity
}

// Env returns the shared capability environment
func (p *Pool) Env() *capability.Env {
	return p.env
}

// Submit launches a work item on the pool and returns immediately with a
// pollable handle. The work runs as soon as a slot frees; submissions beyond
// Capacity.Max queue on the slot semaphore. Returns a SubmissionError if the
// pool is not Open or the work is nil.
func (p *Pool) Submit(work WorkFunc, args []interface{}) (*Handle, error) {
	if p.State() != StateOpen {
		return nil, util.NewSubmissionError("", util.ErrPoolNotOpen)
	}
	if work == nil {
		return nil, util.NewSubmissionError("", fmt.Errorf("work function must not be nil"))
	}

	ctx, cancel := context.WithCancel(p.baseCtx)
	h := &Handle{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(h.done)
		defer cancel()

		if err := p.slots.Acquire(ctx, 1); err != nil {
			h.err = util.WrapErrorf(err, "task cancelled before execution")
			return
		}
		defer p.slots.Release(1)

		h.started.Store(true)
		scope := p.env.NewScope()
		h.payload, h.err = runWithRecovery(ctx, work, scope, args)
	}()

	return h, nil
}

// runWithRecovery executes a work item, converting panics into errors so a
// single bad work item never takes the pool down
func runWithRecovery(
	ctx context.Context,
	work WorkFunc,
	scope *capability.Scope,
	args []interface{},
) (payload interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("work item panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return work(ctx, scope, args)
}

// Close transitions the pool Open->Closed, cancelling the context of every
// in-flight work item. Closing an already-closed pool is a no-op, not an
// error.
func (p *Pool) Close() error {
	if !p.state.CompareAndSwap(int32(StateOpen), int32(StateClosed)) {
		// Already closed; idempotent
		return nil
	}

	p.cancel()
	p.logger.Debug("pool closed")
	return nil
}

// Dispose waits for in-flight work item goroutines to drain. Work that
// ignores its cancelled context can outlive the wait; after the grace period
// Dispose gives up with a warning rather than blocking the caller.
func (p *Pool) Dispose(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("pool disposed")
	case <-time.After(grace):
		p.logger.Warn("pool disposed with work items still in flight",
			"grace", grace)
	}
}

// Teardown closes and disposes the pool. It never returns an error: close
// attempts happen only from the Open state, dispose always runs afterward,
// and any failure along the way is reported as a warning.
func (p *Pool) Teardown(grace time.Duration) {
	if p.State() == StateOpen {
		if err := p.Close(); err != nil {
			p.logger.Warn("pool close failed during teardown", "error", err)
		}
	}
	p.Dispose(grace)
}

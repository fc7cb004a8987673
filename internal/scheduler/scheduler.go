// Package scheduler contains the orchestration core: the batch of tracked
// tasks, the polling control loop that drives every task to a terminal
// status, the bounded activity log, and the progress snapshot model.
//
// The control loop is single-threaded and is the only writer of task status.
// Reporters and result collection read task state on the same goroutine, so
// no locking is needed on tasks; an implementation that moves rendering onto
// another goroutine must add a snapshot hand-off.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/akshayn23/drover/internal/util"
)

// DefaultPollInterval is the sampling cadence used when none is configured
const DefaultPollInterval = 250 * time.Millisecond

// Update is handed to the external progress callback after every poll
// iteration
type Update struct {
	// Completed counts tasks that reached any terminal status
	Completed int
	// Total is the number of submitted tasks
	Total int
	// Running holds the still-running tasks
	Running []*Task
	// CompletedTasks holds the terminal tasks
	CompletedTasks []*Task
}

// Reporter consumes per-iteration task state and decides independently
// whether to render. Final is invoked exactly once after the loop exits so
// every sink can leave a stable last frame.
type Reporter interface {
	Tick(now time.Time, tasks []*Task, log *ActivityLog)
	Final(tasks []*Task, log *ActivityLog)
}

// Scheduler runs the completion/timeout polling loop over one batch
type Scheduler struct {
	batch      *Batch
	interval   time.Duration
	reporter   Reporter
	onProgress func(Update)
	logger     *slog.Logger
}

// Option is a functional option for configuring the scheduler
type Option func(*Scheduler)

// WithPollInterval sets the sampling cadence. Non-positive intervals are
// ignored in favor of the default.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithReporter sets the progress reporter sink
func WithReporter(r Reporter) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithOnProgress sets an external callback invoked after every poll iteration
func WithOnProgress(fn func(Update)) Option {
	return func(s *Scheduler) {
		s.onProgress = fn
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler over the given batch
func New(batch *Batch, opts ...Option) *Scheduler {
	s := &Scheduler{
		batch:    batch,
		interval: DefaultPollInterval,
		reporter: noopReporter{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives every task in the batch to a terminal status and returns once
// all are terminal. Each iteration sleeps for the poll interval, then samples
// every Running task: the timeout check runs before the completion check, so
// a task that both times out and completes inside one sampling window is
// recorded TimedOut. Termination is guaranteed for any finite positive poll
// interval because every Running task is either completed by its work or
// forcibly timed out.
//
// Context cancellation does not abandon the batch: remaining Running tasks
// are timed out immediately so the run still lands with a full terminal task
// set, and ctx.Err() is returned.
func (s *Scheduler) Run(ctx context.Context) error {
	tasks := s.batch.Tasks()
	total := len(tasks)

	s.logger.Info("batch started",
		"run_id", s.batch.RunID(),
		"tasks", total,
		"poll_interval", s.interval)

	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.cancelRemaining()
			s.finish(tasks, start)
			return util.WrapErrorf(ctx.Err(), "batch interrupted")
		case <-time.After(s.interval):
		}

		now := time.Now()
		for _, t := range tasks {
			if t.Status != StatusRunning {
				continue
			}
			s.poll(t, now)
		}

		s.reporter.Tick(now, tasks, s.batch.Log())

		completed := countTerminal(tasks)
		if s.onProgress != nil {
			s.onProgress(s.update(tasks, completed))
		}

		if completed == total {
			break
		}
	}

	s.finish(tasks, start)
	return nil
}

// poll advances one Running task. Timeout is deliberately evaluated before
// completion so the deadline guarantee wins a same-window race.
func (s *Scheduler) poll(t *Task, now time.Time) {
	elapsed := now.Sub(t.SubmittedAt)

	if elapsed >= t.Timeout {
		s.timeOut(t, elapsed)
		return
	}

	if !t.handle.Done() {
		return
	}

	payload, err := t.handle.Result()
	t.FinalElapsed = elapsed
	if err != nil {
		t.Status = StatusFailed
		t.Err = err
		s.batch.Log().Appendf("task %s failed: %v", t.ID, err)
		s.logger.Warn("task failed",
			"task", t.ID,
			"elapsed", elapsed.Round(time.Millisecond),
			"error", err)
		return
	}

	t.Status = StatusCompleted
	t.Payload = payload
	s.batch.Log().Appendf("task %s completed in %s", t.ID, elapsed.Round(time.Millisecond))
	s.logger.Debug("task completed",
		"task", t.ID,
		"elapsed", elapsed.Round(time.Millisecond))
}

// timeOut transitions a task to TimedOut and requests a best-effort stop of
// its work. A stop failure is a warning; the status transition happens
// regardless.
func (s *Scheduler) timeOut(t *Task, elapsed time.Duration) {
	t.Status = StatusTimedOut
	t.FinalElapsed = elapsed
	t.Err = util.WrapErrorf(util.ErrTimeout,
		"task %s exceeded timeout of %s (elapsed %s)",
		t.ID, t.Timeout, elapsed.Round(time.Millisecond))

	if err := t.handle.Cancel(); err != nil {
		t.Warned = true
		s.logger.Warn("failed to stop timed-out work item",
			"task", t.ID,
			"error", err)
	}

	s.batch.Log().Appendf("task %s timed out after %s", t.ID, elapsed.Round(time.Millisecond))
	s.logger.Warn("task timed out",
		"task", t.ID,
		"timeout", t.Timeout,
		"elapsed", elapsed.Round(time.Millisecond))
}

// cancelRemaining times out every still-running task, used when the batch
// context is cancelled
func (s *Scheduler) cancelRemaining() {
	now := time.Now()
	for _, t := range s.batch.Tasks() {
		if t.Status == StatusRunning {
			s.timeOut(t, now.Sub(t.SubmittedAt))
		}
	}
}

// finish emits the forced final render and the batch summary log line
func (s *Scheduler) finish(tasks []*Task, start time.Time) {
	s.reporter.Final(tasks, s.batch.Log())

	var completed, failed, timedOut int
	for _, t := range tasks {
		switch t.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
		case StatusTimedOut:
			timedOut++
		}
	}

	s.logger.Info("batch finished",
		"run_id", s.batch.RunID(),
		"total", len(tasks),
		"completed", completed,
		"failed", failed,
		"timed_out", timedOut,
		"duration", time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) update(tasks []*Task, completed int) Update {
	u := Update{
		Completed:      completed,
		Total:          len(tasks),
		Running:        make([]*Task, 0, len(tasks)-completed),
		CompletedTasks: make([]*Task, 0, completed),
	}
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			u.CompletedTasks = append(u.CompletedTasks, t)
		} else {
			u.Running = append(u.Running, t)
		}
	}
	return u
}

func countTerminal(tasks []*Task) int {
	count := 0
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			count++
		}
	}
	return count
}

// noopReporter is the default sink when no reporter is configured
type noopReporter struct{}

func (noopReporter) Tick(time.Time, []*Task, *ActivityLog) {}
func (noopReporter) Final([]*Task, *ActivityLog)           {}

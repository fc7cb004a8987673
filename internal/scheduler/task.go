package scheduler

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/akshayn23/drover/internal/pool"
	"github.com/akshayn23/drover/internal/util"
)

// Status is the lifecycle state of a task
type Status string

const (
	// StatusRunning is the sole non-terminal status; every task starts here
	StatusRunning Status = "Running"
	// StatusCompleted means the work finished and its payload was retrieved
	StatusCompleted Status = "Completed"
	// StatusFailed means the work raised an error or payload retrieval failed
	StatusFailed Status = "Failed"
	// StatusTimedOut means the orchestrator deadline was breached; the work
	// itself may still be running
	StatusTimedOut Status = "TimedOut"
)

// IsTerminal returns true if no further status transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// Task is one submitted, independently tracked unit of work. Status moves
// exactly once from Running to one terminal value, and only the scheduler
// loop writes it.
type Task struct {
	// ID is unique within the batch
	ID string
	// Description is a human-readable label; defaults to ID
	Description string
	// SubmittedAt anchors elapsed-time and timeout computation
	SubmittedAt time.Time
	// Timeout is the orchestrator-imposed deadline for this task
	Timeout time.Duration

	// Status is mutated exclusively by the scheduler loop
	Status Status

	// Payload holds the success value once Completed
	Payload interface{}
	// Err holds the failure or timeout error once Failed/TimedOut
	Err error
	// Warned is set when a contained warning occurred while handling this
	// task (cancel failure, retrieval failure)
	Warned bool

	// FinalElapsed is the elapsed duration captured at the terminal
	// transition
	FinalElapsed time.Duration

	handle *pool.Handle
}

// Elapsed returns the task's elapsed time at the given instant. Terminal
// tasks report the elapsed time frozen at their transition.
func (t *Task) Elapsed(now time.Time) time.Duration {
	if t.Status.IsTerminal() {
		return t.FinalElapsed
	}
	return now.Sub(t.SubmittedAt)
}

// SubmitOptions carries the optional parts of a task submission
type SubmitOptions struct {
	// ID must be unique within the batch; generated when empty
	ID string
	// Description defaults to the task ID when empty
	Description string
	// Timeout defaults to DefaultTaskTimeout when not positive
	Timeout time.Duration
}

// DefaultTaskTimeout bounds tasks whose submission did not specify a deadline
const DefaultTaskTimeout = 30 * time.Second

// Batch owns the tasks of one orchestrator run together with its activity
// log. Batches are created fresh per run and never reused.
type Batch struct {
	pool   *pool.Pool
	logger *slog.Logger
	log    *ActivityLog
	runID  string

	tasks []*Task
	seq   atomic.Int64
}

// NewBatch creates an empty batch bound to an open pool. logCapacity bounds
// the activity log; zero or negative selects the default.
func NewBatch(p *pool.Pool, logger *slog.Logger, logCapacity int) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{
		pool:   p,
		logger: logger,
		log:    NewActivityLog(logCapacity),
		runID:  newRunID(),
	}
}

// Submit hands a work item to the pool and registers it as a Running task.
// Submission is non-blocking; the task's completion is observed by the
// scheduler loop. Returns a SubmissionError when the pool rejects the work.
func (b *Batch) Submit(work pool.WorkFunc, args []interface{}, opts SubmitOptions) (*Task, error) {
	id := opts.ID
	if id == "" {
		id = b.nextID()
	}
	description := opts.Description
	if description == "" {
		description = id
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	for _, existing := range b.tasks {
		if existing.ID == id {
			return nil, util.NewSubmissionError(id, fmt.Errorf("duplicate task id"))
		}
	}

	handle, err := b.pool.Submit(work, args)
	if err != nil {
		return nil, util.NewSubmissionError(id, err)
	}

	task := &Task{
		ID:          id,
		Description: description,
		SubmittedAt: time.Now(),
		Timeout:     timeout,
		Status:      StatusRunning,
		handle:      handle,
	}
	b.tasks = append(b.tasks, task)

	b.log.Appendf("task %s submitted (timeout %s)", task.ID, task.Timeout)
	b.logger.Debug("task submitted",
		"task", task.ID,
		"timeout", task.Timeout,
		"total_tasks", len(b.tasks))

	return task, nil
}

// nextID generates a batch-unique identifier: submission timestamp plus a
// monotonic sequence number
func (b *Batch) nextID() string {
	return fmt.Sprintf("t%d-%d", time.Now().UnixMilli(), b.seq.Add(1))
}

// Tasks returns the batch's tasks in submission order
func (b *Batch) Tasks() []*Task {
	return b.tasks
}

// Log returns the batch's activity log
func (b *Batch) Log() *ActivityLog {
	return b.log
}

// RunID returns the unique identifier of this orchestrator run
func (b *Batch) RunID() string {
	return b.runID
}

// Size returns the number of submitted tasks
func (b *Batch) Size() int {
	return len(b.tasks)
}

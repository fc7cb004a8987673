package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/akshayn23/drover/internal/capability"
	"github.com/akshayn23/drover/internal/pool"
	"github.com/akshayn23/drover/internal/util"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBatch(t *testing.T, maxSlots int) *Batch {
	t.Helper()
	p, err := pool.Open(pool.Capacity{Min: 1, Max: maxSlots}, nil, discardLogger())
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() { p.Teardown(time.Second) })
	return NewBatch(p, discardLogger(), 0)
}

// sleepWork sleeps for d, honoring cancellation
func sleepWork(d time.Duration) pool.WorkFunc {
	return func(ctx context.Context, _ *capability.Scope, _ []interface{}) (interface{}, error) {
		select {
		case <-time.After(d):
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func failingWork(msg string) pool.WorkFunc {
	return func(ctx context.Context, _ *capability.Scope, _ []interface{}) (interface{}, error) {
		return nil, errors.New(msg)
	}
}

// recordingReporter captures tick counts and the final task set
type recordingReporter struct {
	ticks      int
	finalCalls int
	finalTasks []*Task
}

func (r *recordingReporter) Tick(_ time.Time, _ []*Task, _ *ActivityLog) {
	r.ticks++
}

func (r *recordingReporter) Final(tasks []*Task, _ *ActivityLog) {
	r.finalCalls++
	r.finalTasks = tasks
}

// Scenario: 5 tasks on 3 slots; 2 complete quickly, 3 would run far past
// their deadline. The batch must land with exactly 2 Completed and 3
// TimedOut, bounded by the timeout rather than the long work duration.
func TestScheduler_MixedCompletionAndTimeout(t *testing.T) {
	batch := newTestBatch(t, 3)

	for i := 0; i < 2; i++ {
		if _, err := batch.Submit(sleepWork(40*time.Millisecond), nil, SubmitOptions{
			ID:      fmt.Sprintf("quick-%d", i),
			Timeout: 2 * time.Second,
		}); err != nil {
			t.Fatalf("submit quick-%d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := batch.Submit(sleepWork(5*time.Second), nil, SubmitOptions{
			ID:      fmt.Sprintf("slow-%d", i),
			Timeout: 250 * time.Millisecond,
		}); err != nil {
			t.Fatalf("submit slow-%d: %v", i, err)
		}
	}

	start := time.Now()
	err := New(batch, WithPollInterval(20*time.Millisecond), WithLogger(discardLogger())).
		Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 1500*time.Millisecond {
		t.Errorf("batch took %s, expected it bounded by the timeout, not the work", elapsed)
	}

	var completed, timedOut int
	for _, task := range batch.Tasks() {
		switch task.Status {
		case StatusCompleted:
			completed++
		case StatusTimedOut:
			timedOut++
		default:
			t.Errorf("task %s ended %s, expected a terminal status", task.ID, task.Status)
		}
	}
	if completed != 2 || timedOut != 3 {
		t.Errorf("expected 2 Completed and 3 TimedOut, got %d/%d", completed, timedOut)
	}
}

// Scenario: a work item that raises must end Failed with a non-empty error,
// and the batch still completes.
func TestScheduler_FailedTask(t *testing.T) {
	batch := newTestBatch(t, 1)

	task, err := batch.Submit(failingWork("disk on fire"), nil, SubmitOptions{
		ID:      "doomed",
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	if err := New(batch, WithPollInterval(10*time.Millisecond), WithLogger(discardLogger())).
		Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if task.Status != StatusFailed {
		t.Fatalf("expected Failed, got %s", task.Status)
	}
	if task.Err == nil || task.Err.Error() == "" {
		t.Error("expected a non-empty error payload")
	}
}

// Scenario: all tasks complete well under their timeout; the forced final
// render must show every task at 100%.
func TestScheduler_FinalRenderShowsFullProgress(t *testing.T) {
	batch := newTestBatch(t, 3)

	for i := 0; i < 3; i++ {
		if _, err := batch.Submit(sleepWork(20*time.Millisecond), nil, SubmitOptions{
			ID:      fmt.Sprintf("fast-%d", i),
			Timeout: 30 * time.Second,
		}); err != nil {
			t.Fatalf("submit fast-%d: %v", i, err)
		}
	}

	reporter := &recordingReporter{}
	if err := New(batch,
		WithPollInterval(10*time.Millisecond),
		WithReporter(reporter),
		WithLogger(discardLogger()),
	).Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if reporter.finalCalls != 1 {
		t.Fatalf("expected exactly one final render, got %d", reporter.finalCalls)
	}
	if reporter.ticks == 0 {
		t.Error("expected at least one tick before the final render")
	}

	for _, task := range reporter.finalTasks {
		snap := FinalSnapshot(task)
		if snap.Status != StatusCompleted {
			t.Errorf("task %s: expected Completed, got %s", task.ID, snap.Status)
		}
		if snap.ProgressPercent != 100 {
			t.Errorf("task %s: final render shows %d%%, want 100%%", task.ID, snap.ProgressPercent)
		}
	}
}

// Scenario: id and description omitted at submission; the task must get a
// unique non-empty id and a description equal to it.
func TestBatch_GeneratedIDs(t *testing.T) {
	batch := newTestBatch(t, 2)

	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		task, err := batch.Submit(sleepWork(time.Millisecond), nil, SubmitOptions{})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if task.ID == "" {
			t.Fatal("expected generated id to be non-empty")
		}
		if seen[task.ID] {
			t.Errorf("generated id %q is not unique within the batch", task.ID)
		}
		seen[task.ID] = true
		if task.Description != task.ID {
			t.Errorf("expected description to default to id %q, got %q", task.ID, task.Description)
		}
		if task.Timeout != DefaultTaskTimeout {
			t.Errorf("expected default timeout, got %s", task.Timeout)
		}
	}
}

// A task that both completes and breaches its deadline inside one sampling
// window must be recorded TimedOut; the deadline guarantee wins.
func TestScheduler_TimeoutBeatsCompletion(t *testing.T) {
	batch := newTestBatch(t, 1)

	task, err := batch.Submit(sleepWork(time.Millisecond), nil, SubmitOptions{
		ID:      "racer",
		Timeout: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	// A poll interval much larger than both work and timeout guarantees the
	// first sample sees a task that is simultaneously done and overdue
	if err := New(batch, WithPollInterval(80*time.Millisecond), WithLogger(discardLogger())).
		Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if task.Status != StatusTimedOut {
		t.Errorf("expected TimedOut under the tie-break policy, got %s", task.Status)
	}
	if !util.IsTimeout(task.Err) {
		t.Errorf("expected a timeout error, got %v", task.Err)
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	batch := newTestBatch(t, 2)

	for i := 0; i < 2; i++ {
		if _, err := batch.Submit(sleepWork(10*time.Second), nil, SubmitOptions{
			ID:      fmt.Sprintf("long-%d", i),
			Timeout: time.Minute,
		}); err != nil {
			t.Fatalf("submit long-%d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := New(batch, WithPollInterval(10*time.Millisecond), WithLogger(discardLogger())).Run(ctx)
	if err == nil {
		t.Fatal("expected an error for an interrupted batch")
	}

	// The batch still lands with a full terminal task set
	for _, task := range batch.Tasks() {
		if !task.Status.IsTerminal() {
			t.Errorf("task %s left in %s after interruption", task.ID, task.Status)
		}
		if task.Status != StatusTimedOut {
			t.Errorf("task %s: expected TimedOut after interruption, got %s", task.ID, task.Status)
		}
	}
}

func TestScheduler_OnProgress(t *testing.T) {
	batch := newTestBatch(t, 2)

	for i := 0; i < 3; i++ {
		if _, err := batch.Submit(sleepWork(15*time.Millisecond), nil, SubmitOptions{
			ID:      fmt.Sprintf("task-%d", i),
			Timeout: time.Second,
		}); err != nil {
			t.Fatalf("submit task-%d: %v", i, err)
		}
	}

	var updates []Update
	if err := New(batch,
		WithPollInterval(10*time.Millisecond),
		WithOnProgress(func(u Update) { updates = append(updates, u) }),
		WithLogger(discardLogger()),
	).Run(context.Background()); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}

	last := updates[len(updates)-1]
	if last.Completed != 3 || last.Total != 3 {
		t.Errorf("final update = %d/%d, want 3/3", last.Completed, last.Total)
	}
	if len(last.Running) != 0 {
		t.Errorf("final update lists %d running tasks", len(last.Running))
	}
	if len(last.CompletedTasks) != 3 {
		t.Errorf("final update lists %d completed tasks, want 3", len(last.CompletedTasks))
	}

	// Completed counts never decrease across updates
	for i := 1; i < len(updates); i++ {
		if updates[i].Completed < updates[i-1].Completed {
			t.Errorf("completed count regressed at update %d: %d -> %d",
				i, updates[i-1].Completed, updates[i].Completed)
		}
	}
}

func TestBatch_DuplicateID(t *testing.T) {
	batch := newTestBatch(t, 1)

	if _, err := batch.Submit(sleepWork(time.Millisecond), nil, SubmitOptions{ID: "same"}); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	_, err := batch.Submit(sleepWork(time.Millisecond), nil, SubmitOptions{ID: "same"})
	if err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
	if !util.IsSubmissionError(err) {
		t.Errorf("expected SubmissionError, got %v", err)
	}
	if batch.Size() != 1 {
		t.Errorf("failed submission must not register a task, batch has %d", batch.Size())
	}
}

func TestBatch_SubmitToClosedPool(t *testing.T) {
	p, err := pool.Open(pool.Capacity{Max: 1}, nil, discardLogger())
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	batch := NewBatch(p, discardLogger(), 0)
	p.Teardown(time.Second)

	_, err = batch.Submit(sleepWork(time.Millisecond), nil, SubmitOptions{ID: "late"})
	if err == nil {
		t.Fatal("expected submission to a closed pool to fail")
	}
	if !errors.Is(err, util.ErrPoolNotOpen) {
		t.Errorf("expected ErrPoolNotOpen, got %v", err)
	}
	if batch.Size() != 0 {
		t.Errorf("no task must be created on submission failure, batch has %d", batch.Size())
	}
}

func TestScheduler_EmptyBatch(t *testing.T) {
	batch := newTestBatch(t, 1)

	done := make(chan error, 1)
	go func() {
		done <- New(batch, WithPollInterval(5*time.Millisecond), WithLogger(discardLogger())).
			Run(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected run error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not terminate for an empty batch")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusTimedOut, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

package scheduler

import (
	"math"
	"time"
)

// Snapshot is a derived, read-only view over a task at a sampling instant.
// Snapshots are regenerated for every render and never persisted.
type Snapshot struct {
	ID              string  `json:"id" yaml:"id"`
	Description     string  `json:"description" yaml:"description"`
	Status          Status  `json:"status" yaml:"status"`
	ElapsedSeconds  float64 `json:"elapsedSeconds" yaml:"elapsedSeconds"`
	TimeoutSeconds  float64 `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	ProgressPercent int     `json:"progressPercent" yaml:"progressPercent"`
}

// TakeSnapshot computes a task's progress view at the given instant.
// Running tasks report min(100, round(elapsed/timeout*100)); Completed tasks
// 100; other terminal statuses 0. Percent is clamped to [0, 100] and is
// non-decreasing across increasing sample times for a Running task.
func TakeSnapshot(t *Task, now time.Time) Snapshot {
	elapsed := t.Elapsed(now)
	return Snapshot{
		ID:              t.ID,
		Description:     t.Description,
		Status:          t.Status,
		ElapsedSeconds:  elapsed.Seconds(),
		TimeoutSeconds:  t.Timeout.Seconds(),
		ProgressPercent: progressPercent(t.Status, elapsed, t.Timeout),
	}
}

// FinalSnapshot computes the stable post-run view: percent is fixed at 100
// for Completed and 0 for every other terminal status, so a finished screen
// never shows a bar frozen mid-percentage.
func FinalSnapshot(t *Task) Snapshot {
	percent := 0
	if t.Status == StatusCompleted {
		percent = 100
	}
	return Snapshot{
		ID:              t.ID,
		Description:     t.Description,
		Status:          t.Status,
		ElapsedSeconds:  t.FinalElapsed.Seconds(),
		TimeoutSeconds:  t.Timeout.Seconds(),
		ProgressPercent: percent,
	}
}

func progressPercent(status Status, elapsed, timeout time.Duration) int {
	switch status {
	case StatusCompleted:
		return 100
	case StatusFailed, StatusTimedOut:
		return 0
	}

	if timeout <= 0 {
		return 0
	}
	percent := int(math.Round(float64(elapsed) / float64(timeout) * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}

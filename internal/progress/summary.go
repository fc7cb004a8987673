package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/akshayn23/drover/internal/scheduler"
)

// SummaryReporter prints one compact status line per poll iteration
type SummaryReporter struct {
	w     io.Writer
	start time.Time
}

// NewSummaryReporter creates a summary reporter
func NewSummaryReporter(opts Options) *SummaryReporter {
	return &SummaryReporter{
		w:     opts.Writer,
		start: time.Now(),
	}
}

// Tick implements scheduler.Reporter
func (r *SummaryReporter) Tick(now time.Time, tasks []*scheduler.Task, _ *scheduler.ActivityLog) {
	var running, completed, failed, timedOut int
	for _, t := range tasks {
		switch t.Status {
		case scheduler.StatusRunning:
			running++
		case scheduler.StatusCompleted:
			completed++
		case scheduler.StatusFailed:
			failed++
		case scheduler.StatusTimedOut:
			timedOut++
		}
	}

	fmt.Fprintf(r.w, "%d/%d done (%d running, %d failed, %d timed out) elapsed %s\n",
		len(tasks)-running, len(tasks), running, failed, timedOut,
		now.Sub(r.start).Round(time.Second))
}

// Final implements scheduler.Reporter
func (r *SummaryReporter) Final(tasks []*scheduler.Task, _ *scheduler.ActivityLog) {
	var completed, failed, timedOut int
	for _, t := range tasks {
		switch t.Status {
		case scheduler.StatusCompleted:
			completed++
		case scheduler.StatusFailed:
			failed++
		case scheduler.StatusTimedOut:
			timedOut++
		}
	}

	fmt.Fprintf(r.w, "batch done: %d completed, %d failed, %d timed out (%d total)\n",
		completed, failed, timedOut, len(tasks))
}

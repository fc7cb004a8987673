package progress

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/akshayn23/drover/internal/scheduler"
)

// Export is the structured snapshot handed to an external dashboard
// renderer. The orchestrator only serializes it; refresh cadence beyond
// producing the export and the rendering technology belong to the
// collaborator.
type Export struct {
	RunID       string               `json:"runId"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Summary     Counts               `json:"summary"`
	Tasks       []scheduler.Snapshot `json:"tasks"`
}

// Counts is the per-status summary of one export
type Counts struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timedOut"`
}

// DashboardReporter periodically serializes the batch snapshot to a file for
// an external renderer (e.g. a browser view polling the file)
type DashboardReporter struct {
	path    string
	runID   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewDashboardReporter creates a dashboard reporter
func NewDashboardReporter(opts Options) *DashboardReporter {
	return &DashboardReporter{
		path:    opts.DashboardPath,
		runID:   opts.RunID,
		limiter: rate.NewLimiter(rate.Every(opts.RenderInterval), 1),
		logger:  opts.Logger,
	}
}

// Tick implements scheduler.Reporter
func (r *DashboardReporter) Tick(now time.Time, tasks []*scheduler.Task, _ *scheduler.ActivityLog) {
	if !r.limiter.Allow() {
		return
	}

	snapshots := make([]scheduler.Snapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, scheduler.TakeSnapshot(t, now))
	}
	r.export(snapshots)
}

// Final implements scheduler.Reporter
func (r *DashboardReporter) Final(tasks []*scheduler.Task, _ *scheduler.ActivityLog) {
	snapshots := make([]scheduler.Snapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, scheduler.FinalSnapshot(t))
	}
	r.export(snapshots)
}

// export writes the snapshot file. Export failures are warnings; the
// scheduler loop proceeds regardless.
func (r *DashboardReporter) export(snapshots []scheduler.Snapshot) {
	exp := Export{
		RunID:       r.runID,
		GeneratedAt: time.Now(),
		Tasks:       snapshots,
	}
	for _, snap := range snapshots {
		exp.Summary.Total++
		switch snap.Status {
		case scheduler.StatusRunning:
			exp.Summary.Running++
		case scheduler.StatusCompleted:
			exp.Summary.Completed++
		case scheduler.StatusFailed:
			exp.Summary.Failed++
		case scheduler.StatusTimedOut:
			exp.Summary.TimedOut++
		}
	}

	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		r.logger.Warn("failed to marshal dashboard export", "error", err)
		return
	}

	if err := writeAtomic(r.path, data); err != nil {
		r.logger.Warn("failed to write dashboard export",
			"path", r.path,
			"error", err)
	}
}

// writeAtomic stages the document next to the target and renames it into
// place, so a renderer polling the file never observes a truncated or
// half-written export
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

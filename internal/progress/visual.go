package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/akshayn23/drover/internal/output"
	"github.com/akshayn23/drover/internal/scheduler"
)

const barWidth = 30

// VisualReporter redraws a full-screen task view. Redraws are throttled by a
// rate limiter so polling every second does not flood the terminal; the
// throttle cadence is caller-configurable and independent of the scheduler's
// poll interval.
type VisualReporter struct {
	w       io.Writer
	colors  *output.ColorScheme
	limiter *rate.Limiter
	logTail int
}

// NewVisualReporter creates a visual reporter
func NewVisualReporter(opts Options) *VisualReporter {
	return &VisualReporter{
		w:       opts.Writer,
		colors:  output.NewColorScheme(opts.Writer, opts.NoColor),
		limiter: rate.NewLimiter(rate.Every(opts.RenderInterval), 1),
		logTail: opts.LogTail,
	}
}

// Tick implements scheduler.Reporter. It renders only when the throttle
// allows.
func (r *VisualReporter) Tick(now time.Time, tasks []*scheduler.Task, log *scheduler.ActivityLog) {
	if !r.limiter.Allow() {
		return
	}

	snapshots := make([]scheduler.Snapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, scheduler.TakeSnapshot(t, now))
	}
	r.render(snapshots, log)
}

// Final implements scheduler.Reporter. The forced last render uses the fixed
// 100/0 percent split so the terminal screen ends stable.
func (r *VisualReporter) Final(tasks []*scheduler.Task, log *scheduler.ActivityLog) {
	snapshots := make([]scheduler.Snapshot, 0, len(tasks))
	for _, t := range tasks {
		snapshots = append(snapshots, scheduler.FinalSnapshot(t))
	}
	r.render(snapshots, log)
}

func (r *VisualReporter) render(snapshots []scheduler.Snapshot, log *scheduler.ActivityLog) {
	var sb strings.Builder

	// Home the cursor and clear; a full redraw every frame keeps the state
	// model trivial
	sb.WriteString("\033[H\033[2J")

	for _, snap := range snapshots {
		sb.WriteString(r.renderTask(snap))
		sb.WriteByte('\n')
	}

	if entries := log.Tail(r.logTail); len(entries) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(r.colors.Header("Activity"))
		sb.WriteByte('\n')
		for _, entry := range entries {
			sb.WriteString("  ")
			sb.WriteString(entry)
			sb.WriteByte('\n')
		}
	}

	fmt.Fprint(r.w, sb.String())
}

func (r *VisualReporter) renderTask(snap scheduler.Snapshot) string {
	glyph := output.StatusGlyph(snap.Status)
	colorize := r.colors.StatusColor(snap.Status)

	return fmt.Sprintf("%s %-20s %s %3d%%  %s",
		colorize(glyph),
		truncate(snap.ID, 20),
		colorize(renderBar(snap.ProgressPercent)),
		snap.ProgressPercent,
		stepDescription(snap))
}

// renderBar draws a proportional progress bar of barWidth cells
func renderBar(percent int) string {
	filled := percent * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// stepDescription is the one-line step text keyed by status
func stepDescription(snap scheduler.Snapshot) string {
	elapsed := time.Duration(snap.ElapsedSeconds * float64(time.Second)).Round(time.Second)
	switch snap.Status {
	case scheduler.StatusRunning:
		return fmt.Sprintf("%s: running for %s", snap.Description, elapsed)
	case scheduler.StatusCompleted:
		return fmt.Sprintf("%s: completed in %s", snap.Description, elapsed)
	case scheduler.StatusTimedOut:
		return fmt.Sprintf("%s: timed out after %s", snap.Description, elapsed)
	case scheduler.StatusFailed:
		return fmt.Sprintf("%s: failed", snap.Description)
	default:
		return snap.Description
	}
}

// truncate shortens s to max runes, never splitting a multibyte rune
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

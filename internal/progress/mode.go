// Package progress renders periodic task snapshots through pluggable sinks.
// The scheduler invokes a reporter every poll iteration; each sink decides
// independently whether to actually render, so rendering cadence is
// decoupled from sampling cadence.
package progress

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/akshayn23/drover/internal/scheduler"
	"github.com/akshayn23/drover/internal/util"
)

// Mode selects the progress reporter's behavior
type Mode string

const (
	// ModeSilent renders nothing
	ModeSilent Mode = "silent"
	// ModeSummary prints one compact line per poll iteration
	ModeSummary Mode = "summary"
	// ModeVisual redraws a full-screen view at a throttled cadence
	ModeVisual Mode = "visual"
	// ModeDashboard exports structured snapshots for an external renderer
	ModeDashboard Mode = "dashboard"
)

// ParseMode parses a mode name, case-insensitively. No other values are
// valid; an unrecognized name is a configuration error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSilent:
		return ModeSilent, nil
	case ModeSummary:
		return ModeSummary, nil
	case ModeVisual:
		return ModeVisual, nil
	case ModeDashboard:
		return ModeDashboard, nil
	default:
		return "", util.WrapErrorf(util.ErrInvalidOutputMode, "%q", s)
	}
}

// DefaultRenderInterval throttles visual and dashboard rendering when the
// caller does not configure a cadence
const DefaultRenderInterval = 3 * time.Second

// Options configures reporter construction
type Options struct {
	// Writer receives rendered output; defaults to os.Stdout
	Writer io.Writer
	// NoColor disables colored rendering
	NoColor bool
	// RenderInterval throttles visual/dashboard rendering independently of
	// the scheduler's poll interval
	RenderInterval time.Duration
	// DashboardPath is the export target of the dashboard mode
	DashboardPath string
	// RunID stamps dashboard exports
	RunID string
	// LogTail is how many activity log entries the visual mode shows
	LogTail int
	// Logger receives reporter warnings
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Writer == nil {
		o.Writer = os.Stdout
	}
	if o.RenderInterval <= 0 {
		o.RenderInterval = DefaultRenderInterval
	}
	if o.LogTail <= 0 {
		o.LogTail = 8
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// New constructs the reporter for a mode
func New(mode Mode, opts Options) (scheduler.Reporter, error) {
	opts = opts.withDefaults()

	switch mode {
	case ModeSilent:
		return &SilentReporter{}, nil
	case ModeSummary:
		return NewSummaryReporter(opts), nil
	case ModeVisual:
		return NewVisualReporter(opts), nil
	case ModeDashboard:
		return NewDashboardReporter(opts), nil
	default:
		return nil, util.WrapErrorf(util.ErrInvalidOutputMode, "%q", mode)
	}
}

// SilentReporter renders nothing
type SilentReporter struct{}

// Tick implements scheduler.Reporter
func (*SilentReporter) Tick(time.Time, []*scheduler.Task, *scheduler.ActivityLog) {}

// Final implements scheduler.Reporter
func (*SilentReporter) Final([]*scheduler.Task, *scheduler.ActivityLog) {}

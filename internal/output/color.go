package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/akshayn23/drover/internal/scheduler"
)

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	// TaskID colors task identifiers
	TaskID func(format string, a ...interface{}) string

	// Success colors the Completed status
	Success func(format string, a ...interface{}) string

	// Error colors the Failed status and error messages
	Error func(format string, a ...interface{}) string

	// Warning colors the TimedOut status and warnings
	Warning func(format string, a ...interface{}) string

	// Running colors the Running status
	Running func(format string, a ...interface{}) string

	// Header colors table headers
	Header func(format string, a ...interface{}) string

	// Duration colors elapsed-time values
	Duration func(format string, a ...interface{}) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme
// Colors are automatically disabled for non-TTY outputs or when noColor is true
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	useColor := !noColor && isTTY(w)

	if !useColor {
		// Scheme with no-op color functions
		plain := color.New().Sprintf
		return &ColorScheme{
			TaskID:   plain,
			Success:  plain,
			Error:    plain,
			Warning:  plain,
			Running:  plain,
			Header:   plain,
			Duration: plain,
			Disabled: true,
		}
	}

	return &ColorScheme{
		TaskID:   color.New(color.FgCyan, color.Bold).Sprintf,
		Success:  color.New(color.FgGreen).Sprintf,
		Error:    color.New(color.FgRed, color.Bold).Sprintf,
		Warning:  color.New(color.FgYellow).Sprintf,
		Running:  color.New(color.FgCyan).Sprintf,
		Header:   color.New(color.FgWhite, color.Bold).Sprintf,
		Duration: color.New(color.FgBlue).Sprintf,
		Disabled: false,
	}
}

// isTTY checks if the writer is a TTY
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StatusColor returns the color function for a task status
func (cs *ColorScheme) StatusColor(status scheduler.Status) func(format string, a ...interface{}) string {
	switch status {
	case scheduler.StatusCompleted:
		return cs.Success
	case scheduler.StatusFailed:
		return cs.Error
	case scheduler.StatusTimedOut:
		return cs.Warning
	default:
		return cs.Running
	}
}

// StatusGlyph returns the one-rune marker rendered next to a task status
func StatusGlyph(status scheduler.Status) string {
	switch status {
	case scheduler.StatusCompleted:
		return "✔"
	case scheduler.StatusFailed:
		return "✖"
	case scheduler.StatusTimedOut:
		return "⏱"
	default:
		return "›"
	}
}

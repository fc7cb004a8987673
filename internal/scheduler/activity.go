package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLogCapacity is the activity log bound used when the caller does not
// configure one
const DefaultLogCapacity = 50

// ActivityLog is a bounded, append-only sequence of timestamped event
// strings owned by one batch run. It retains only the most recent entries so
// long batches don't grow it without bound.
//
// The scheduler loop is the only writer and reporters read on the same
// control goroutine, so no locking is required.
type ActivityLog struct {
	capacity int
	entries  []string
	dropped  int
}

// NewActivityLog creates an activity log bounded to capacity entries.
// Non-positive capacities select DefaultLogCapacity.
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &ActivityLog{
		capacity: capacity,
		entries:  make([]string, 0, capacity),
	}
}

// Appendf records a timestamped event, evicting the oldest entry when full
func (l *ActivityLog) Appendf(format string, args ...interface{}) {
	entry := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	if len(l.entries) >= l.capacity {
		l.entries = l.entries[1:]
		l.dropped++
	}
	l.entries = append(l.entries, entry)
}

// Entries returns the retained entries, oldest first
func (l *ActivityLog) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tail returns up to n of the newest entries, oldest first
func (l *ActivityLog) Tail(n int) []string {
	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]string, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the number of retained entries
func (l *ActivityLog) Len() int {
	return len(l.entries)
}

// Dropped returns how many entries were evicted by the bound
func (l *ActivityLog) Dropped() int {
	return l.dropped
}

// newRunID returns a unique identifier for one orchestrator run
func newRunID() string {
	return uuid.NewString()
}

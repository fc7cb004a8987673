// Package results converts terminal tasks into the uniform outcome records
// handed to callers and export collaborators.
package results

import (
	"fmt"
	"strings"
	"time"

	"github.com/akshayn23/drover/internal/scheduler"
)

// Metadata carries the optional timing and flag fields of a record
type Metadata struct {
	ElapsedSeconds float64   `json:"elapsedSeconds" yaml:"elapsedSeconds"`
	TimeoutSeconds float64   `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	SubmittedAt    time.Time `json:"submittedAt" yaml:"submittedAt"`
	Warned         bool      `json:"warned" yaml:"warned"`
}

// Record is the final, uniform outcome representation of one task
type Record struct {
	ID          string           `json:"id" yaml:"id"`
	Description string           `json:"description" yaml:"description"`
	Status      scheduler.Status `json:"status" yaml:"status"`

	// Payload holds the success value of a Completed task
	Payload interface{} `json:"payload,omitempty" yaml:"payload,omitempty"`
	// Error holds the failure or timeout message of a Failed/TimedOut task
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Metadata is present only when collection requested it
	Metadata *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Collect converts tasks into records, exactly one per task, preserving
// submission order regardless of status mix. When includeMetadata is false
// the timing and flag fields are dropped from the visible record; the task
// state itself is untouched.
func Collect(tasks []*scheduler.Task, includeMetadata bool) []Record {
	records := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		r := Record{
			ID:          t.ID,
			Description: t.Description,
			Status:      t.Status,
			Payload:     t.Payload,
		}
		if t.Err != nil {
			r.Error = t.Err.Error()
		}
		if includeMetadata {
			r.Metadata = &Metadata{
				ElapsedSeconds: t.FinalElapsed.Seconds(),
				TimeoutSeconds: t.Timeout.Seconds(),
				SubmittedAt:    t.SubmittedAt,
				Warned:         t.Warned,
			}
		}
		records = append(records, r)
	}
	return records
}

// CountByStatus returns the number of records with the given status
func CountByStatus(records []Record, status scheduler.Status) int {
	count := 0
	for _, r := range records {
		if r.Status == status {
			count++
		}
	}
	return count
}

// FilterByStatus returns only the records with the given status
func FilterByStatus(records []Record, status scheduler.Status) []Record {
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// HasFailures returns true if any record is Failed or TimedOut
func HasFailures(records []Record) bool {
	for _, r := range records {
		if r.Status == scheduler.StatusFailed || r.Status == scheduler.StatusTimedOut {
			return true
		}
	}
	return false
}

// SuccessRate returns the share of Completed records as a percentage
func SuccessRate(records []Record) float64 {
	if len(records) == 0 {
		return 0.0
	}
	return float64(CountByStatus(records, scheduler.StatusCompleted)) / float64(len(records)) * 100.0
}

// Summary aggregates the status counts of one batch
type Summary struct {
	Total     int
	Completed int
	Failed    int
	TimedOut  int
}

// Summarize creates a summary of the records
func Summarize(records []Record) Summary {
	return Summary{
		Total:     len(records),
		Completed: CountByStatus(records, scheduler.StatusCompleted),
		Failed:    CountByStatus(records, scheduler.StatusFailed),
		TimedOut:  CountByStatus(records, scheduler.StatusTimedOut),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Completed: %d, ", s.Completed))
	sb.WriteString(fmt.Sprintf("Failed: %d, ", s.Failed))
	sb.WriteString(fmt.Sprintf("TimedOut: %d", s.TimedOut))
	return sb.String()
}

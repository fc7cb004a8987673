package output

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/akshayn23/drover/internal/results"
)

// TableFormatter formats records as a flat table (kubectl-style)
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// FormatRecords outputs the record set as a table followed by a summary line
func (f *TableFormatter) FormatRecords(w io.Writer, records []results.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"ID", "DESCRIPTION", "STATUS"}
	hasMetadata := false
	for _, r := range records {
		if r.Metadata != nil {
			hasMetadata = true
			break
		}
	}
	if hasMetadata {
		headers = append(headers, "ELAPSED")
	}
	if f.options.Wide {
		headers = append(headers, "RESULT")
	}

	if !f.options.NoHeaders {
		if colors.Disabled {
			table.SetHeader(headers)
		} else {
			coloredHeaders := make([]string, len(headers))
			for i, h := range headers {
				coloredHeaders[i] = colors.Header(h)
			}
			table.SetHeader(coloredHeaders)
		}
	}

	for _, record := range records {
		table.Append(f.formatRecordRow(record, colors, hasMetadata))
	}

	table.Render()
	f.printSummary(w, records, colors)

	return nil
}

// formatRecordRow formats a single record as a table row
func (f *TableFormatter) formatRecordRow(record results.Record, colors *ColorScheme, withElapsed bool) []string {
	id := record.ID
	if !colors.Disabled {
		id = colors.TaskID(id)
	}

	status := string(record.Status)
	if !colors.Disabled {
		status = colors.StatusColor(record.Status)(status)
	}

	row := []string{id, record.Description, status}

	if withElapsed {
		elapsed := ""
		if record.Metadata != nil {
			d := time.Duration(record.Metadata.ElapsedSeconds * float64(time.Second))
			elapsed = d.Round(time.Millisecond).String()
		}
		if !colors.Disabled {
			elapsed = colors.Duration(elapsed)
		}
		row = append(row, elapsed)
	}

	if f.options.Wide {
		detail := ""
		if record.Error != "" {
			detail = record.Error
		} else if record.Payload != nil {
			detail = fmt.Sprintf("%v", record.Payload)
		}
		// Truncate long payloads
		if len(detail) > 50 {
			detail = detail[:47] + "..."
		}
		row = append(row, detail)
	}

	return row
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints a one-line summary of the record set
func (f *TableFormatter) printSummary(w io.Writer, records []results.Record, colors *ColorScheme) {
	summary := results.Summarize(records)

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	completedText := fmt.Sprintf("%d completed", summary.Completed)
	if !colors.Disabled {
		completedText = colors.Success(completedText)
	}

	failedText := fmt.Sprintf("%d failed", summary.Failed)
	if !colors.Disabled && summary.Failed > 0 {
		failedText = colors.Error(failedText)
	}

	timedOutText := fmt.Sprintf("%d timed out", summary.TimedOut)
	if !colors.Disabled && summary.TimedOut > 0 {
		timedOutText = colors.Warning(timedOutText)
	}

	fmt.Fprintf(w, "%s, %s, %s\n", completedText, failedText, timedOutText)
}

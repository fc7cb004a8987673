// Package output provides formatters for rendering batch result records.
//
// The package supports multiple output formats (table, JSON, YAML) behind a
// unified Formatter interface, plus suffix-based format selection for export
// targets.
//
// # Basic Usage
//
//	// Create a table formatter
//	formatter := output.NewFormatter(output.FormatTable)
//
//	// Render a batch's result records
//	records := results.Collect(batch.Tasks(), true)
//	formatter.FormatRecords(os.Stdout, records)
//
// # Options
//
// Formatters can be configured with functional options:
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//
// # Export format selection
//
// FormatForHint maps a target path suffix to an export format: .json, .yaml
// and .yml select the structured formats, .txt/.tab/.tsv the flat table, and
// anything unrecognized falls back to structured JSON:
//
//	formatter := output.NewFormatter(output.FormatForHint("results.yaml"))
//
// # Color Support
//
// Colors are automatically enabled for TTY outputs and disabled for pipes
// and redirects, or explicitly with WithNoColor(true).
//
// Color scheme:
//   - Task IDs: Cyan, Bold
//   - Completed: Green
//   - Failed: Red, Bold
//   - TimedOut: Yellow
//   - Running: Cyan
//   - Headers: White, Bold
//   - Durations: Blue
package output

package output

import (
	"encoding/json"
	"io"

	"github.com/akshayn23/drover/internal/results"
)

// JSONFormatter formats records as a structured JSON stream
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// FormatRecords outputs the record set as indented JSON
func (f *JSONFormatter) FormatRecords(w io.Writer, records []results.Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

package output

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/akshayn23/drover/internal/results"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs records as a flat table (kubectl-style)
	FormatTable Format = "table"
	// FormatJSON outputs records as a structured JSON record stream
	FormatJSON Format = "json"
	// FormatYAML outputs records as structured YAML
	FormatYAML Format = "yaml"
)

// Formatter defines the interface for rendering a batch's result records
type Formatter interface {
	// FormatRecords outputs the record set to the writer
	FormatRecords(w io.Writer, records []results.Record) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide enables wide output with payload/error columns
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// FormatForHint selects an export format from a caller-supplied hint,
// typically a target path. Structured suffixes map to JSON/YAML, flat
// tabular suffixes to the table format; anything unrecognized defaults to
// the structured JSON format.
func FormatForHint(hint string) Format {
	switch strings.ToLower(filepath.Ext(hint)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".txt", ".tab", ".tsv":
		return FormatTable
	default:
		return FormatJSON
	}
}

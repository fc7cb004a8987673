package output

import (
	"io"

	"github.com/akshayn23/drover/internal/results"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats records as structured YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// FormatRecords outputs the record set as YAML
func (f *YAMLFormatter) FormatRecords(w io.Writer, records []results.Record) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(records)
}

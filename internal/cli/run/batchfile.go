package run

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML batch definition consumed by the run command
type File struct {
	// Env holds named values exposed to every task through the capability
	// bundle
	Env map[string]string `yaml:"env"`

	// Workdir is the working directory tasks execute in
	Workdir string `yaml:"workdir"`

	// Tasks is the batch's work item list
	Tasks []TaskSpec `yaml:"tasks"`
}

// TaskSpec describes one work item in a batch file
type TaskSpec struct {
	// ID is optional; a unique one is generated when omitted
	ID string `yaml:"id"`

	// Description defaults to the task ID
	Description string `yaml:"description"`

	// Command is the argv to execute
	Command []string `yaml:"command"`

	// Timeout is a duration string like "30s"; the run default applies when
	// omitted
	Timeout string `yaml:"timeout"`
}

// ParseTimeout returns the spec's timeout, or fallback when unset
func (t TaskSpec) ParseTimeout(fallback time.Duration) (time.Duration, error) {
	if t.Timeout == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", t.Timeout, err)
	}
	return d, nil
}

// LoadFile reads and validates a batch file
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	if len(f.Tasks) == 0 {
		return nil, fmt.Errorf("batch file %s defines no tasks", path)
	}
	for i, spec := range f.Tasks {
		if len(spec.Command) == 0 {
			return nil, fmt.Errorf("task %d (%s) has no command", i, spec.ID)
		}
	}

	return &f, nil
}

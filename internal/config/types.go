package config

import "time"

// Config is the top-level drover configuration
type Config struct {
	// Defaults holds default values applied to every run
	Defaults Defaults `mapstructure:"defaults"`

	// Log holds activity log settings
	Log LogConfig `mapstructure:"log"`
}

// Defaults holds default run settings
type Defaults struct {
	// Parallel is the maximum number of concurrently executing tasks
	Parallel int `mapstructure:"parallel"`

	// MinParallel is the minimum expected concurrency
	MinParallel int `mapstructure:"min_parallel"`

	// Timeout is the per-task deadline applied when the batch file omits one
	Timeout time.Duration `mapstructure:"timeout"`

	// PollInterval is the scheduler's sampling cadence
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// RenderInterval throttles visual/dashboard redraws
	RenderInterval time.Duration `mapstructure:"render_interval"`

	// OutputMode selects the progress reporter (silent, summary, visual,
	// dashboard)
	OutputMode string `mapstructure:"output_mode"`

	// Export is the default result export target path
	Export string `mapstructure:"export"`

	// DashboardPath is the dashboard mode's export target
	DashboardPath string `mapstructure:"dashboard_path"`
}

// LogConfig holds activity log settings
type LogConfig struct {
	// MaxEntries bounds the activity log
	MaxEntries int `mapstructure:"max_entries"`
}

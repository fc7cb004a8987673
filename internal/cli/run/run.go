// Package run implements the drover run command: it reads a batch file,
// opens an execution slot pool over a capability bundle built from the file,
// submits every task, drives the scheduler with the configured progress
// reporter, and prints or exports the aggregated result records.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akshayn23/drover/internal/capability"
	"github.com/akshayn23/drover/internal/output"
	"github.com/akshayn23/drover/internal/pool"
	"github.com/akshayn23/drover/internal/progress"
	"github.com/akshayn23/drover/internal/results"
	"github.com/akshayn23/drover/internal/scheduler"
)

// disposeGrace bounds how long teardown waits for work that ignores
// cancellation
const disposeGrace = 2 * time.Second

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var noFail bool
	var withMetadata bool

	cmd := &cobra.Command{
		Use:   "run <batch-file>",
		Short: "Run a batch of tasks from a batch file",
		Long: `Run every task defined in a YAML batch file across a bounded pool of
execution slots. Each task is a command with its own timeout; progress is
rendered in the configured mode and every task ends in exactly one of
Completed, Failed or TimedOut.`,
		Example: `  # Run a batch with up to 3 tasks at a time
  drover run batch.yaml -p 3

  # Full-screen live progress, redrawn every 2 seconds
  drover run batch.yaml -m visual --render-interval 2s

  # Export results as YAML and include timing metadata
  drover run batch.yaml --export results.yaml --metadata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), args[0], noFail, withMetadata)
		},
	}

	cmd.Flags().BoolVar(&noFail, "no-fail", false, "exit zero even when tasks fail or time out")
	cmd.Flags().BoolVar(&withMetadata, "metadata", false, "include timing metadata in result records")

	return cmd
}

func runBatch(ctx context.Context, path string, noFail, withMetadata bool) error {
	logger := slog.Default()

	file, err := LoadFile(path)
	if err != nil {
		return err
	}

	mode, err := progress.ParseMode(viper.GetString("defaults.output_mode"))
	if err != nil {
		return err
	}

	p, err := pool.Open(pool.Capacity{
		Min: viper.GetInt("defaults.min_parallel"),
		Max: viper.GetInt("defaults.parallel"),
	}, newBundle(file), logger)
	if err != nil {
		return err
	}
	defer p.Teardown(disposeGrace)

	batch := scheduler.NewBatch(p, logger, viper.GetInt("log.max_entries"))

	defaultTimeout := viper.GetDuration("defaults.timeout")
	for _, spec := range file.Tasks {
		timeout, err := spec.ParseTimeout(defaultTimeout)
		if err != nil {
			return err
		}
		if _, err := batch.Submit(commandWork(spec.Command), nil, scheduler.SubmitOptions{
			ID:          spec.ID,
			Description: spec.Description,
			Timeout:     timeout,
		}); err != nil {
			return err
		}
	}

	reporter, err := progress.New(mode, progress.Options{
		NoColor:        viper.GetBool("no-color"),
		RenderInterval: viper.GetDuration("defaults.render_interval"),
		DashboardPath:  viper.GetString("defaults.dashboard_path"),
		RunID:          batch.RunID(),
	})
	if err != nil {
		return err
	}

	opts := []scheduler.Option{
		scheduler.WithPollInterval(viper.GetDuration("defaults.poll_interval")),
		scheduler.WithReporter(reporter),
		scheduler.WithLogger(logger),
	}

	// In silent mode an overall bar on stderr is the only live feedback
	if mode == progress.ModeSilent {
		bar := makeProgressBar(batch.Size())
		opts = append(opts, scheduler.WithOnProgress(func(u scheduler.Update) {
			_ = bar.Set(u.Completed)
		}))
		defer bar.Finish()
	}

	runErr := scheduler.New(batch, opts...).Run(ctx)
	if runErr != nil {
		logger.Warn("batch interrupted", "error", runErr)
	}

	records := results.Collect(batch.Tasks(), withMetadata)

	if err := printRecords(records); err != nil {
		return err
	}
	if target := viper.GetString("defaults.export"); target != "" {
		if err := exportRecords(records, target); err != nil {
			return err
		}
		logger.Info("results exported", "target", target)
	}

	if !noFail && results.HasFailures(records) {
		summary := results.Summarize(records)
		return fmt.Errorf("%d of %d tasks did not complete (%d failed, %d timed out)",
			summary.Failed+summary.TimedOut, summary.Total, summary.Failed, summary.TimedOut)
	}
	return nil
}

// newBundle builds the capability bundle every task shares: the batch file's
// env map and a validated working directory. A bad workdir is a warning, not
// a fatal pool error.
func newBundle(file *File) *capability.Bundle {
	bundle := capability.NewBundle()

	env := make(map[string]string, len(file.Env))
	for k, v := range file.Env {
		env[k] = v
	}
	bundle.RegisterValue("env", env)

	workdir := file.Workdir
	bundle.Register("workdir", func() (interface{}, error) {
		if workdir == "" {
			return "", nil
		}
		info, err := os.Stat(workdir)
		if err != nil {
			return nil, fmt.Errorf("workdir %q: %w", workdir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("workdir %q is not a directory", workdir)
		}
		return workdir, nil
	})

	return bundle
}

// commandWork wraps an argv as a pool work item. The command inherits the
// process environment plus the bundle's env capability, runs in the bundle's
// workdir, and is killed when its context is cancelled.
func commandWork(argv []string) pool.WorkFunc {
	return func(ctx context.Context, scope *capability.Scope, _ []interface{}) (interface{}, error) {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

		if wd, err := scope.GetString("workdir"); err == nil && wd != "" {
			cmd.Dir = wd
		}
		cmd.Env = os.Environ()
		if v, ok := scope.Get("env"); ok {
			if env, ok := v.(map[string]string); ok {
				for k, val := range env {
					cmd.Env = append(cmd.Env, k+"="+val)
				}
			}
		}

		out, err := cmd.CombinedOutput()
		text := strings.TrimSpace(string(out))
		if err != nil {
			if text != "" {
				return nil, fmt.Errorf("%w: %s", err, text)
			}
			return nil, err
		}
		return text, nil
	}
}

func makeProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Running batch"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// printRecords renders the record set to stdout in the --output format
func printRecords(records []results.Record) error {
	format := output.Format(viper.GetString("output"))
	switch format {
	case output.FormatJSON, output.FormatYAML, output.FormatTable:
	default:
		format = output.FormatTable
	}

	formatter := output.NewFormatter(format,
		output.WithNoColor(viper.GetBool("no-color")),
		output.WithWide(true),
	)
	return formatter.FormatRecords(os.Stdout, records)
}

// exportRecords hands the record set to the export target; the format is
// selected from the target's suffix, defaulting to structured JSON
func exportRecords(records []results.Record, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create export target: %w", err)
	}
	defer f.Close()

	formatter := output.NewFormatter(output.FormatForHint(target),
		output.WithNoColor(true),
	)
	return formatter.FormatRecords(f, records)
}

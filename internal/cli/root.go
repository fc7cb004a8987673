package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akshayn23/drover/internal/cli/run"
	"github.com/akshayn23/drover/internal/config"
)

var (
	cfgFile string
)

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drover",
		Short: "Drover - bounded batch task orchestrator",
		Long: `Drover runs a batch of independent work items across a bounded pool of
execution slots, enforces a per-task timeout, shows live progress, and
aggregates every outcome into a uniform result set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	// Define persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.drover.yaml)")
	rootCmd.PersistentFlags().IntP("parallel", "p", 5, "maximum number of concurrently executing tasks")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "default per-task timeout")
	rootCmd.PersistentFlags().Duration("poll-interval", time.Second, "scheduler sampling cadence")
	rootCmd.PersistentFlags().Duration("render-interval", 3*time.Second, "visual/dashboard redraw cadence")
	rootCmd.PersistentFlags().StringP("mode", "m", "summary", "progress mode (silent, summary, visual, dashboard)")
	rootCmd.PersistentFlags().String("dashboard-path", "drover-dashboard.json", "dashboard mode export path")
	rootCmd.PersistentFlags().String("export", "", "result export target (format from suffix: .json, .yaml, .txt)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Bind flags to viper
	viper.BindPFlag("defaults.parallel", rootCmd.PersistentFlags().Lookup("parallel"))
	viper.BindPFlag("defaults.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("defaults.poll_interval", rootCmd.PersistentFlags().Lookup("poll-interval"))
	viper.BindPFlag("defaults.render_interval", rootCmd.PersistentFlags().Lookup("render-interval"))
	viper.BindPFlag("defaults.output_mode", rootCmd.PersistentFlags().Lookup("mode"))
	viper.BindPFlag("defaults.dashboard_path", rootCmd.PersistentFlags().Lookup("dashboard-path"))
	viper.BindPFlag("defaults.export", rootCmd.PersistentFlags().Lookup("export"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(run.NewRunCmd())

	return rootCmd
}

// initConfig initializes configuration and logging. Loading goes through the
// config manager on the global viper instance, so flag bindings and the
// loaded file resolve through one view with the usual precedence.
func initConfig(cmd *cobra.Command) error {
	if _, err := config.NewManagerWith(viper.GetViper(), cfgFile).Load(); err != nil {
		return err
	}

	setupLogging(cmd)

	return nil
}

// setupLogging configures structured logging with slog
func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	if verbose {
		slog.Debug("verbose logging enabled")
		if viper.ConfigFileUsed() != "" {
			slog.Debug("loaded configuration", "file", viper.ConfigFileUsed())
		}
	}
}

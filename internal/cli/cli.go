package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pixelflow/internal/logging"
	"pixelflow/internal/orchestrator"
	"pixelflow/internal/processor"
	"pixelflow/internal/workspace"
	"pixelflow/pkg/config"
)

type rootOpts struct {
	configFile    string
	cpuProfile    string
	memProfileDir string

	profiler *Profiler
}

// Execute runs the command tree with args. Profiles started through the root
// flags are flushed on every path, including failed commands.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOpts{}
	rootCmd := newRootCommand(opts)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	runErr := rootCmd.ExecuteContext(ctx)
	if stopErr := opts.profiler.Stop(); stopErr != nil {
		return errors.Join(runErr, fmt.Errorf("flush profiles: %w", stopErr))
	}
	return runErr
}

func newRootCommand(opts *rootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pixelflow",
		Short:         "Runs image operations through an external processor and compares serial and parallel execution",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			opts.profiler, err = StartProfiling(opts.cpuProfile, opts.memProfileDir)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file. Environment variables take precedence over it")
	rootCmd.PersistentFlags().StringVar(&opts.cpuProfile, "cpu-profile", "", "Dump CPU profile into the supplied file")
	rootCmd.PersistentFlags().StringVar(&opts.memProfileDir, "mem-profile-dir", "", "Dump memory profiles into the supplied directory")

	rootCmd.AddCommand(ServeAppCommand(opts), ImageCommands(opts))
	return rootCmd
}

func (o *rootOpts) loadConfig() (config.ServiceConfig, error) {
	return config.NewLoader().WithFile(o.configFile).Load()
}

// buildOrchestrator wires the same components the server uses, for one-shot
// command line runs.
func buildOrchestrator(cfg config.ServiceConfig) (*orchestrator.Orchestrator, error) {
	logging.SetLevel(cfg.Log.Level)
	logger := logging.BuildLoggerTo(os.Stderr)

	proc := processor.New(cfg.Processor, logger)
	if err := proc.Available(); err != nil {
		return nil, err
	}
	return orchestrator.New(workspace.NewManager(cfg.Workspace.Dir), proc, cfg.Orchestrator, logger), nil
}

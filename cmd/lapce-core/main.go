// Package main runs a headless lapce editing core: it opens a workspace and
// files, keeps them in sync with disk and recomputes highlights and
// diagnostics until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/cybernobie/lapce/internal/app"
	"github.com/cybernobie/lapce/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:     "lapce-core [flags] [files...]",
		Short:   "Headless lapce editing core",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args
			if opts.WorkspacePath == "" && len(args) > 0 {
				if abs, err := filepath.Abs(args[0]); err == nil {
					opts.WorkspacePath = filepath.Dir(abs)
				}
			}
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to a TOML or YAML configuration file")
	flags.StringVarP(&opts.WorkspacePath, "workspace", "w", "", "workspace directory")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newConfigCmd(&opts))
	return root
}

func run(ctx context.Context, opts app.Options) error {
	tally := newTally()
	opts.Presenter = tally

	application, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	if err := application.Shutdown(); err != nil {
		application.Logger().Warn("shutdown: %v", err)
	}

	tally.report(os.Stdout, application.Status(), application.Metrics())
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// newConfigCmd prints the effective configuration as TOML.
func newConfigCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if opts.LogLevel != "" {
				cfg.Log.Level = opts.LogLevel
			}
			if opts.WorkspacePath != "" {
				cfg.Workspace.Path = opts.WorkspacePath
			}
			out, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/calsync/internal/config"
)

// NewDaemonCommand creates the daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run sync on a schedule until interrupted",
		Long: `Run sync repeatedly on the cron schedule configured under daemon.schedule.
A tick that comes due while the previous run is still in flight is skipped,
so runs never overlap and the state database keeps a single writer.

Example config:

  daemon:
    schedule: "*/30 * * * *"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, opts)
		},
	}

	return cmd
}

func runDaemon(cmd *cobra.Command, opts *SyncOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}
	if cfg.Daemon.Schedule == "" {
		return NewExitError(ExitCommandError, "configuration: daemon.schedule: required for the daemon command")
	}
	if _, err := cron.ParseStandard(cfg.Daemon.Schedule); err != nil {
		return WrapExitError(ExitCommandError, "configuration: daemon.schedule", err)
	}

	tick := func() {
		rep, err := executeRun(ctx, cfg, opts, time.Now().UTC())
		if err != nil {
			slog.Error("scheduled sync aborted", "error", err)
			if rep == nil {
				return
			}
		}
		slog.Info("scheduled sync finished",
			"run_id", rep.RunID,
			"failures", rep.HasFailures(),
		)
		fmt.Fprint(cmd.OutOrStdout(), rep.Summary())
		if rep.HasFailures() {
			dispatchFailureNotification(ctx, cfg, opts, rep)
		}
	}

	// SkipIfStillRunning keeps runs strictly serialized: the state store
	// assumes a single writer per run.
	sched := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := sched.AddFunc(cfg.Daemon.Schedule, tick); err != nil {
		return WrapExitError(ExitCommandError, "schedule sync", err)
	}

	slog.Info("daemon starting", "schedule", cfg.Daemon.Schedule)
	tick() // one immediate run, then follow the schedule
	sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	// Wait for an in-flight run to finish before exiting.
	stopCtx := sched.Stop()
	<-stopCtx.Done()
	slog.Info("daemon stopped")
	return nil
}

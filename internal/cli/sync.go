package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/calsync/internal/calendar"
	"github.com/roach88/calsync/internal/config"
	"github.com/roach88/calsync/internal/engine"
	"github.com/roach88/calsync/internal/notify"
	"github.com/roach88/calsync/internal/state"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	DryRun bool

	// NewClient overrides calendar client construction (for testing).
	// If nil, an authenticated Google Calendar client is built from the
	// configured credentials and token files.
	NewClient func(ctx context.Context, cfg *config.Config) (calendar.Client, error)

	// Notifier overrides failure notification dispatch (for testing).
	Notifier notify.Notifier
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror source calendar events into the target calendar",
		Long: `Fetch events from every configured source calendar within the sync window
and create, update, or delete their mirrors in the target calendar. The local
state database records every mirrored event, so running sync repeatedly is
safe: unchanged events are skipped.

Exit status is 0 when every action succeeded, 1 when any event or calendar
failed, and 2 for configuration or state-database problems.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be synced without making changes")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	rep, err := executeRun(ctx, cfg, opts, time.Now().UTC())

	// The report is produced even when the run aborted; render what we have.
	if rep != nil {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if ferr := f.Result(!rep.HasFailures(), rep.Summary(), rep); ferr != nil {
			slog.Error("render report", "error", ferr)
		}
	}
	if err != nil {
		return err
	}

	if rep.HasFailures() {
		dispatchFailureNotification(ctx, cfg, opts, rep)
		return NewExitError(ExitFailure, "sync completed with failures")
	}
	return nil
}

// executeRun opens the store, builds the client, and runs one reconcile pass.
// Extracted so the daemon command reuses it per tick.
func executeRun(ctx context.Context, cfg *config.Config, opts *SyncOptions, now time.Time) (*engine.Report, error) {
	window, err := engine.ComputeWindow(now, cfg.Sync.DaysAhead, cfg.Sync.DaysBack)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuration", err)
	}

	client, err := buildClient(ctx, cfg, opts.NewClient)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "calendar client", err)
	}

	dbPath, err := cfg.StateDBPath()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "state database", err)
	}
	store, err := state.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "state database", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("close state database", "error", cerr)
		}
	}()

	if opts.DryRun {
		slog.Info("dry run: no changes will be made")
	}

	eng := engine.New(client, store, cfg.TargetCalendarID, engine.Options{
		EventPrefix:          cfg.Sync.EventPrefix,
		SyncDescription:      cfg.Sync.SyncDescription,
		DeleteOnSourceDelete: cfg.Sync.DeleteOnSourceDelete,
		DryRun:               opts.DryRun,
	})

	rep, err := eng.Reconcile(ctx, cfg.SourceCalendars, window)
	if err != nil {
		// Store failure: idempotence can no longer be guaranteed, stop.
		return rep, WrapExitError(ExitCommandError, "sync aborted", err)
	}
	return rep, nil
}

func buildClient(ctx context.Context, cfg *config.Config, override func(context.Context, *config.Config) (calendar.Client, error)) (calendar.Client, error) {
	if override != nil {
		return override(ctx, cfg)
	}
	return calendar.NewService(ctx, cfg.CredentialsFile, cfg.TokenFile)
}

func dispatchFailureNotification(ctx context.Context, cfg *config.Config, opts *SyncOptions, rep *engine.Report) {
	if opts.DryRun || !cfg.Notify.OnFailure {
		return
	}

	var notifier notify.Notifier = notify.NewCommand(cfg.Notify.Command)
	if opts.Notifier != nil {
		notifier = opts.Notifier
	}
	if err := notifier.NotifyFailure(ctx, rep.FailureSummary()); err != nil {
		slog.Error("failure notification", "error", err)
	}
}

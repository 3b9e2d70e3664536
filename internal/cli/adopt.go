package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/calsync/internal/config"
	"github.com/roach88/calsync/internal/engine"
	"github.com/roach88/calsync/internal/state"
)

// AdoptOptions holds flags for the adopt command.
type AdoptOptions struct {
	*SyncOptions
}

// NewAdoptCommand creates the adopt command.
func NewAdoptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdoptOptions{SyncOptions: &SyncOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "Record target events that already mirror source events",
		Long: `Match events already present in the target calendar against source events
by title, start, and end, and record them in the state database without
creating anything. Use this when the state database is new but the target
calendar already contains mirrored events, so the next sync does not create
duplicates.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdopt(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be adopted without making changes")

	return cmd
}

func runAdopt(cmd *cobra.Command, opts *AdoptOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	window, err := engine.ComputeWindow(time.Now().UTC(), cfg.Sync.DaysAhead, cfg.Sync.DaysBack)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	client, err := buildClient(ctx, cfg, opts.NewClient)
	if err != nil {
		return WrapExitError(ExitCommandError, "calendar client", err)
	}

	dbPath, err := cfg.StateDBPath()
	if err != nil {
		return WrapExitError(ExitCommandError, "state database", err)
	}
	store, err := state.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "state database", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Error("close state database", "error", cerr)
		}
	}()

	eng := engine.New(client, store, cfg.TargetCalendarID, engine.Options{
		EventPrefix:     cfg.Sync.EventPrefix,
		SyncDescription: cfg.Sync.SyncDescription,
		DryRun:          opts.DryRun,
	})

	rep, err := eng.Adopt(ctx, cfg.SourceCalendars, window)
	if rep != nil {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if ferr := f.Result(!rep.HasFailures(), rep.Summary(), rep); ferr != nil {
			slog.Error("render report", "error", ferr)
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "adopt aborted", err)
	}
	if rep.HasFailures() {
		return NewExitError(ExitFailure, "adopt completed with failures")
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/calsync/internal/config"
)

// NewCalendarsCommand creates the calendars command.
func NewCalendarsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List calendars visible to the authenticated user",
		Long: `List every calendar the authenticated account can see, with its ID and
access role. Use the IDs to fill in target_calendar_id and source_calendars
in the configuration file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendars(cmd, opts)
		},
	}

	return cmd
}

func runCalendars(cmd *cobra.Command, opts *SyncOptions) error {
	ctx := cmd.Context()

	// Lenient load: only credentials matter here, and the command should
	// work before the sync section is configured.
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	client, err := buildClient(ctx, cfg, opts.NewClient)
	if err != nil {
		return WrapExitError(ExitCommandError, "calendar client", err)
	}

	infos, err := client.ListCalendars(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "list calendars", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(Response{Status: "ok", Data: infos})
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No calendars found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tACCESS")
	for _, info := range infos {
		name := info.Name
		if info.Primary {
			name += " (primary)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, info.ID, info.AccessRole)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nTotal: %d calendar(s)\n", len(infos))
	return nil
}

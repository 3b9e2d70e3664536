package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/calsync/internal/calendar"
	"github.com/roach88/calsync/internal/config"
)

// NewAuthCommand creates the auth command.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: `Run the one-time OAuth authorization flow: print a consent URL, read the
authorization code, and store the resulting token at the configured
token_file. The other commands refresh this token automatically.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration", err)
			}

			err = calendar.Authorize(cmd.Context(), cfg.CredentialsFile, cfg.TokenFile,
				cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return WrapExitError(ExitCommandError, "authorization", err)
			}
			return nil
		},
	}

	return cmd
}

package cmd

import (
	"fmt"

	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the backend chat session",
	}

	cmd.AddCommand(
		newSessionShowCmd(app),
		newSessionResetCmd(app),
	)

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, ok := app.sessions.Current(cmd.Context())
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no session")
				return nil
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id:\t%s\n", session.ID)
			_, _ = fmt.Fprintf(out, "owner:\t%s\n", session.OwnerID)
			if session.Expired(app.now()) {
				_, _ = fmt.Fprintln(out, "state:\texpired")
			} else {
				_, _ = fmt.Fprintf(out, "state:\tactive until %s\n", session.LastActiveAt.Add(domain.SessionTTL).Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}
}

func newSessionResetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the stored session so the next query starts a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.sessions.Reset(cmd.Context())
			return nil
		},
	}
}

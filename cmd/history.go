package cmd

import (
	"context"
	"fmt"

	transcript "github.com/careguide/careguide-cli/internal/adapters/render/transcript"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var roomID string
	var syncRemote bool
	var limit int
	var showMeta bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a room's transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, app, roomID, syncRemote, limit, showMeta)
		},
	}

	cmd.Flags().StringVar(&roomID, "room", defaultRoomID, "Room to show")
	cmd.Flags().BoolVar(&syncRemote, "sync", false, "Replace the local transcript with the backend's history first")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum turns to sync from the backend")
	cmd.Flags().BoolVar(&showMeta, "meta", false, "Show agent and confidence metadata")

	return cmd
}

func runHistory(cmd *cobra.Command, app *app, roomID string, syncRemote bool, limit int, showMeta bool) error {
	ctx := cmd.Context()

	if syncRemote {
		var turns int
		sync := func(ctx context.Context) error {
			var err error
			turns, err = app.conversations.RestoreHistory(ctx, app.ownerID, roomID, limit)
			return err
		}
		if err := runHistorySyncSpinner(ctx, cmd.ErrOrStderr(), sync); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "synced %d turns\n", turns)
	}

	messages, err := app.conversations.Messages(ctx, roomID)
	if err != nil {
		return err
	}

	rendered, err := app.renderer(messages, transcript.RenderOptions{
		Title:    roomID,
		ShowMeta: showMeta,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

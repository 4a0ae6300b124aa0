package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoomsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Manage chat rooms",
	}

	cmd.AddCommand(
		newRoomsListCmd(app),
		newRoomsNewCmd(app),
		newRoomsPinCmd(app),
		newRoomsUnpinCmd(app),
		newRoomsArchiveCmd(app),
		newRoomsRmCmd(app),
	)

	return cmd
}

func newRoomsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms with their summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rooms, err := app.conversations.Rooms(cmd.Context())
			if err != nil {
				return err
			}

			for _, room := range rooms {
				marker := " "
				if room.IsPinned {
					marker = "*"
				}
				title := room.Title
				if room.IsArchived {
					title += " (archived)"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\t%d messages\n", marker, room.ID, title, room.MessageCount)
			}

			return nil
		},
	}
}

func newRoomsNewCmd(app *app) *cobra.Command {
	var agentType string

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := app.conversations.CreateRoom(cmd.Context(), args[0], agentType)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), room.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentType, "agent", "", "Default agent type for the room")

	return cmd
}

func newRoomsPinCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pin [room-id]",
		Short: "Pin a room to the top of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.conversations.SetRoomPinned(cmd.Context(), args[0], true)
		},
	}
}

func newRoomsUnpinCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpin [room-id]",
		Short: "Unpin a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.conversations.SetRoomPinned(cmd.Context(), args[0], false)
		},
	}
}

func newRoomsArchiveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive [room-id]",
		Short: "Archive a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.conversations.SetRoomArchived(cmd.Context(), args[0], true)
		},
	}
}

func newRoomsRmCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [room-id]",
		Short: "Delete a room and its stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.conversations.DeleteRoom(cmd.Context(), args[0])
		},
	}
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/careguide/careguide-cli/internal/application"
	"github.com/careguide/careguide-cli/internal/domain"
	"github.com/spf13/cobra"
)

const defaultRoomID = "general"

func newChatCmd(app *app) *cobra.Command {
	var roomID string
	var agentType string

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the CareGuide assistant and stream the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, app, roomID, agentType, args[0])
		},
	}

	cmd.Flags().StringVar(&roomID, "room", defaultRoomID, "Room to chat in")
	cmd.Flags().StringVar(&agentType, "agent", "", "Agent type hint forwarded to the backend")

	return cmd
}

func runChat(cmd *cobra.Command, app *app, roomID, agentType, question string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := app.conversations.EnsureRoom(ctx, roomID, roomID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	streamed := false

	err := app.conversations.Submit(ctx, app.ownerID, roomID, question, application.SubmitOptions{
		AgentType: agentType,
		Profile:   app.profile,
	}, func(chunk domain.StreamChunk) {
		switch {
		case !streamed:
			streamed = true
		case chunk.Status == domain.ChunkStatusNewMessage:
			_, _ = fmt.Fprint(out, domain.SectionSeparator)
		case chunk.Status != "" && chunk.Status != domain.ChunkStatusStreaming && chunk.Status != domain.ChunkStatusComplete:
			_, _ = fmt.Fprint(out, "\n\n")
		}
		_, _ = fmt.Fprint(out, chunk.Content)
	})
	if err != nil {
		return err
	}

	if !streamed {
		// Nothing streamed live: either an empty stream (no bubble at all)
		// or a transport failure settled in-room. Show what the room shows.
		messages, err := app.conversations.Messages(cmd.Context(), roomID)
		if err == nil && len(messages) > 0 {
			if last := messages[len(messages)-1]; last.Role == domain.RoleAssistant {
				_, _ = fmt.Fprintln(out, last.Content)
			}
		}
		return nil
	}

	_, _ = fmt.Fprintln(out)
	return nil
}

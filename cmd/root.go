package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cg",
		Short:         "CareGuide CLI (cg): chat with the CareGuide kidney-health assistant",
		Long:          "cg (CareGuide CLI) streams answers from the CareGuide assistant, keeps per-room transcripts on disk, and manages the backend chat session from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(app),
		newRoomsCmd(app),
		newSessionCmd(app),
		newHistoryCmd(app),
	)

	return rootCmd
}

package main

import (
	"github.com/go-go-golems/subwatch/pkg/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subwatch",
		Short: "Follow a submission server's history from the terminal",
		Long: `subwatch long-polls a submission server and keeps its history view
current. The supervisor view also blinks the terminal title while there
are new submissions and relays status actions back to the server.

Settings come from flags, SUBWATCH_* environment variables and
$HOME/.config/subwatch/config.yml, in that order of priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(root.PersistentFlags())

	root.AddCommand(
		newWatchCmd(false),
		newWatchCmd(true),
		newSubmitCmd(),
		newConfigCmd(),
		newFakeServerCmd(),
	)
	return root
}

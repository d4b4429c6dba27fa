package main

import (
	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/messages"
)

const (
	flagVerbose = "verbose"
	flagGlobal  = "global"
	flagTool    = "tool"
	flagType    = "type"
	flagDiff    = "diff"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.Flags().BoolP("version", "v", false, messages.RootVersionFlag)
	cmd.PersistentFlags().Bool(flagVerbose, false, messages.RootVerboseFlagUsage)

	cmd.AddCommand(
		newInitCmd(),
		newEnableCmd(),
		newDisableCmd(),
		newRemoveCmd(),
		newStatusCmd(),
		newMigrateCmd(),
		newPluginCmd(),
		newDoctorCmd(),
		newMcpCmd(),
	)
	return cmd
}

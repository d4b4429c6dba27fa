package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/plugins"
)

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.PluginUse,
		Short: messages.PluginShort,
	}
	cmd.AddCommand(
		newPluginListCmd(),
		newPluginOpCmd(messages.PluginTakeoverUse, messages.PluginTakeoverShort, messages.PluginTakeoverDoneFmt, (*plugins.Manager).Takeover),
		newPluginOpCmd(messages.PluginReleaseUse, messages.PluginReleaseShort, messages.PluginReleaseDoneFmt, (*plugins.Manager).Release),
		newPluginSyncCmd(),
	)
	return cmd
}

func newPluginListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.PluginListUse,
		Short: messages.PluginListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			statuses, err := env.pluginManager().ListPlugins()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(statuses) == 0 {
				_, _ = fmt.Fprintln(out, messages.PluginListNone)
				return nil
			}
			for _, status := range statuses {
				mode := messages.PluginNativeLabel
				if status.TakenOver {
					mode = messages.PluginTakenOverLabel
				}
				flag := messages.PluginUnsetLabel
				if status.EnabledSet {
					flag = messages.PluginDisabledLabel
					if status.Enabled {
						flag = messages.PluginEnabledLabel
					}
				}
				_, _ = fmt.Fprintf(out, messages.PluginListLineFmt, status.ID, status.Version, mode, flag, status.Components)
			}
			return nil
		},
	}
}

type pluginOp func(manager *plugins.Manager, pluginID string) (plugins.OpResult, error)

// newPluginOpCmd builds takeover or release, which differ only in the manager call.
func newPluginOpCmd(use string, short string, doneFmt string, op pluginOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			result, err := op(env.pluginManager(), args[0])
			if err != nil {
				return err
			}
			return printOpResult(cmd.OutOrStdout(), fmt.Sprintf(doneFmt, args[0]), result)
		},
	}
}

func newPluginSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.PluginSyncUse,
		Short: messages.PluginSyncShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			result, err := env.pluginManager().Sync()
			if err != nil {
				return err
			}
			return printOpResult(cmd.OutOrStdout(), messages.PluginSyncDone, result)
		},
	}
}

func printOpResult(out io.Writer, label string, result plugins.OpResult) error {
	_, _ = fmt.Fprintf(out, messages.PluginOpSummaryFmt, label, len(result.Registered), len(result.Linked), len(result.Unlinked))
	for _, msg := range result.Errors {
		_, _ = fmt.Fprintf(out, messages.PluginOpErrorLineFmt, msg)
	}
	if !result.Success {
		return errors.New(messages.PluginOpFailed)
	}
	return nil
}

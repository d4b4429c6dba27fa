package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/plugins"
)

type toggleFunc func(store *manifest.Store, level manifest.Level, req manifest.ToggleRequest) (manifest.ToggleResult, manifest.Change, error)

func newEnableCmd() *cobra.Command {
	return newToggleCmd(messages.EnableUse, messages.EnableShort, (*manifest.Store).Enable)
}

func newDisableCmd() *cobra.Command {
	return newToggleCmd(messages.DisableUse, messages.DisableShort, (*manifest.Store).Disable)
}

// newToggleCmd builds enable or disable. Both share flags and output; only the
// manifest operation differs.
func newToggleCmd(use string, short string, toggle toggleFunc) *cobra.Command {
	var (
		global   bool
		tool     string
		kindName string
		showDiff bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			kind, err := parseKindFlag(kindName)
			if err != nil {
				return err
			}
			store, level, err := env.store(global)
			if err != nil {
				return err
			}
			req := manifest.ToggleRequest{Name: args[0], Kind: kind, Tool: strings.TrimSpace(tool)}
			env.warnUnmanagedTool(req.Tool)
			result, change, err := toggle(store, level, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.AutoRegistered {
				_, _ = fmt.Fprintln(out, fmt.Sprintf(messages.ItemAutoRegisteredFmt, result.Type, result.Name))
			}
			_, _ = fmt.Fprintln(out, result.Message)
			printDiff(out, change, showDiff)
			if !global || req.Tool != "" {
				return nil
			}
			return applyLinks(out, env.pluginManager(), []manifest.ItemRef{{Kind: result.Type, Name: result.Name}})
		},
	}
	cmd.Flags().BoolVar(&global, flagGlobal, false, messages.GlobalFlagUsage)
	cmd.Flags().StringVar(&tool, flagTool, "", messages.ToolFlagUsage)
	cmd.Flags().StringVar(&kindName, flagType, "", messages.TypeFlagUsage)
	cmd.Flags().BoolVar(&showDiff, flagDiff, false, messages.DiffFlagUsage)
	return cmd
}

func newRemoveCmd() *cobra.Command {
	var (
		global   bool
		kindName string
		source   string
		showDiff bool
	)

	cmd := &cobra.Command{
		Use:   messages.RemoveUse,
		Short: messages.RemoveShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0 && source == "":
				return errors.New(messages.RemoveArgsRequired)
			case len(args) == 1 && source != "":
				return errors.New(messages.RemoveArgsExclusive)
			}
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			store, _, err := env.store(global)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var refs []manifest.ItemRef
			if source != "" {
				result, change, err := store.RemoveBySource(source)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, result.Message)
				for _, msg := range result.Errors {
					_, _ = fmt.Fprintf(out, messages.RemoveErrorLineFmt, msg)
				}
				printDiff(out, change, showDiff)
				refs = result.Removed
			} else {
				kind, err := parseKindFlag(kindName)
				if err != nil {
					return err
				}
				result, change, err := store.Remove(args[0], kind)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, result.Message)
				printDiff(out, change, showDiff)
				refs = []manifest.ItemRef{{Kind: result.Type, Name: result.Name}}
			}
			if !global {
				return nil
			}
			return applyLinks(out, env.pluginManager(), refs)
		},
	}
	cmd.Flags().BoolVar(&global, flagGlobal, false, messages.GlobalFlagUsage)
	cmd.Flags().StringVar(&kindName, flagType, "", messages.TypeFlagUsage)
	cmd.Flags().StringVar(&source, "source", "", messages.RemoveSourceFlag)
	cmd.Flags().BoolVar(&showDiff, flagDiff, false, messages.DiffFlagUsage)
	return cmd
}

func parseKindFlag(value string) (manifest.Kind, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return manifest.ParseKind(value)
}

func printDiff(out io.Writer, change manifest.Change, enabled bool) {
	if !enabled {
		return
	}
	if !change.Changed() {
		_, _ = fmt.Fprintln(out, messages.NoChangeNotice)
		return
	}
	_, _ = fmt.Fprint(out, change.Diff())
}

// applyLinks brings plugin symlinks in line with the global manifest after a
// state change. Items without a plugin origin are skipped by the manager.
func applyLinks(out io.Writer, manager *plugins.Manager, refs []manifest.ItemRef) error {
	var linked, unlinked int
	var failures []string
	for _, ref := range refs {
		result, err := manager.ApplyItemLinks(ref.Kind, ref.Name)
		if err != nil {
			return err
		}
		linked += len(result.Linked)
		unlinked += len(result.Unlinked)
		failures = append(failures, result.Errors...)
	}
	if linked > 0 || unlinked > 0 {
		_, _ = fmt.Fprintf(out, messages.LinkSummaryFmt, linked, unlinked)
	}
	for _, msg := range failures {
		_, _ = fmt.Fprintf(out, messages.LinkErrorLineFmt, msg)
	}
	if len(failures) > 0 {
		return errors.New(messages.PluginOpFailed)
	}
	return nil
}

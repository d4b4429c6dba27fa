package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/migrate"
	"github.com/conn-castle/mycelium/internal/prompt"
)

var newPromptUI = func() prompt.UI { return prompt.NewHuhUI() }

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.MigrateUse,
		Short: messages.MigrateShort,
	}
	cmd.AddCommand(newMigratePlanCmd(), newMigrateApplyCmd(), newMigrateClearCmd())
	return cmd
}

// planFlags are shared by plan and apply.
type planFlags struct {
	strategy string
	scans    []string
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "", messages.MigrateStrategyFlag)
	cmd.Flags().StringArrayVar(&f.scans, "scan", nil, messages.MigrateScanFlag)
}

// build loads the scan results and generates a plan. An empty strategy falls
// back to config.toml.
func (f *planFlags) build(env cmdEnv) (migrate.MigrationPlan, error) {
	if len(f.scans) == 0 {
		return migrate.MigrationPlan{}, errors.New(messages.MigrateScanRequired)
	}
	name := f.strategy
	if strings.TrimSpace(name) == "" {
		name = env.Settings.Migration.Strategy
	}
	strategy, err := migrate.ParseStrategy(name)
	if err != nil {
		return migrate.MigrationPlan{}, err
	}
	scans, err := migrate.LoadScanResults(f.scans...)
	if err != nil {
		return migrate.MigrationPlan{}, err
	}
	return migrate.NewPlanner(env.Log).GeneratePlan(scans, strategy)
}

func newMigratePlanCmd() *cobra.Command {
	var (
		flags  planFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   messages.MigratePlanUse,
		Short: messages.MigratePlanShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			plan, err := flags.build(env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil
			}
			printPlan(out, plan)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, messages.MigrateJSONFlag)
	return cmd
}

func newMigrateApplyCmd() *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   messages.MigrateApplyUse,
		Short: messages.MigrateApplyShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			plan, err := flags.build(env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if plan.Strategy == migrate.StrategyInteractive && len(plan.Unresolved()) > 0 {
				ui := newPromptUI()
				choices, err := prompt.ResolveConflicts(ui, plan, env.Log)
				if err != nil {
					return err
				}
				if plan, err = migrate.Resolve(plan, choices); err != nil {
					return err
				}
				printPlan(out, plan)
				confirmed := true
				if err := ui.Confirm(messages.MigrateConfirmPrompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					_, _ = fmt.Fprintln(out, messages.MigrateAborted)
					return nil
				}
			}

			result, err := migrate.NewExecutor(env.Paths.GlobalDir, env.Log).Execute(plan)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.MigrateAppliedFmt, result.SkillsImported, result.MCPsImported, result.MemoryImported, result.ComponentsImported)
			for _, msg := range result.Errors {
				_, _ = fmt.Fprintf(out, messages.MigrateErrorLineFmt, msg)
			}
			if !result.Success {
				return errors.New(messages.MigratePartialFailed)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newMigrateClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.MigrateClearUse,
		Short: messages.MigrateClearShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			result, err := migrate.NewExecutor(env.Paths.GlobalDir, env.Log).ClearMigration()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, messages.MigrateClearedFmt, result.SkillsRemoved, result.ComponentsRemoved, result.MCPsRemoved, result.MemoryRemoved, result.EntriesRemoved)
			for _, msg := range result.Errors {
				_, _ = fmt.Fprintf(out, messages.MigrateErrorLineFmt, msg)
			}
			if !result.Success {
				return errors.New(messages.MigrateClearFailed)
			}
			return nil
		},
	}
}

func printPlan(out io.Writer, plan migrate.MigrationPlan) {
	_, _ = fmt.Fprintf(out, messages.MigratePlanHeaderFmt, plan.Strategy)
	_, _ = fmt.Fprintf(out, messages.MigratePlanCountsFmt, len(plan.Skills), len(plan.MCPs), len(plan.Memory), len(plan.Components))
	for _, conflict := range plan.Conflicts {
		resolution := messages.MigrateResolvedNone
		switch {
		case conflict.Resolved != nil:
			resolution = fmt.Sprintf(messages.MigrateResolvedFromFmt, conflict.Resolved.Source)
		case plan.Strategy == migrate.StrategyAll:
			resolution = messages.MigrateResolvedAll
		}
		_, _ = fmt.Fprintf(out, messages.MigrateConflictFmt, conflict.Type, conflict.Name, resolution)
	}
	if unresolved := plan.Unresolved(); len(unresolved) > 0 {
		_, _ = fmt.Fprintf(out, messages.MigrateUnresolvedFmt, len(unresolved))
	}
}

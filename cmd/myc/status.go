package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

func newStatusCmd() *cobra.Command {
	var tool string

	cmd := &cobra.Command{
		Use:   messages.StatusUse,
		Short: messages.StatusShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			tool = strings.TrimSpace(tool)
			if tool != "" {
				if err := manifest.ValidateTool(tool); err != nil {
					return err
				}
				env.warnUnmanagedTool(tool)
			}
			scopes, err := loadScopes(env)
			if err != nil {
				return err
			}
			merged := config.LoadMerged(env.Paths, env.Log)
			printStatus(cmd.OutOrStdout(), merged, scopes, tool)
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, flagTool, "", messages.ToolFlagUsage)
	return cmd
}

// scopeDoc is a loaded manifest with the scope it came from. doc is nil when
// the scope has no manifest.
type scopeDoc struct {
	level manifest.Level
	path  string
	doc   *manifest.Document
}

// loadScopes loads the global and project manifests, lowest priority first.
func loadScopes(env cmdEnv) ([]scopeDoc, error) {
	globals := []bool{true}
	if env.Paths.ProjectDir != "" {
		globals = append(globals, false)
	}
	var scopes []scopeDoc
	for _, global := range globals {
		store, level, err := env.store(global)
		if err != nil {
			return nil, err
		}
		doc, err := store.Load()
		if err != nil && !errors.Is(err, manifest.ErrManifestNotFound) {
			return nil, err
		}
		scopes = append(scopes, scopeDoc{level: level, path: store.Path(), doc: doc})
	}
	return scopes, nil
}

func printStatus(out io.Writer, merged config.MergedConfig, scopes []scopeDoc, tool string) {
	docs := make([]*manifest.Document, 0, len(scopes))
	for _, scope := range scopes {
		docs = append(docs, scope.doc)
	}

	mcps := merged.MCPs
	skills, agents, rules, commands := merged.Skills, merged.Agents, merged.Rules, merged.Commands
	if tool != "" {
		view := config.View(merged, docs, tool)
		mcps, skills, agents, rules, commands = view.MCPs, view.Skills, view.Agents, view.Rules, view.Commands
		_, _ = fmt.Fprintf(out, messages.StatusToolHeaderFmt, tool)
	} else {
		_, _ = fmt.Fprint(out, messages.StatusMergedHeader)
	}

	_, _ = fmt.Fprintf(out, messages.StatusSectionFmt, messages.StatusLabelMCPs, len(mcps))
	for _, name := range slices.Sorted(maps.Keys(mcps)) {
		server := mcps[name]
		command := strings.TrimSpace(server.Command + " " + strings.Join(server.Args, " "))
		_, _ = fmt.Fprintf(out, messages.StatusMCPLineFmt, name, merged.Sources[name], command)
	}
	printFileItems(out, messages.StatusLabelSkills, skills)
	printFileItems(out, messages.StatusLabelAgents, agents)
	printFileItems(out, messages.StatusLabelRules, rules)
	printFileItems(out, messages.StatusLabelCommands, commands)

	for _, scope := range scopes {
		_, _ = fmt.Fprintf(out, messages.StatusManifestFmt, scope.level, scope.path)
		if scope.doc == nil || scope.doc.Len() == 0 {
			_, _ = fmt.Fprint(out, messages.StatusNone)
			continue
		}
		for _, ref := range scope.doc.Refs() {
			item, _ := scope.doc.Get(ref.Kind, ref.Name)
			if tool != "" && !item.VisibleTo(tool) {
				continue
			}
			_, _ = fmt.Fprintf(out, messages.StatusManifestItemFmt, ref.Kind, ref.Name, item.EffectiveState(), item.Source)
		}
	}

	if len(merged.Warnings) > 0 {
		_, _ = fmt.Fprintf(out, messages.StatusWarningsFmt, len(merged.Warnings))
		for _, w := range merged.Warnings {
			_, _ = fmt.Fprintf(out, messages.StatusWarningLineFmt, w.Message)
		}
	}
}

func printFileItems(out io.Writer, label string, items map[string]config.FileItem) {
	_, _ = fmt.Fprintf(out, messages.StatusSectionFmt, label, len(items))
	for _, name := range slices.Sorted(maps.Keys(items)) {
		item := items[name]
		_, _ = fmt.Fprintf(out, messages.StatusItemLineFmt, name, item.Layer, item.Path)
	}
}

package prompt

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/migrate"
)

// skipValue marks the option that leaves a conflict unresolved. Source ids
// never start with a space, so it cannot collide with one.
const skipValue = " skip"

// ResolveConflicts asks for a winner of every unresolved conflict in plan and
// returns the choices in conflict order. Skipped conflicts produce no choice.
func ResolveConflicts(ui UI, plan migrate.MigrationPlan, log *slog.Logger) ([]migrate.Choice, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	open := plan.Unresolved()
	var choices []migrate.Choice
	for i, conflict := range open {
		options := make([]Option, 0, len(conflict.Entries)+1)
		for _, entry := range conflict.Entries {
			options = append(options, Option{Label: entryLabel(entry), Value: entry.Source})
		}
		options = append(options, Option{Label: messages.PromptSkipOption, Value: skipValue})

		selected := conflict.Entries[0].Source
		title := fmt.Sprintf(messages.PromptConflictTitleFmt, conflict.Type, conflict.Name, len(conflict.Entries), i+1, len(open))
		if err := ui.Select(title, options, &selected); err != nil {
			return nil, err
		}
		if selected == skipValue {
			log.Info(messages.PromptSkippedLog, "type", string(conflict.Type), "name", conflict.Name)
			continue
		}
		log.Debug(messages.PromptChosenLog, "type", string(conflict.Type), "name", conflict.Name, "source", selected)
		choices = append(choices, migrate.Choice{Type: conflict.Type, Name: conflict.Name, Source: selected})
	}
	return choices, nil
}

// entryLabel describes an entry by source, MCP command line, and timestamp.
func entryLabel(entry migrate.ConflictEntry) string {
	var updated string
	if entry.LastUpdated != nil {
		updated = entry.LastUpdated.Format(messages.PromptTimeLayout)
	}
	if entry.MCP != nil {
		command := strings.TrimSpace(strings.Join(append([]string{entry.MCP.Config.Command}, entry.MCP.Config.Args...), " "))
		if updated != "" {
			return fmt.Sprintf(messages.PromptEntryCommandTimeFmt, entry.Source, command, updated)
		}
		return fmt.Sprintf(messages.PromptEntryCommandFmt, entry.Source, command)
	}
	if updated != "" {
		return fmt.Sprintf(messages.PromptEntryUpdatedFmt, entry.Source, updated)
	}
	return fmt.Sprintf(messages.PromptEntryFmt, entry.Source)
}

package migrate

import (
	"fmt"
	"slices"

	"github.com/conn-castle/mycelium/internal/messages"
)

// Choice picks the entry from Source for one unresolved conflict.
type Choice struct {
	Type   ConflictType `json:"type"`
	Name   string       `json:"name"`
	Source string       `json:"source"`
}

// Resolve returns a copy of plan with each chosen entry accepted and its
// conflict marked resolved. plan itself is left unchanged.
func Resolve(plan MigrationPlan, choices []Choice) (MigrationPlan, error) {
	out := plan
	out.Skills = slices.Clone(plan.Skills)
	out.MCPs = slices.Clone(plan.MCPs)
	out.Conflicts = slices.Clone(plan.Conflicts)

	for _, choice := range choices {
		idx := slices.IndexFunc(out.Conflicts, func(c Conflict) bool {
			return c.Type == choice.Type && c.Name == choice.Name
		})
		if idx < 0 {
			return MigrationPlan{}, fmt.Errorf(messages.MigrateChoiceUnknownFmt, choice.Type, choice.Name)
		}
		conflict := out.Conflicts[idx]
		if conflict.Resolved != nil || out.Strategy == StrategyAll {
			return MigrationPlan{}, fmt.Errorf(messages.MigrateChoiceResolvedFmt, choice.Type, choice.Name)
		}
		entryIdx := slices.IndexFunc(conflict.Entries, func(e ConflictEntry) bool {
			return e.Source == choice.Source
		})
		if entryIdx < 0 {
			return MigrationPlan{}, fmt.Errorf(messages.MigrateChoiceSourceFmt, choice.Type, choice.Name, choice.Source)
		}
		chosen := conflict.Entries[entryIdx]
		conflict.Resolved = &chosen
		out.Conflicts[idx] = conflict
		out.accept(chosen, "")
	}
	return out, nil
}

package migrate

import (
	"io"
	"log/slog"
	"time"

	"github.com/conn-castle/mycelium/internal/messages"
)

// Planner builds migration plans. It is stateless apart from its logger.
type Planner struct {
	log *slog.Logger
}

// NewPlanner returns a planner. A nil logger discards output.
func NewPlanner(log *slog.Logger) *Planner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{log: log}
}

// GeneratePlan flattens scans into candidates, groups them by identity, and
// resolves each conflict with strategy. Groups are processed in discovery
// order, so identical input always yields an identical plan.
func GeneratePlan(scans []ToolScanResult, strategy Strategy) (MigrationPlan, error) {
	return NewPlanner(nil).GeneratePlan(scans, strategy)
}

// GeneratePlan is the logging variant of the package-level GeneratePlan.
func (p *Planner) GeneratePlan(scans []ToolScanResult, strategy Strategy) (MigrationPlan, error) {
	strategy, err := ParseStrategy(string(strategy))
	if err != nil {
		return MigrationPlan{}, err
	}
	skills, mcps, memory, components := flatten(scans)

	plan := MigrationPlan{
		Memory:     memory,
		Components: dedupeComponents(components),
		Strategy:   strategy,
	}
	for _, group := range groupByName(skills, func(s ScannedSkill) string { return s.Name }) {
		group = onePerTool(p.log, group, ConflictSkill, func(s ScannedSkill) *time.Time { return s.LastUpdated })
		if len(group) == 1 {
			plan.Skills = append(plan.Skills, group[0].item)
			continue
		}
		entries := make([]ConflictEntry, 0, len(group))
		for i := range group {
			skill := group[i].item
			entries = append(entries, ConflictEntry{Source: group[i].tool, LastUpdated: skill.LastUpdated, Skill: &skill})
		}
		conflict := Conflict{Type: ConflictSkill, Name: group[0].item.Name, Entries: entries}
		plan.resolveConflict(&conflict)
		plan.Conflicts = append(plan.Conflicts, conflict)
	}
	for _, group := range groupByName(mcps, func(m ScannedMCP) string { return m.Name }) {
		distinct := distinctConfigs(group)
		distinct = onePerTool(p.log, distinct, ConflictMCP, func(m ScannedMCP) *time.Time { return m.LastUpdated })
		if len(distinct) == 1 {
			plan.MCPs = append(plan.MCPs, distinct[0].item)
			continue
		}
		entries := make([]ConflictEntry, 0, len(distinct))
		for i := range distinct {
			mcp := distinct[i].item
			entries = append(entries, ConflictEntry{Source: distinct[i].tool, LastUpdated: mcp.LastUpdated, MCP: &mcp})
		}
		conflict := Conflict{Type: ConflictMCP, Name: distinct[0].item.Name, Entries: entries}
		plan.resolveConflict(&conflict)
		plan.Conflicts = append(plan.Conflicts, conflict)
	}

	for _, conflict := range plan.Conflicts {
		p.log.Debug(messages.MigrateConflictLog, "type", string(conflict.Type), "name", conflict.Name, "entries", len(conflict.Entries), "resolved", conflict.Resolved != nil)
	}
	p.log.Debug(messages.MigratePlanLog,
		"strategy", string(strategy),
		"skills", len(plan.Skills),
		"mcps", len(plan.MCPs),
		"memory", len(plan.Memory),
		"components", len(plan.Components),
		"conflicts", len(plan.Conflicts),
	)
	return plan, nil
}

// resolveConflict applies the plan strategy to one conflict, accepting the
// chosen entries into the plan.
func (plan *MigrationPlan) resolveConflict(conflict *Conflict) {
	switch plan.Strategy {
	case StrategyLatest:
		winner := latestEntry(conflict.Entries)
		conflict.Resolved = &winner
		plan.accept(winner, "")
	case StrategyAll:
		for _, entry := range conflict.Entries {
			plan.accept(entry, conflict.Name+"@"+entry.Source)
		}
	case StrategyInteractive:
		// Nothing is accepted until the caller picks an entry.
	}
}

// accept appends the entry's candidate, renamed when rename is set.
func (plan *MigrationPlan) accept(entry ConflictEntry, rename string) {
	switch {
	case entry.Skill != nil:
		skill := *entry.Skill
		if rename != "" {
			skill.Name = rename
		}
		plan.Skills = append(plan.Skills, skill)
	case entry.MCP != nil:
		mcp := *entry.MCP
		if rename != "" {
			mcp.Name = rename
		}
		plan.MCPs = append(plan.MCPs, mcp)
	}
}

// latestEntry returns the entry with the newest timestamp. Entries without a
// timestamp never beat one with a timestamp; ties keep the earliest entry.
func latestEntry(entries []ConflictEntry) ConflictEntry {
	best := entries[0]
	for _, entry := range entries[1:] {
		if entry.LastUpdated == nil {
			continue
		}
		if best.LastUpdated == nil || entry.LastUpdated.After(*best.LastUpdated) {
			best = entry
		}
	}
	return best
}

// candidate pairs a scanned entry with the id of the tool whose scan produced
// it, or the entry's own source when the scan has no tool id. Conflicts are
// keyed on this tag even when the scanner set its own source.
type candidate[T any] struct {
	item T
	tool string
}

// flatten tags every candidate with its source tool. Hooks become components.
func flatten(scans []ToolScanResult) ([]candidate[ScannedSkill], []candidate[ScannedMCP], []ScannedMemory, []ScannedComponent) {
	var (
		skills     []candidate[ScannedSkill]
		mcps       []candidate[ScannedMCP]
		memory     []ScannedMemory
		components []ScannedComponent
	)
	for _, scan := range scans {
		for _, skill := range scan.Skills {
			skill.Source = sourceOr(skill.Source, scan.ToolID)
			skills = append(skills, candidate[ScannedSkill]{item: skill, tool: sourceOr(scan.ToolID, skill.Source)})
		}
		for _, mcp := range scan.MCPs {
			mcp.Source = sourceOr(mcp.Source, scan.ToolID)
			mcps = append(mcps, candidate[ScannedMCP]{item: mcp, tool: sourceOr(scan.ToolID, mcp.Source)})
		}
		for _, mem := range scan.Memory {
			mem.Source = sourceOr(mem.Source, scan.ToolID)
			memory = append(memory, mem)
		}
		for _, hook := range scan.Hooks {
			components = append(components, ScannedComponent{
				Name:   hook.Name,
				Type:   ComponentHook,
				Path:   hook.Path,
				Source: sourceOr(hook.Source, scan.ToolID),
			})
		}
		for _, component := range scan.Components {
			component.Source = sourceOr(component.Source, scan.ToolID)
			components = append(components, component)
		}
	}
	return skills, mcps, memory, components
}

func sourceOr(source string, tool string) string {
	if source == "" {
		return tool
	}
	return source
}

// groupByName groups candidates by case-sensitive name, preserving first-seen order.
func groupByName[T any](candidates []candidate[T], name func(T) string) [][]candidate[T] {
	index := map[string]int{}
	var groups [][]candidate[T]
	for _, c := range candidates {
		key := name(c.item)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}

// onePerTool keeps a single candidate per tool, so conflicts only ever span
// different tools. Within a tool the newest entry wins; ties keep the first.
func onePerTool[T any](log *slog.Logger, group []candidate[T], kind ConflictType, updated func(T) *time.Time) []candidate[T] {
	index := map[string]int{}
	var out []candidate[T]
	for _, c := range group {
		i, ok := index[c.tool]
		if !ok {
			index[c.tool] = len(out)
			out = append(out, c)
			continue
		}
		log.Debug(messages.MigrateDuplicateLog, "type", string(kind), "tool", c.tool)
		kept, next := updated(out[i].item), updated(c.item)
		if next != nil && (kept == nil || next.After(*kept)) {
			out[i] = c
		}
	}
	return out
}

// distinctConfigs keeps the first entry for each distinct command and args.
func distinctConfigs(group []candidate[ScannedMCP]) []candidate[ScannedMCP] {
	var out []candidate[ScannedMCP]
	for _, mcp := range group {
		duplicate := false
		for _, kept := range out {
			if kept.item.Config.Same(mcp.item.Config) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, mcp)
		}
	}
	return out
}

// dedupeComponents keeps the first component for each (type, name).
func dedupeComponents(components []ScannedComponent) []ScannedComponent {
	type key struct {
		kind ComponentType
		name string
	}
	seen := map[key]struct{}{}
	var out []ScannedComponent
	for _, component := range components {
		k := key{kind: component.Type, name: component.Name}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, component)
	}
	return out
}

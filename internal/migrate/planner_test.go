package migrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) *time.Time {
	t := time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC)
	return &t
}

func skillScans() []ToolScanResult {
	return []ToolScanResult{
		{ToolID: "claude", Skills: []ScannedSkill{{Name: "tdd", Path: "/claude/skills/tdd", LastUpdated: at(1)}}},
		{ToolID: "codex", Skills: []ScannedSkill{
			{Name: "tdd", Path: "/codex/skills/tdd", LastUpdated: at(5)},
			{Name: "debug", Path: "/codex/skills/debug"},
		}},
	}
}

func skillNames(plan MigrationPlan) []string {
	names := make([]string, 0, len(plan.Skills))
	for _, skill := range plan.Skills {
		names = append(names, skill.Name)
	}
	return names
}

func TestGeneratePlanLatestPicksNewest(t *testing.T) {
	plan, err := GeneratePlan(skillScans(), StrategyLatest)
	require.NoError(t, err)

	var tdd []ScannedSkill
	for _, skill := range plan.Skills {
		if skill.Name == "tdd" {
			tdd = append(tdd, skill)
		}
	}
	require.Len(t, tdd, 1)
	assert.Equal(t, "codex", tdd[0].Source)

	require.Len(t, plan.Conflicts, 1)
	require.NotNil(t, plan.Conflicts[0].Resolved)
	assert.Equal(t, "codex", plan.Conflicts[0].Resolved.Source)
	assert.Empty(t, plan.Unresolved())
}

func TestGeneratePlanAllRenamesEverySource(t *testing.T) {
	plan, err := GeneratePlan(skillScans(), StrategyAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tdd@claude", "tdd@codex", "debug"}, skillNames(plan))
	require.Len(t, plan.Conflicts, 1)
	assert.Nil(t, plan.Conflicts[0].Resolved)
	assert.Empty(t, plan.Unresolved())
}

func TestGeneratePlanSameToolDuplicatesDoNotConflict(t *testing.T) {
	scans := []ToolScanResult{{ToolID: "claude", Skills: []ScannedSkill{
		{Name: "tdd", Path: "/a/tdd", LastUpdated: at(1)},
		{Name: "tdd", Path: "/b/tdd", LastUpdated: at(3)},
	}}}

	for _, strategy := range []Strategy{StrategyLatest, StrategyAll, StrategyInteractive} {
		t.Run(string(strategy), func(t *testing.T) {
			plan, err := GeneratePlan(scans, strategy)
			require.NoError(t, err)
			assert.Empty(t, plan.Conflicts)
			require.Len(t, plan.Skills, 1)
			assert.Equal(t, "tdd", plan.Skills[0].Name)
			assert.Equal(t, "/b/tdd", plan.Skills[0].Path)
		})
	}
}

func TestGeneratePlanAllNamesNeverCollide(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", Skills: []ScannedSkill{{Name: "tdd", Path: "/a/tdd"}, {Name: "tdd", Path: "/b/tdd"}}},
		{ToolID: "codex", Skills: []ScannedSkill{{Name: "tdd", Path: "/c/tdd"}}},
	}
	plan, err := GeneratePlan(scans, StrategyAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tdd@claude", "tdd@codex"}, skillNames(plan))
}

func TestGeneratePlanConflictsKeyOnToolID(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", Skills: []ScannedSkill{{Name: "tdd", Path: "/claude/tdd", Source: "superpowers@official", LastUpdated: at(4)}}},
		{ToolID: "codex", Skills: []ScannedSkill{{Name: "tdd", Path: "/codex/tdd", LastUpdated: at(2)}}},
	}

	plan, err := GeneratePlan(scans, StrategyAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tdd@claude", "tdd@codex"}, skillNames(plan))

	plan, err = GeneratePlan(scans, StrategyLatest)
	require.NoError(t, err)
	require.Len(t, plan.Conflicts, 1)
	assert.Equal(t, "claude", plan.Conflicts[0].Resolved.Source)
	require.Len(t, plan.Skills, 1)
	assert.Equal(t, "superpowers@official", plan.Skills[0].Source)
}

func TestGeneratePlanInteractiveAcceptsNothing(t *testing.T) {
	plan, err := GeneratePlan(skillScans(), StrategyInteractive)
	require.NoError(t, err)
	assert.Equal(t, []string{"debug"}, skillNames(plan))
	require.Len(t, plan.Unresolved(), 1)
	assert.Equal(t, "tdd", plan.Unresolved()[0].Name)
	assert.Len(t, plan.Conflicts[0].Entries, 2)
}

func TestLatestEntry(t *testing.T) {
	tests := []struct {
		name    string
		entries []ConflictEntry
		want    string
	}{
		{name: "no timestamps keeps first", entries: []ConflictEntry{{Source: "a"}, {Source: "b"}}, want: "a"},
		{name: "tie keeps first", entries: []ConflictEntry{{Source: "a", LastUpdated: at(2)}, {Source: "b", LastUpdated: at(2)}}, want: "a"},
		{name: "timestamp beats none", entries: []ConflictEntry{{Source: "a"}, {Source: "b", LastUpdated: at(1)}}, want: "b"},
		{name: "newest wins", entries: []ConflictEntry{{Source: "a", LastUpdated: at(3)}, {Source: "b", LastUpdated: at(1)}, {Source: "c", LastUpdated: at(4)}}, want: "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, latestEntry(tt.entries).Source)
		})
	}
}

func TestGeneratePlanDeduplicatesIdenticalMCPs(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", MCPs: []ScannedMCP{{Name: "github", Config: MCPConfig{Command: "gh-mcp", Args: []string{"--stdio"}}}}},
		{ToolID: "gemini", MCPs: []ScannedMCP{{Name: "github", Config: MCPConfig{Command: "gh-mcp", Args: []string{"--stdio"}, Env: map[string]string{"A": "1"}}}}},
	}
	plan, err := GeneratePlan(scans, StrategyInteractive)
	require.NoError(t, err)
	require.Len(t, plan.MCPs, 1)
	assert.Equal(t, "claude", plan.MCPs[0].Source)
	assert.Empty(t, plan.Conflicts)
}

func TestGeneratePlanDifferentMCPsConflict(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", MCPs: []ScannedMCP{{Name: "github", Config: MCPConfig{Command: "gh-mcp"}}}},
		{ToolID: "codex", MCPs: []ScannedMCP{{Name: "github", Config: MCPConfig{Command: "npx", Args: []string{"github-mcp"}}}}},
		{ToolID: "gemini", MCPs: []ScannedMCP{{Name: "github", Config: MCPConfig{Command: "gh-mcp"}}}},
	}
	plan, err := GeneratePlan(scans, StrategyInteractive)
	require.NoError(t, err)
	assert.Empty(t, plan.MCPs)
	require.Len(t, plan.Conflicts, 1)
	conflict := plan.Conflicts[0]
	assert.Equal(t, ConflictMCP, conflict.Type)
	require.Len(t, conflict.Entries, 2)
	assert.Equal(t, "claude", conflict.Entries[0].Source)
	assert.Equal(t, "codex", conflict.Entries[1].Source)
}

func TestGeneratePlanComponentsKeyedByTypeAndName(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", Components: []ScannedComponent{
			{Name: "brainstorm", Type: ComponentAgent, Path: "/a/brainstorm.md"},
			{Name: "brainstorm", Type: ComponentCommand, Path: "/c/brainstorm.md"},
		}},
		{ToolID: "codex",
			Components: []ScannedComponent{{Name: "brainstorm", Type: ComponentAgent, Path: "/b/brainstorm.md"}},
			Hooks:      []ScannedHook{{Name: "pre-commit", Path: "/h/pre-commit.sh"}},
		},
	}
	plan, err := GeneratePlan(scans, StrategyLatest)
	require.NoError(t, err)
	require.Len(t, plan.Components, 3)
	assert.Equal(t, "/a/brainstorm.md", plan.Components[0].Path)
	assert.Equal(t, ComponentCommand, plan.Components[1].Type)
	assert.Equal(t, ComponentHook, plan.Components[2].Type)
	assert.Equal(t, "codex", plan.Components[2].Source)
}

func TestGeneratePlanConcatenatesMemory(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", Memory: []ScannedMemory{{Path: "/c/CLAUDE.md"}}},
		{ToolID: "gemini", Memory: []ScannedMemory{{Path: "/g/GEMINI.md"}, {Path: "/c/CLAUDE.md"}}},
	}
	plan, err := GeneratePlan(scans, StrategyLatest)
	require.NoError(t, err)
	require.Len(t, plan.Memory, 3)
	assert.Equal(t, "gemini", plan.Memory[2].Source)
}

func TestGeneratePlanIsDeterministic(t *testing.T) {
	first, err := GeneratePlan(skillScans(), StrategyLatest)
	require.NoError(t, err)
	second, err := GeneratePlan(skillScans(), StrategyLatest)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGeneratePlanRejectsUnknownStrategy(t *testing.T) {
	_, err := GeneratePlan(nil, Strategy("newest"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration strategy")
}

func TestGeneratePlanKeepsCaseSensitiveNames(t *testing.T) {
	scans := []ToolScanResult{
		{ToolID: "claude", Skills: []ScannedSkill{{Name: "TDD"}}},
		{ToolID: "codex", Skills: []ScannedSkill{{Name: "tdd"}}},
	}
	plan, err := GeneratePlan(scans, StrategyInteractive)
	require.NoError(t, err)
	assert.Equal(t, []string{"TDD", "tdd"}, skillNames(plan))
	assert.Empty(t, plan.Conflicts)
}

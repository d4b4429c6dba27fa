package prompt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/migrate"
)

// scriptedUI answers Select prompts from a queue and records what it was shown.
type scriptedUI struct {
	answers []string
	titles  []string
	options [][]Option
	err     error
}

func (s *scriptedUI) Select(title string, options []Option, value *string) error {
	s.titles = append(s.titles, title)
	s.options = append(s.options, options)
	if s.err != nil {
		return s.err
	}
	if len(s.answers) > 0 {
		*value = s.answers[0]
		s.answers = s.answers[1:]
	}
	return nil
}

func (s *scriptedUI) Confirm(string, *bool) error {
	return s.err
}

func interactivePlan(t *testing.T) migrate.MigrationPlan {
	t.Helper()
	older := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	scans := []migrate.ToolScanResult{
		{
			ToolID: "claude",
			Skills: []migrate.ScannedSkill{{Name: "tdd", Path: "/claude/tdd", LastUpdated: &older}},
			MCPs:   []migrate.ScannedMCP{{Name: "github", Config: migrate.MCPConfig{Command: "gh-mcp", Args: []string{"--stdio"}}}},
		},
		{
			ToolID: "codex",
			Skills: []migrate.ScannedSkill{{Name: "tdd", Path: "/codex/tdd", LastUpdated: &newer}},
			MCPs:   []migrate.ScannedMCP{{Name: "github", Config: migrate.MCPConfig{Command: "github-mcp"}}},
		},
	}
	plan, err := migrate.GeneratePlan(scans, migrate.StrategyInteractive)
	require.NoError(t, err)
	return plan
}

func TestResolveConflictsReturnsChoicesInOrder(t *testing.T) {
	plan := interactivePlan(t)
	require.Len(t, plan.Unresolved(), 2)

	ui := &scriptedUI{answers: []string{"codex", "claude"}}
	choices, err := ResolveConflicts(ui, plan, nil)
	require.NoError(t, err)
	assert.Equal(t, []migrate.Choice{
		{Type: migrate.ConflictSkill, Name: "tdd", Source: "codex"},
		{Type: migrate.ConflictMCP, Name: "github", Source: "claude"},
	}, choices)

	require.Len(t, ui.titles, 2)
	assert.Equal(t, `skill "tdd" exists in 2 tools (1 of 2)`, ui.titles[0])
	assert.Equal(t, "claude (updated 2026-01-01 09:00)", ui.options[0][0].Label)
	assert.Equal(t, "claude: gh-mcp --stdio", ui.options[1][0].Label)
	assert.Equal(t, "codex: github-mcp", ui.options[1][1].Label)

	resolved, err := migrate.Resolve(plan, choices)
	require.NoError(t, err)
	assert.Empty(t, resolved.Unresolved())
}

func TestResolveConflictsSkip(t *testing.T) {
	plan := interactivePlan(t)
	ui := &scriptedUI{answers: []string{skipValue, "codex"}}

	choices, err := ResolveConflicts(ui, plan, nil)
	require.NoError(t, err)
	require.Len(t, choices, 1)
	assert.Equal(t, "github", choices[0].Name)
}

func TestResolveConflictsDefaultsToFirstEntry(t *testing.T) {
	plan := interactivePlan(t)
	choices, err := ResolveConflicts(&scriptedUI{}, plan, nil)
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "claude", choices[0].Source)
}

func TestResolveConflictsPropagatesCancel(t *testing.T) {
	plan := interactivePlan(t)
	_, err := ResolveConflicts(&scriptedUI{err: ErrCancelled}, plan, nil)
	assert.True(t, errors.Is(err, ErrCancelled))
}

// Package migrate turns scan results from several tools into a migration plan,
// resolves naming conflicts, and applies or rolls back that plan.
package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/conn-castle/mycelium/internal/messages"
)

// Strategy decides how conflicting entries are resolved.
type Strategy string

// Conflict resolution strategies.
const (
	StrategyLatest      Strategy = "latest"
	StrategyAll         Strategy = "all"
	StrategyInteractive Strategy = "interactive"
)

// ParseStrategy validates a strategy name. An empty name selects latest.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case "", StrategyLatest:
		return StrategyLatest, nil
	case StrategyAll:
		return StrategyAll, nil
	case StrategyInteractive:
		return StrategyInteractive, nil
	default:
		return "", fmt.Errorf(messages.MigrateStrategyInvalidFmt, value)
	}
}

// ComponentType classifies a scanned plugin component.
type ComponentType string

// Component types.
const (
	ComponentAgent   ComponentType = "agent"
	ComponentCommand ComponentType = "command"
	ComponentHook    ComponentType = "hook"
	ComponentLib     ComponentType = "lib"
)

// ToolScanResult is what an external per-tool scanner reports for one tool.
type ToolScanResult struct {
	ToolID     string             `json:"toolId"`
	ToolName   string             `json:"toolName"`
	Installed  bool               `json:"installed"`
	Skills     []ScannedSkill     `json:"skills"`
	MCPs       []ScannedMCP       `json:"mcps"`
	Memory     []ScannedMemory    `json:"memory"`
	Hooks      []ScannedHook      `json:"hooks"`
	Components []ScannedComponent `json:"components"`
}

// ScannedSkill is a skill directory found by a scanner.
type ScannedSkill struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Source      string     `json:"source,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	PluginName  string     `json:"pluginName,omitempty"`
	Marketplace string     `json:"marketplace,omitempty"`
}

// MCPConfig is the launch configuration of a scanned MCP server.
type MCPConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Same reports whether two configs launch the same process. Env is ignored.
func (c MCPConfig) Same(other MCPConfig) bool {
	return strings.TrimSpace(c.Command) == strings.TrimSpace(other.Command) && slices.Equal(c.Args, other.Args)
}

// ScannedMCP is an MCP server definition found by a scanner.
type ScannedMCP struct {
	Name        string     `json:"name"`
	Config      MCPConfig  `json:"config"`
	Source      string     `json:"source,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// ScannedMemory is a memory file (instructions, rules) found by a scanner.
type ScannedMemory struct {
	Name   string `json:"name,omitempty"`
	Path   string `json:"path"`
	Scope  string `json:"scope,omitempty"`
	Source string `json:"source,omitempty"`
}

// ScannedHook is a hook definition found by a scanner.
type ScannedHook struct {
	Name   string `json:"name"`
	Event  string `json:"event,omitempty"`
	Path   string `json:"path,omitempty"`
	Source string `json:"source,omitempty"`
}

// ScannedComponent is an agent, command, hook, or lib extracted from a plugin.
type ScannedComponent struct {
	Name       string        `json:"name"`
	Type       ComponentType `json:"type"`
	Path       string        `json:"path"`
	Source     string        `json:"source,omitempty"`
	PluginName string        `json:"pluginName,omitempty"`
}

// ConflictType names the identity space a conflict lives in.
type ConflictType string

// Conflict types.
const (
	ConflictSkill ConflictType = "skill"
	ConflictMCP   ConflictType = "mcp"
)

// ConflictEntry is one candidate in a conflict. Exactly one of Skill and MCP is set.
type ConflictEntry struct {
	Source      string        `json:"source"`
	LastUpdated *time.Time    `json:"lastUpdated,omitempty"`
	Skill       *ScannedSkill `json:"skill,omitempty"`
	MCP         *ScannedMCP   `json:"mcp,omitempty"`
}

// Conflict groups two or more same-named candidates from different tools.
type Conflict struct {
	Type     ConflictType    `json:"type"`
	Name     string          `json:"name"`
	Entries  []ConflictEntry `json:"entries"`
	Resolved *ConflictEntry  `json:"resolved,omitempty"`
}

// MigrationPlan is the output of GeneratePlan. It is never modified in place.
type MigrationPlan struct {
	Skills     []ScannedSkill     `json:"skills"`
	MCPs       []ScannedMCP       `json:"mcps"`
	Memory     []ScannedMemory    `json:"memory"`
	Components []ScannedComponent `json:"components"`
	Conflicts  []Conflict         `json:"conflicts"`
	Strategy   Strategy           `json:"strategy"`
}

// Unresolved returns the conflicts that have no resolved entry and whose
// entries were not all accepted.
func (p MigrationPlan) Unresolved() []Conflict {
	if p.Strategy == StrategyAll {
		return nil
	}
	var out []Conflict
	for _, conflict := range p.Conflicts {
		if conflict.Resolved == nil {
			out = append(out, conflict)
		}
	}
	return out
}

// LoadScanResults reads scan results written as JSON, one file per tool or a
// JSON array of results per file.
func LoadScanResults(paths ...string) ([]ToolScanResult, error) {
	var results []ToolScanResult
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf(messages.MigrateReadScanFmt, path, err)
		}
		var batch []ToolScanResult
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			err = json.Unmarshal(data, &batch)
		} else {
			var single ToolScanResult
			err = json.Unmarshal(data, &single)
			batch = []ToolScanResult{single}
		}
		if err != nil {
			return nil, fmt.Errorf(messages.MigrateParseScanFmt, path, err)
		}
		for _, result := range batch {
			if strings.TrimSpace(result.ToolID) == "" {
				return nil, fmt.Errorf(messages.MigrateScanMissingToolFmt, path)
			}
		}
		results = append(results, batch...)
	}
	return results, nil
}

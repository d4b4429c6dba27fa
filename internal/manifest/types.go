// Package manifest owns the per-scope manifest document: the persisted record
// of every item Mycelium manages, its lifecycle state, per-tool scoping, and
// provenance.
package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/conn-castle/mycelium/internal/messages"
)

// CurrentVersion is written to new manifests.
const CurrentVersion = "1"

// Kind identifies the section an item lives in.
type Kind string

// Item kinds.
const (
	KindSkill   Kind = "skill"
	KindMCP     Kind = "mcp"
	KindHook    Kind = "hook"
	KindAgent   Kind = "agent"
	KindCommand Kind = "command"
)

// Kinds lists every kind in section order.
var Kinds = []Kind{KindSkill, KindMCP, KindHook, KindAgent, KindCommand}

// Section returns the manifest key that stores items of this kind.
func (k Kind) Section() string {
	switch k {
	case KindSkill:
		return "skills"
	case KindMCP:
		return "mcps"
	case KindHook:
		return "hooks"
	case KindAgent:
		return "agents"
	case KindCommand:
		return "commands"
	default:
		return string(k)
	}
}

// ParseKind accepts a kind or its section name ("skill" or "skills").
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, kind := range Kinds {
		if normalized == string(kind) || normalized == kind.Section() {
			return kind, nil
		}
	}
	return "", fmt.Errorf(messages.ItemInvalidTypeFmt, ErrInvalidType, value)
}

// State is an item's lifecycle flag. The zero value means enabled.
type State string

// Item states.
const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
	StateDeleted  State = "deleted"
)

// Valid reports whether s is empty or one of the known states.
func (s State) Valid() bool {
	switch s {
	case "", StateEnabled, StateDisabled, StateDeleted:
		return true
	default:
		return false
	}
}

// Known tool ids.
const (
	ToolClaude   = "claude"
	ToolCodex    = "codex"
	ToolGemini   = "gemini"
	ToolOpenCode = "opencode"
	ToolOpenClaw = "openclaw"
	ToolAider    = "aider"
)

// KnownTools lists the tool ids Mycelium can target.
var KnownTools = []string{ToolClaude, ToolCodex, ToolGemini, ToolOpenCode, ToolOpenClaw, ToolAider}

// ValidateTool returns ErrInvalidTool when tool is not a known tool id.
func ValidateTool(tool string) error {
	if slices.Contains(KnownTools, tool) {
		return nil
	}
	return fmt.Errorf(messages.ItemInvalidToolFmt, ErrInvalidTool, tool, strings.Join(KnownTools, ", "))
}

// PluginOrigin links an item back to the third-party plugin it was extracted from.
type PluginOrigin struct {
	PluginID  string `yaml:"pluginId"`
	CachePath string `yaml:"cachePath"`
}

// Item is one manifest entry. Fields the engine does not model are kept in
// Extra so a load/save round trip never drops them.
type Item struct {
	Command      string            `yaml:"command,omitempty"`
	Args         []string          `yaml:"args,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	State        State             `yaml:"state,omitempty"`
	Source       string            `yaml:"source,omitempty"`
	Tools        []string          `yaml:"tools,omitempty"`
	EnabledTools []string          `yaml:"enabledTools,omitempty"`
	ExcludeTools []string          `yaml:"excludeTools,omitempty"`
	PluginOrigin *PluginOrigin     `yaml:"pluginOrigin,omitempty"`
	Extra        map[string]any    `yaml:",inline"`
}

// EffectiveState returns the item's state, treating an absent state as enabled.
func (it *Item) EffectiveState() State {
	if it == nil || it.State == "" {
		return StateEnabled
	}
	return it.State
}

// allowList returns the union of tools and enabledTools.
func (it *Item) allowList() []string {
	if len(it.EnabledTools) == 0 {
		return it.Tools
	}
	if len(it.Tools) == 0 {
		return it.EnabledTools
	}
	out := append([]string(nil), it.Tools...)
	for _, tool := range it.EnabledTools {
		if !slices.Contains(out, tool) {
			out = append(out, tool)
		}
	}
	return out
}

// AllowsTool reports whether tool passes the item's tool lists, ignoring state.
func (it *Item) AllowsTool(tool string) bool {
	if allow := it.allowList(); len(allow) > 0 && !slices.Contains(allow, tool) {
		return false
	}
	return !slices.Contains(it.ExcludeTools, tool)
}

// VisibleTo reports whether tool should see the item: it must be enabled,
// listed (or no list is set), and not excluded.
func (it *Item) VisibleTo(tool string) bool {
	if it == nil {
		return false
	}
	return it.EffectiveState() == StateEnabled && it.AllowsTool(tool)
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	out.Args = slices.Clone(it.Args)
	out.Tools = slices.Clone(it.Tools)
	out.EnabledTools = slices.Clone(it.EnabledTools)
	out.ExcludeTools = slices.Clone(it.ExcludeTools)
	if it.Env != nil {
		out.Env = make(map[string]string, len(it.Env))
		for k, v := range it.Env {
			out.Env[k] = v
		}
	}
	if it.PluginOrigin != nil {
		origin := *it.PluginOrigin
		out.PluginOrigin = &origin
	}
	if it.Extra != nil {
		out.Extra = make(map[string]any, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// TakenOverPlugin records a plugin whose components Mycelium manages individually.
type TakenOverPlugin struct {
	CachePath     string   `yaml:"cachePath"`
	AllComponents []string `yaml:"allComponents"`
}

// ItemRef names one item in the registry.
type ItemRef struct {
	Kind Kind   `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

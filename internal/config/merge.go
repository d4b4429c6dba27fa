package config

import (
	"log/slog"
	"maps"
	"slices"
	"sort"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/warnings"
)

// MCPServer is the effective definition of one MCP server after merging.
type MCPServer struct {
	Command      string            `json:"command,omitempty"`
	Args         []string          `json:"args,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	State        manifest.State    `json:"state,omitempty"`
	Source       string            `json:"source,omitempty"`
	Tools        []string          `json:"tools,omitempty"`
	ExcludeTools []string          `json:"excludeTools,omitempty"`
}

// VisibleTo applies the manifest visibility rule to the merged server.
func (s MCPServer) VisibleTo(tool string) bool {
	item := manifest.Item{State: s.State, Tools: s.Tools, ExcludeTools: s.ExcludeTools}
	return item.VisibleTo(tool)
}

// MergedConfig is the effective configuration across all layers.
// Sources records, per MCP key, the last layer that supplied it.
type MergedConfig struct {
	MCPs     map[string]MCPServer `json:"mcps"`
	Skills   map[string]FileItem  `json:"skills"`
	Agents   map[string]FileItem  `json:"agents"`
	Rules    map[string]FileItem  `json:"rules"`
	Commands map[string]FileItem  `json:"commands"`
	Sources  map[string]LayerName `json:"sources"`
	Warnings []warnings.Warning   `json:"-"`
}

// MCPNames returns the merged MCP server names in sorted order.
func (m MergedConfig) MCPNames() []string {
	names := slices.Collect(maps.Keys(m.MCPs))
	sort.Strings(names)
	return names
}

// Merge combines layers in the fixed order global, machine, project. Any layer
// may be absent. MCP servers merge field by field; file-backed items are
// replaced whole by the higher layer. Merge never fails.
func Merge(layers ...Layer) MergedConfig {
	merged := MergedConfig{
		MCPs:     map[string]MCPServer{},
		Skills:   map[string]FileItem{},
		Agents:   map[string]FileItem{},
		Rules:    map[string]FileItem{},
		Commands: map[string]FileItem{},
		Sources:  map[string]LayerName{},
	}
	for _, layer := range sortLayers(layers) {
		for name, fragment := range layer.MCPs {
			server := merged.MCPs[name]
			fragment.applyTo(&server)
			merged.MCPs[name] = server
			merged.Sources[name] = layer.Name
		}
		maps.Copy(merged.Skills, layer.Skills)
		maps.Copy(merged.Agents, layer.Agents)
		maps.Copy(merged.Rules, layer.Rules)
		maps.Copy(merged.Commands, layer.Commands)
		merged.Warnings = append(merged.Warnings, layer.Warnings...)
	}
	return merged
}

// LoadMerged loads every layer named by paths and merges them.
func LoadMerged(paths Paths, log *slog.Logger) MergedConfig {
	return Merge(NewLayerLoader(log).LoadAll(paths)...)
}

// applyTo overwrites each field of server that the fragment defines.
func (f MCPFragment) applyTo(server *MCPServer) {
	if f.Command != nil {
		server.Command = *f.Command
	}
	if f.Args != nil {
		server.Args = slices.Clone(*f.Args)
	}
	if f.Env != nil {
		server.Env = maps.Clone(f.Env)
	}
	if f.State != nil {
		server.State = *f.State
	}
	if f.Source != nil {
		server.Source = *f.Source
	}
	if f.Tools != nil {
		server.Tools = slices.Clone(*f.Tools)
	}
	if f.ExcludeTools != nil {
		server.ExcludeTools = slices.Clone(*f.ExcludeTools)
	}
}

// ForTool returns the merged MCP servers visible to tool.
func ForTool(merged MergedConfig, tool string) map[string]MCPServer {
	out := make(map[string]MCPServer, len(merged.MCPs))
	for name, server := range merged.MCPs {
		if server.VisibleTo(tool) {
			out[name] = server
		}
	}
	return out
}

// ToolView is the effective configuration one tool sees.
type ToolView struct {
	Tool     string               `json:"tool"`
	MCPs     map[string]MCPServer `json:"mcps"`
	Skills   map[string]FileItem  `json:"skills"`
	Agents   map[string]FileItem  `json:"agents"`
	Rules    map[string]FileItem  `json:"rules"`
	Commands map[string]FileItem  `json:"commands"`
}

// View filters merged by the manifest state of each item. docs are ordered from
// lowest to highest priority (global, then project); a nil doc is skipped.
// Items without a manifest entry stay visible.
func View(merged MergedConfig, docs []*manifest.Document, tool string) ToolView {
	visible := func(kind manifest.Kind, name string) bool {
		var item *manifest.Item
		for _, doc := range docs {
			if doc == nil {
				continue
			}
			if found, ok := doc.Get(kind, name); ok {
				item = found
			}
		}
		return item == nil || item.VisibleTo(tool)
	}
	filter := func(kind manifest.Kind, items map[string]FileItem) map[string]FileItem {
		out := make(map[string]FileItem, len(items))
		for name, item := range items {
			if visible(kind, name) {
				out[name] = item
			}
		}
		return out
	}

	view := ToolView{
		Tool:     tool,
		MCPs:     map[string]MCPServer{},
		Skills:   filter(manifest.KindSkill, merged.Skills),
		Agents:   filter(manifest.KindAgent, merged.Agents),
		Rules:    maps.Clone(merged.Rules),
		Commands: filter(manifest.KindCommand, merged.Commands),
	}
	for name, server := range ForTool(merged, tool) {
		if visible(manifest.KindMCP, name) {
			view.MCPs[name] = server
		}
	}
	return view
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/warnings"
)

// LayerName identifies a configuration layer.
type LayerName string

// Layers in ascending priority.
const (
	LayerGlobal  LayerName = "global"
	LayerMachine LayerName = "machine"
	LayerProject LayerName = "project"
)

func (n LayerName) rank() int {
	switch n {
	case LayerGlobal:
		return 0
	case LayerMachine:
		return 1
	case LayerProject:
		return 2
	default:
		return 3
	}
}

// Fragment and item directory names inside a layer directory.
const (
	MCPsYAMLFile = "mcps.yaml"
	MCPsJSONFile = "mcps.json"
	SkillsDir    = "skills"
	AgentsDir    = "agents"
	RulesDir     = "rules"
	CommandsDir  = "commands"
)

// LayerDir pairs a layer with the directory it is read from.
type LayerDir struct {
	Name LayerName
	Dir  string
}

// MCPFragment is one layer's definition of an MCP server. Nil fields are
// absent and inherit from lower layers.
type MCPFragment struct {
	Command      *string           `yaml:"command" json:"command"`
	Args         *[]string         `yaml:"args" json:"args"`
	Env          map[string]string `yaml:"env" json:"env"`
	State        *manifest.State   `yaml:"state" json:"state"`
	Source       *string           `yaml:"source" json:"source"`
	Tools        *[]string         `yaml:"tools" json:"tools"`
	ExcludeTools *[]string         `yaml:"excludeTools" json:"excludeTools"`
}

// FileItem is a file-backed item (skill directory, agent, rule, or command file).
type FileItem struct {
	Name  string    `json:"name"`
	Path  string    `json:"path"`
	Layer LayerName `json:"layer"`
}

// Layer is an immutable snapshot of one layer's definitions.
type Layer struct {
	Name     LayerName
	Dir      string
	MCPs     map[string]MCPFragment
	Skills   map[string]FileItem
	Agents   map[string]FileItem
	Rules    map[string]FileItem
	Commands map[string]FileItem
	Warnings []warnings.Warning
}

// LayerLoader reads layer directories. Parse problems never fail a load; they
// are logged and recorded as warnings on the returned layer.
type LayerLoader struct {
	log *slog.Logger
}

// NewLayerLoader returns a loader. A nil logger discards output.
func NewLayerLoader(log *slog.Logger) *LayerLoader {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LayerLoader{log: log}
}

// LoadAll loads every layer named by paths in merge order.
func (l *LayerLoader) LoadAll(paths Paths) []Layer {
	dirs := paths.Layers()
	layers := make([]Layer, 0, len(dirs))
	for _, dir := range dirs {
		layers = append(layers, l.Load(dir))
	}
	return layers
}

// Load reads one layer directory. A missing or unset directory yields an empty layer.
func (l *LayerLoader) Load(dir LayerDir) Layer {
	layer := Layer{
		Name:     dir.Name,
		Dir:      dir.Dir,
		MCPs:     map[string]MCPFragment{},
		Skills:   map[string]FileItem{},
		Agents:   map[string]FileItem{},
		Rules:    map[string]FileItem{},
		Commands: map[string]FileItem{},
	}
	if dir.Dir == "" {
		return layer
	}
	l.loadMCPs(&layer)
	l.loadEntries(&layer, SkillsDir, layer.Skills, true)
	l.loadEntries(&layer, AgentsDir, layer.Agents, false)
	l.loadEntries(&layer, RulesDir, layer.Rules, false)
	l.loadEntries(&layer, CommandsDir, layer.Commands, false)
	return layer
}

func (l *LayerLoader) loadMCPs(layer *Layer) {
	yamlPath := filepath.Join(layer.Dir, MCPsYAMLFile)
	jsonPath := filepath.Join(layer.Dir, MCPsJSONFile)

	yamlData, yamlErr := os.ReadFile(yamlPath)
	jsonData, jsonErr := os.ReadFile(jsonPath)

	switch {
	case yamlErr == nil:
		if jsonErr == nil {
			l.warn(layer, warnings.Warning{
				Code:    warnings.CodeConfigFragmentShadowed,
				Subject: jsonPath,
				Message: fmt.Sprintf(messages.ConfigFragmentShadowedFmt, layer.Name),
				Fix:     messages.ConfigFragmentShadowedFix,
			}, messages.ConfigFragmentLogShadowed, jsonPath, nil)
		}
		fragments, err := parseYAMLFragments(yamlData)
		if err != nil {
			l.invalid(layer, yamlPath, err)
			return
		}
		layer.MCPs = fragments
	case !errors.Is(yamlErr, fs.ErrNotExist):
		l.unreadable(layer, yamlPath, yamlErr)
	case jsonErr == nil:
		fragments, err := parseJSONFragments(jsonData)
		if err != nil {
			l.invalid(layer, jsonPath, err)
			return
		}
		layer.MCPs = fragments
	case !errors.Is(jsonErr, fs.ErrNotExist):
		l.unreadable(layer, jsonPath, jsonErr)
	}
}

func parseYAMLFragments(data []byte) (map[string]MCPFragment, error) {
	fragments := map[string]MCPFragment{}
	if err := yaml.Unmarshal(data, &fragments); err != nil {
		return nil, err
	}
	if fragments == nil {
		fragments = map[string]MCPFragment{}
	}
	return fragments, validateFragments(fragments)
}

func parseJSONFragments(data []byte) (map[string]MCPFragment, error) {
	var wrapper struct {
		MCPs map[string]MCPFragment `json:"mcps"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.MCPs == nil {
		wrapper.MCPs = map[string]MCPFragment{}
	}
	return wrapper.MCPs, validateFragments(wrapper.MCPs)
}

func validateFragments(fragments map[string]MCPFragment) error {
	for name, fragment := range fragments {
		if fragment.State != nil && !fragment.State.Valid() {
			return fmt.Errorf(messages.ConfigFragmentInvalidStateFmt, name, *fragment.State)
		}
	}
	return nil
}

// loadEntries lists one item directory. Skills are directories; the other
// kinds are individually named files whose extension is dropped.
func (l *LayerLoader) loadEntries(layer *Layer, sub string, into map[string]FileItem, dirs bool) {
	dir := filepath.Join(layer.Dir, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.warn(layer, warnings.Warning{
				Code:    warnings.CodeConfigItemDirUnreadable,
				Subject: dir,
				Message: fmt.Sprintf(messages.ConfigItemDirUnreadableFmt, layer.Name, dir, err),
				Fix:     messages.ConfigItemDirUnreadableFix,
			}, messages.ConfigItemDirLogUnreadable, dir, err)
		}
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil {
				isDir = info.IsDir()
			}
		}
		if isDir != dirs {
			continue
		}
		if !dirs {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		into[name] = FileItem{Name: name, Path: path, Layer: layer.Name}
	}
}

func (l *LayerLoader) invalid(layer *Layer, path string, err error) {
	l.warn(layer, warnings.Warning{
		Code:    warnings.CodeConfigFragmentInvalid,
		Subject: path,
		Message: fmt.Sprintf(messages.ConfigFragmentInvalidFmt, layer.Name, path, err),
		Fix:     messages.ConfigFragmentInvalidFix,
	}, messages.ConfigFragmentLogInvalid, path, err)
}

func (l *LayerLoader) unreadable(layer *Layer, path string, err error) {
	l.warn(layer, warnings.Warning{
		Code:    warnings.CodeConfigFragmentUnreadable,
		Subject: path,
		Message: fmt.Sprintf(messages.ConfigFragmentUnreadableFmt, layer.Name, path, err),
		Fix:     messages.ConfigFragmentUnreadableFix,
	}, messages.ConfigFragmentLogUnreadable, path, err)
}

func (l *LayerLoader) warn(layer *Layer, w warnings.Warning, logMsg string, path string, err error) {
	attrs := []any{"layer", string(layer.Name), "file", path}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	l.log.Warn(logMsg, attrs...)
	layer.Warnings = append(layer.Warnings, w)
}

// sortLayers orders layers global, machine, project regardless of input order.
func sortLayers(layers []Layer) []Layer {
	sorted := append([]Layer(nil), layers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name.rank() < sorted[j].Name.rank()
	})
	return sorted
}

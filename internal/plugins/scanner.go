// Package plugins discovers components in a third-party plugin cache, reads
// and writes the tool's native plugin enablement, and performs takeover,
// release, and sync of plugin components.
package plugins

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// ErrPluginNotFound is returned when a plugin id has no directory in the cache.
var ErrPluginNotFound = errors.New(messages.PluginNotFound)

// ComponentType classifies a plugin component.
type ComponentType string

// Component types.
const (
	ComponentSkill   ComponentType = "skill"
	ComponentAgent   ComponentType = "agent"
	ComponentCommand ComponentType = "command"
	ComponentHook    ComponentType = "hook"
	ComponentLib     ComponentType = "lib"
)

// Kind returns the manifest section for components Mycelium manages.
func (t ComponentType) Kind() (manifest.Kind, bool) {
	switch t {
	case ComponentSkill:
		return manifest.KindSkill, true
	case ComponentAgent:
		return manifest.KindAgent, true
	case ComponentCommand:
		return manifest.KindCommand, true
	default:
		return "", false
	}
}

// Component is one item found in a plugin directory. It is recomputed on
// every scan and never persisted.
type Component struct {
	Name        string        `json:"name"`
	Type        ComponentType `json:"type"`
	Path        string        `json:"path"`
	Description string        `json:"description,omitempty"`
	PluginName  string        `json:"pluginName,omitempty"`
	Marketplace string        `json:"marketplace,omitempty"`
}

// Rule describes how one component kind is discovered inside a plugin
// directory. Entries of Dir matching Pattern are components; when Marker is
// set, an entry must be a directory containing Marker.
type Rule struct {
	Dir      string
	Type     ComponentType
	Pattern  string
	Marker   string
	NameFrom func(entry string) string
}

func baseName(entry string) string {
	return entry
}

func stripExt(entry string) string {
	return strings.TrimSuffix(entry, filepath.Ext(entry))
}

// Rules is the component discovery table. Adding a kind is a new row.
var Rules = []Rule{
	{Dir: "skills", Type: ComponentSkill, Pattern: "*", Marker: "SKILL.md", NameFrom: baseName},
	{Dir: "agents", Type: ComponentAgent, Pattern: "*.md", NameFrom: stripExt},
	{Dir: "commands", Type: ComponentCommand, Pattern: "*.md", NameFrom: stripExt},
	{Dir: "hooks", Type: ComponentHook, Pattern: "*", NameFrom: stripExt},
	{Dir: "lib", Type: ComponentLib, Pattern: "*", NameFrom: stripExt},
}

// Plugin is an installed plugin version in the cache.
type Plugin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Marketplace string `json:"marketplace"`
	Version     string `json:"version"`
	Path        string `json:"path"`
}

// PluginID joins a plugin name and marketplace.
func PluginID(name string, marketplace string) string {
	return name + "@" + marketplace
}

// ParsePluginID splits "plugin@marketplace".
func ParsePluginID(id string) (name string, marketplace string, err error) {
	idx := strings.LastIndex(id, "@")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", fmt.Errorf(messages.PluginIDInvalidFmt, id)
	}
	return id[:idx], id[idx+1:], nil
}

// Scanner walks a plugin cache laid out as {cache}/{marketplace}/{plugin}/{version}.
type Scanner struct {
	CacheDir string
	Sys      System
	Log      *slog.Logger
}

// NewScanner returns a scanner over cacheDir. A nil logger discards output.
func NewScanner(cacheDir string, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{CacheDir: cacheDir, Sys: RealSystem{}, Log: log}
}

// Installed lists the newest version of every plugin in the cache, sorted by id.
// A missing cache directory yields no plugins.
func (s *Scanner) Installed() ([]Plugin, error) {
	marketplaces, err := s.Sys.ReadDir(s.CacheDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(messages.PluginReadCacheFmt, s.CacheDir, err)
	}
	var plugins []Plugin
	for _, market := range marketplaces {
		if !s.isDir(filepath.Join(s.CacheDir, market.Name()), market) || hidden(market.Name()) {
			continue
		}
		marketDir := filepath.Join(s.CacheDir, market.Name())
		entries, err := s.Sys.ReadDir(marketDir)
		if err != nil {
			s.Log.Warn(messages.PluginSkipEntryLog, "path", marketDir, "err", err)
			continue
		}
		for _, entry := range entries {
			pluginDir := filepath.Join(marketDir, entry.Name())
			if !s.isDir(pluginDir, entry) || hidden(entry.Name()) {
				continue
			}
			version, ok := s.newestVersion(pluginDir)
			if !ok {
				continue
			}
			name := normalize(entry.Name())
			marketplace := normalize(market.Name())
			plugins = append(plugins, Plugin{
				ID:          PluginID(name, marketplace),
				Name:        name,
				Marketplace: marketplace,
				Version:     version,
				Path:        filepath.Join(pluginDir, version),
			})
		}
	}
	sort.Slice(plugins, func(i, j int) bool { return plugins[i].ID < plugins[j].ID })
	return plugins, nil
}

// Locate returns the newest installed version of pluginID.
func (s *Scanner) Locate(pluginID string) (Plugin, error) {
	if _, _, err := ParsePluginID(pluginID); err != nil {
		return Plugin{}, err
	}
	plugins, err := s.Installed()
	if err != nil {
		return Plugin{}, err
	}
	for _, plugin := range plugins {
		if plugin.ID == pluginID {
			return plugin, nil
		}
	}
	return Plugin{}, fmt.Errorf(messages.PluginNotFoundFmt, ErrPluginNotFound, pluginID, s.CacheDir)
}

// newestVersion picks the highest semantic version among the version
// directories, falling back to the lexically greatest name when none parse.
func (s *Scanner) newestVersion(pluginDir string) (string, bool) {
	entries, err := s.Sys.ReadDir(pluginDir)
	if err != nil {
		s.Log.Warn(messages.PluginSkipEntryLog, "path", pluginDir, "err", err)
		return "", false
	}
	var (
		best        *semver.Version
		bestName    string
		fallback    string
		hasFallback bool
	)
	for _, entry := range entries {
		if !s.isDir(filepath.Join(pluginDir, entry.Name()), entry) || hidden(entry.Name()) {
			continue
		}
		if v, err := semver.NewVersion(entry.Name()); err == nil {
			if best == nil || v.GreaterThan(best) {
				best, bestName = v, entry.Name()
			}
			continue
		}
		if !hasFallback || entry.Name() > fallback {
			fallback, hasFallback = entry.Name(), true
		}
	}
	if best != nil {
		return bestName, true
	}
	return fallback, hasFallback
}

// Scan walks a plugin version directory with the rule table. Components are
// sorted by type then name. A missing directory is an error.
func (s *Scanner) Scan(cachePath string) ([]Component, error) {
	if _, err := s.Sys.Stat(cachePath); err != nil {
		return nil, fmt.Errorf(messages.PluginScanFailedFmt, cachePath, err)
	}
	pluginName, marketplace := s.identify(cachePath)
	var components []Component
	for _, rule := range Rules {
		dir := filepath.Join(cachePath, rule.Dir)
		entries, err := s.Sys.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.Log.Warn(messages.PluginSkipEntryLog, "path", dir, "err", err)
			}
			continue
		}
		for _, entry := range entries {
			component, ok := s.match(rule, dir, entry)
			if !ok {
				continue
			}
			component.PluginName = pluginName
			component.Marketplace = marketplace
			components = append(components, component)
		}
	}
	sort.SliceStable(components, func(i, j int) bool {
		if components[i].Type != components[j].Type {
			return components[i].Type < components[j].Type
		}
		return components[i].Name < components[j].Name
	})
	return components, nil
}

func (s *Scanner) match(rule Rule, dir string, entry fs.DirEntry) (Component, bool) {
	name := entry.Name()
	if hidden(name) {
		return Component{}, false
	}
	if ok, _ := filepath.Match(rule.Pattern, name); !ok {
		return Component{}, false
	}
	path := filepath.Join(dir, name)
	isDir := s.isDir(path, entry)
	component := Component{Name: normalize(rule.NameFrom(name)), Type: rule.Type, Path: path}

	switch {
	case rule.Marker != "":
		if !isDir {
			return Component{}, false
		}
		marker := filepath.Join(path, rule.Marker)
		if _, err := s.Sys.Stat(marker); err != nil {
			return Component{}, false
		}
		component.Description = s.description(marker)
	case isDir:
		return Component{}, false
	case filepath.Ext(name) == ".md":
		component.Description = s.description(path)
	}
	return component, true
}

func (s *Scanner) description(path string) string {
	data, err := s.Sys.ReadFile(path)
	if err != nil {
		return ""
	}
	fm, err := readFrontMatter(data)
	if err != nil {
		if !errors.Is(err, errNoFrontMatter) {
			s.Log.Debug(messages.PluginFrontMatterLog, "path", path, "err", err)
		}
		return ""
	}
	if fm.description == nil {
		return ""
	}
	return *fm.description
}

// identify derives plugin and marketplace names when cachePath sits at the
// expected depth under the cache directory.
func (s *Scanner) identify(cachePath string) (string, string) {
	rel, err := filepath.Rel(s.CacheDir, cachePath)
	if err != nil {
		return "", ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || parts[0] == ".." {
		return "", ""
	}
	return normalize(parts[1]), normalize(parts[0])
}

func (s *Scanner) isDir(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := s.Sys.Stat(path)
		return err == nil && info.IsDir()
	}
	return entry.IsDir()
}

// ComponentNames returns the sorted, de-duplicated names of components.
func ComponentNames(components []Component) []string {
	seen := map[string]struct{}{}
	names := make([]string, 0, len(components))
	for _, component := range components {
		if _, ok := seen[component.Name]; ok {
			continue
		}
		seen[component.Name] = struct{}{}
		names = append(names, component.Name)
	}
	sort.Strings(names)
	return names
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// normalize returns the NFC form of a name read from the filesystem so names
// compare equal across platforms that store decomposed forms.
func normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// ErrConfigValidation is a sentinel that wraps settings validation failures
// (as opposed to TOML syntax or filesystem errors).
var ErrConfigValidation = errors.New("config validation failed")

// Migration strategy names accepted in settings.
var strategyNames = []string{"latest", "all", "interactive"}

// Settings is the user's config.toml.
type Settings struct {
	Plugins   PluginSettings    `toml:"plugins"`
	Migration MigrationSettings `toml:"migration"`
	Tools     ToolSettings      `toml:"tools"`
}

// PluginSettings locates the third-party plugin cache and settings file.
type PluginSettings struct {
	CacheDir     string `toml:"cache_dir"`
	SettingsPath string `toml:"settings_path"`
	LinkRoot     string `toml:"link_root"`
}

// MigrationSettings holds migration defaults.
type MigrationSettings struct {
	Strategy string `toml:"strategy"`
}

// ToolSettings lists the tools Mycelium manages.
type ToolSettings struct {
	Enabled []string `toml:"enabled"`
}

// DefaultSettings returns the settings used when config.toml is absent.
func DefaultSettings() Settings {
	return Settings{
		Plugins: PluginSettings{
			CacheDir:     "~/.claude/plugins/cache",
			SettingsPath: "~/.claude/settings.json",
			LinkRoot:     "~/.claude",
		},
		Migration: MigrationSettings{Strategy: "latest"},
		Tools:     ToolSettings{Enabled: slices.Clone(manifest.KnownTools)},
	}
}

// LoadSettings reads config.toml, falling back to defaults when it does not exist.
// Paths in the result are home-expanded.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			settings := DefaultSettings()
			if err := settings.expand(path); err != nil {
				return nil, err
			}
			return &settings, nil
		}
		return nil, fmt.Errorf(messages.ConfigReadSettingsFmt, path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses and validates settings TOML. Unset keys take defaults.
// source is used in error messages.
func ParseSettings(data []byte, source string) (*Settings, error) {
	var settings Settings
	if err := toml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidSettingsFmt, source, err)
	}
	settings.applyDefaults()
	if err := decodeStrict(data); err != nil {
		return nil, fmt.Errorf("%w: "+messages.ConfigUnrecognizedKeysFmt, ErrConfigValidation, source, err)
	}
	if err := settings.Validate(source); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	if err := settings.expand(source); err != nil {
		return nil, err
	}
	return &settings, nil
}

// decodeStrict re-decodes the TOML data with strict unknown-field rejection.
func decodeStrict(data []byte) error {
	var settings Settings
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&settings)
}

// Validate checks the strategy name and the tool list.
func (s *Settings) Validate(source string) error {
	if !slices.Contains(strategyNames, s.Migration.Strategy) {
		return fmt.Errorf(messages.ConfigStrategyInvalidFmt, source, s.Migration.Strategy)
	}
	for _, tool := range s.Tools.Enabled {
		if !slices.Contains(manifest.KnownTools, tool) {
			return fmt.Errorf(messages.ConfigToolInvalidFmt, source, tool)
		}
	}
	return nil
}

// applyDefaults fills keys the file left unset.
func (s *Settings) applyDefaults() {
	defaults := DefaultSettings()
	if strings.TrimSpace(s.Plugins.CacheDir) == "" {
		s.Plugins.CacheDir = defaults.Plugins.CacheDir
	}
	if strings.TrimSpace(s.Plugins.SettingsPath) == "" {
		s.Plugins.SettingsPath = defaults.Plugins.SettingsPath
	}
	if strings.TrimSpace(s.Plugins.LinkRoot) == "" {
		s.Plugins.LinkRoot = defaults.Plugins.LinkRoot
	}
	if strings.TrimSpace(s.Migration.Strategy) == "" {
		s.Migration.Strategy = defaults.Migration.Strategy
	}
	if s.Tools.Enabled == nil {
		s.Tools.Enabled = defaults.Tools.Enabled
	}
}

func (s *Settings) expand(source string) error {
	fields := []struct {
		key   string
		value *string
	}{
		{"plugins.cache_dir", &s.Plugins.CacheDir},
		{"plugins.settings_path", &s.Plugins.SettingsPath},
		{"plugins.link_root", &s.Plugins.LinkRoot},
	}
	for _, field := range fields {
		expanded, err := homedir.Expand(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf(messages.ConfigExpandPathFmt, source, field.key, *field.value, err)
		}
		*field.value = expanded
	}
	return nil
}

// ToolEnabled reports whether tool is in the managed tool list.
func (s *Settings) ToolEnabled(tool string) bool {
	return slices.Contains(s.Tools.Enabled, tool)
}

package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/conn-castle/mycelium/internal/messages"
)

const enabledPluginsKey = "enabledPlugins"

// Registry reads and writes the enabledPlugins map in the third-party tool's
// settings file. Every other key in the file is preserved byte for byte.
type Registry struct {
	Path string
	Sys  System
}

// NewRegistry returns a registry over the settings file at path.
func NewRegistry(path string) *Registry {
	return &Registry{Path: path, Sys: RealSystem{}}
}

func (r *Registry) read() ([]byte, error) {
	data, err := r.Sys.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf(messages.PluginSettingsReadFmt, r.Path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf(messages.PluginSettingsInvalidFmt, r.Path)
	}
	return data, nil
}

// EnabledPlugins returns the enabledPlugins map. A missing file or key is empty.
func (r *Registry) EnabledPlugins() (map[string]bool, error) {
	data, err := r.read()
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	gjson.GetBytes(data, enabledPluginsKey).ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.Bool()
		return true
	})
	return out, nil
}

// Enabled reports the native flag for pluginID and whether it is present.
func (r *Registry) Enabled(pluginID string) (enabled bool, present bool, err error) {
	data, err := r.read()
	if err != nil {
		return false, false, err
	}
	value := gjson.GetBytes(data, enabledPluginsKey+"."+escapePath(pluginID))
	return value.Bool(), value.Exists(), nil
}

// SetEnabled writes enabledPlugins[pluginID]. The file is created when missing.
func (r *Registry) SetEnabled(pluginID string, enabled bool) error {
	data, err := r.read()
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte("{}")
	}
	updated, err := sjson.SetBytes(data, enabledPluginsKey+"."+escapePath(pluginID), enabled)
	if err != nil {
		return fmt.Errorf(messages.PluginSettingsWriteFmt, r.Path, err)
	}
	if err := r.Sys.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf(messages.PluginSettingsWriteFmt, r.Path, err)
	}
	if err := r.Sys.WriteFileAtomic(r.Path, updated, 0o644); err != nil {
		return fmt.Errorf(messages.PluginSettingsWriteFmt, r.Path, err)
	}
	return nil
}

// escapePath escapes gjson path syntax in a single key.
func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

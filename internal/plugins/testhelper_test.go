package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/testutil"
)

type env struct {
	root     string
	cache    string
	settings string
	links    string
	global   string
	manager  *Manager
}

func newEnv(t *testing.T) env {
	t.Helper()
	root := t.TempDir()
	e := env{
		root:     root,
		cache:    filepath.Join(root, "cache"),
		settings: filepath.Join(root, "claude", "settings.json"),
		links:    filepath.Join(root, "claude"),
		global:   filepath.Join(root, "mycelium", "global"),
	}
	settings := config.PluginSettings{CacheDir: e.cache, SettingsPath: e.settings, LinkRoot: e.links}
	e.manager = NewManager(settings, manifest.NewStore(e.global, nil), nil)
	return e
}

func (e env) writePlugin(t *testing.T, marketplace, plugin, version string) string {
	t.Helper()
	return testutil.WritePlugin(t, e.cache, marketplace, plugin, version)
}

func (e env) writeSettings(t *testing.T, content string) {
	t.Helper()
	writeFile(t, e.settings, content)
}

func (e env) store() *manifest.Store {
	return e.manager.Store
}

func (e env) load(t *testing.T) *manifest.Document {
	t.Helper()
	doc, err := e.store().Load()
	require.NoError(t, err)
	return doc
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	testutil.WriteFile(t, path, content)
}

func readlink(t *testing.T, path string) string {
	t.Helper()
	target, err := os.Readlink(path)
	require.NoError(t, err)
	return target
}

package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/plugins"
	"github.com/conn-castle/mycelium/internal/testutil"
)

const pluginID = "superpowers@official"

type env struct {
	root       string
	home       string
	cache      string
	settings   config.PluginSettings
	store      *manifest.Store
	manager    *plugins.Manager
	reconciler *Reconciler
}

func newEnv(t *testing.T) env {
	t.Helper()
	root := t.TempDir()
	e := env{
		root:  root,
		home:  filepath.Join(root, "mycelium"),
		cache: filepath.Join(root, "cache"),
	}
	e.settings = config.PluginSettings{
		CacheDir:     e.cache,
		SettingsPath: filepath.Join(root, "claude", "settings.json"),
		LinkRoot:     filepath.Join(root, "claude"),
	}
	e.store = manifest.NewStore(filepath.Join(e.home, config.GlobalDir), nil)
	e.manager = plugins.NewManager(e.settings, e.store, nil)
	e.reconciler = NewReconciler(e.settings, nil)
	return e
}

// takeover installs the fixture plugin at version 1.0.0 and takes it over.
func (e env) takeover(t *testing.T) string {
	t.Helper()
	dir := testutil.WritePlugin(t, e.cache, "official", "superpowers", "1.0.0")
	result, err := e.manager.Takeover(pluginID)
	require.NoError(t, err)
	require.True(t, result.Success, result.Errors)
	return dir
}

func (e env) link(kind manifest.Kind, name string) string {
	return plugins.LinkPath(e.settings.LinkRoot, kind, name)
}

func (e env) check(t *testing.T) []Result {
	t.Helper()
	doc, err := e.store.Load()
	if errors.Is(err, manifest.ErrManifestNotFound) {
		doc = manifest.NewDocument()
	} else {
		require.NoError(t, err)
	}
	return e.reconciler.CheckTakenOverPlugins(doc)
}

// problems returns the results that warned or failed.
func problems(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Status != StatusOK {
			out = append(out, r)
		}
	}
	return out
}

func requireResultByCheckName(t *testing.T, results []Result, checkName string) Result {
	t.Helper()
	var found *Result
	for _, result := range results {
		if result.CheckName == checkName {
			if found != nil {
				t.Fatalf("multiple %s results in %#v", checkName, results)
			}
			copyResult := result
			found = &copyResult
		}
	}
	if found == nil {
		t.Fatalf("missing %s result in %#v", checkName, results)
	}
	return *found
}

type faultSystem struct {
	plugins.RealSystem
	readlinkErr map[string]error
}

func (f faultSystem) Readlink(name string) (string, error) {
	if err, ok := f.readlinkErr[name]; ok {
		return "", err
	}
	return f.RealSystem.Readlink(name)
}

func replaceWithSymlink(t *testing.T, link string, target string) {
	t.Helper()
	require.NoError(t, os.RemoveAll(link))
	testutil.Symlink(t, target, link)
}

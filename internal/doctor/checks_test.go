package doctor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/testutil"
)

func TestCheckManifest(t *testing.T) {
	t.Run("missing and required", func(t *testing.T) {
		store := manifest.NewStore(t.TempDir(), nil)
		results, doc := CheckManifest(config.LayerGlobal, store, true)
		require.Len(t, results, 1)
		assert.Nil(t, doc)
		assert.Equal(t, StatusWarn, results[0].Status)
		assert.Equal(t, "manifest:global", results[0].CheckName)
		assert.Contains(t, results[0].Recommendation, "myc init --global")
	})

	t.Run("missing and optional", func(t *testing.T) {
		store := manifest.NewStore(t.TempDir(), nil)
		results, doc := CheckManifest(config.LayerProject, store, false)
		assert.Empty(t, results)
		assert.Nil(t, doc)
	})

	t.Run("invalid", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, filepath.Join(dir, manifest.FileName), "skills:\n  tdd:\n    state: paused\n")
		results, doc := CheckManifest(config.LayerProject, manifest.NewStore(dir, nil), false)
		require.Len(t, results, 1)
		assert.Nil(t, doc)
		assert.Equal(t, StatusFail, results[0].Status)
		assert.Equal(t, "manifest:project", results[0].CheckName)
	})

	t.Run("loaded", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, filepath.Join(dir, manifest.FileName), "skills:\n  tdd: {}\n")
		results, doc := CheckManifest(config.LayerGlobal, manifest.NewStore(dir, nil), true)
		require.Len(t, results, 1)
		require.NotNil(t, doc)
		assert.Equal(t, StatusOK, results[0].Status)
		assert.Contains(t, results[0].Message, "(1 items)")
	})
}

func TestCheckLayersReportsMalformedFragments(t *testing.T) {
	home := t.TempDir()
	paths := config.NewPaths(home, "host", "")
	testutil.WriteFile(t, filepath.Join(paths.GlobalDir, config.MCPsYAMLFile), "github:\n  command: gh-mcp\n")
	testutil.WriteFile(t, filepath.Join(paths.MachineDir, config.MCPsYAMLFile), "github: [broken")

	results := CheckLayers(config.LoadMerged(paths, nil))
	require.Len(t, results, 2)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Contains(t, results[0].Message, "1 MCP servers")
	assert.Equal(t, StatusWarn, results[1].Status)
	assert.Equal(t, "layers", results[1].CheckName)
	assert.NotEmpty(t, results[1].Recommendation)
}

func TestRunHealthyAfterTakeover(t *testing.T) {
	e := newEnv(t)
	e.takeover(t)

	settings := config.DefaultSettings()
	settings.Plugins = e.settings
	results := Run(Options{Paths: config.NewPaths(e.home, "host", ""), Settings: settings})

	summary := Summarize(results)
	assert.True(t, summary.Healthy(), "%#v", results)
	assert.Equal(t, 3, summary.OK)
	requireResultByCheckName(t, results, "manifest:global")
	requireResultByCheckName(t, results, "layers")
	requireResultByCheckName(t, results, "plugins")
}

func TestRunWithoutManifestStillChecksLinks(t *testing.T) {
	e := newEnv(t)
	testutil.Symlink(t, filepath.Join(e.root, "gone"), filepath.Join(e.settings.LinkRoot, "agents", "ghost.md"))

	settings := config.DefaultSettings()
	settings.Plugins = e.settings
	results := Run(Options{Paths: config.NewPaths(e.home, "host", e.root), Settings: settings})

	summary := Summarize(results)
	assert.Equal(t, 1, summary.Warn)
	assert.Equal(t, 1, summary.Fail)
	requireResultByCheckName(t, results, "symlink:agents/ghost.md:orphaned")
}

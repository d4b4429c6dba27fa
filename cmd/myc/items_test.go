package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/plugins"
	"github.com/conn-castle/mycelium/internal/testutil"
)

func TestInitCreatesProjectManifestOnce(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "init")
	assert.Contains(t, out, "Created "+filepath.Join(c.projectDir(), manifest.FileName))

	out = c.mustRun(t, "init")
	assert.Contains(t, out, "already exists")
	assert.Equal(t, 0, c.load(t, c.projectDir()).Len())
}

func TestInitGlobal(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "init", "--global")
	assert.FileExists(t, filepath.Join(c.globalDir(), manifest.FileName))
	assert.NoFileExists(t, filepath.Join(c.projectDir(), manifest.FileName))
}

func TestEnableWithoutManifestFails(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("enable", "tdd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, manifest.ErrManifestNotFound))
	assert.Contains(t, err.Error(), "myc init")
}

func TestDisableThenEnableProjectSkill(t *testing.T) {
	c := newCLI(t)
	c.writeManifest(t, c.projectDir(), "version: \"1\"\nskills:\n  tdd:\n    state: enabled\n")

	out := c.mustRun(t, "disable", "tdd", "--diff")
	assert.Contains(t, out, `Disabled skill "tdd"`)
	assert.Contains(t, out, "+    state: disabled")
	item, ok := c.load(t, c.projectDir()).Get(manifest.KindSkill, "tdd")
	require.True(t, ok)
	assert.Equal(t, manifest.StateDisabled, item.State)

	out = c.mustRun(t, "disable", "tdd", "--diff")
	assert.Contains(t, out, "already disabled")
	assert.Contains(t, out, "Manifest unchanged.")

	c.mustRun(t, "enable", "tdd")
	item, _ = c.load(t, c.projectDir()).Get(manifest.KindSkill, "tdd")
	assert.Equal(t, manifest.StateEnabled, item.State)
}

func TestEnableForToolEditsToolList(t *testing.T) {
	c := newCLI(t)
	c.writeManifest(t, c.globalDir(), "version: \"1\"\nmcps:\n  github:\n    command: gh\n")

	out := c.mustRun(t, "enable", "github", "--global", "--tool", "codex")
	assert.Contains(t, out, "codex")
	item, ok := c.load(t, c.globalDir()).Get(manifest.KindMCP, "github")
	require.True(t, ok)
	assert.True(t, item.VisibleTo("codex"))
}

func TestToggleRejectsBadFlags(t *testing.T) {
	c := newCLI(t)
	c.writeManifest(t, c.projectDir(), "version: \"1\"\n")

	_, err := c.run("enable", "tdd", "--type", "widget")
	assert.True(t, errors.Is(err, manifest.ErrInvalidType))

	_, err = c.run("disable", "tdd", "--tool", "emacs")
	assert.True(t, errors.Is(err, manifest.ErrInvalidTool))

	_, err = c.run("enable")
	assert.Error(t, err)
}

func TestAmbiguousNameNeedsType(t *testing.T) {
	c := newCLI(t)
	c.writeManifest(t, c.projectDir(), "version: \"1\"\nskills:\n  review: {}\nagents:\n  review: {}\n")

	_, err := c.run("disable", "review")
	assert.True(t, errors.Is(err, manifest.ErrAmbiguousItem))

	c.mustRun(t, "disable", "review", "--type", "agent")
	item, _ := c.load(t, c.projectDir()).Get(manifest.KindAgent, "review")
	assert.Equal(t, manifest.StateDisabled, item.State)
}

func TestRemoveByNameAndSource(t *testing.T) {
	c := newCLI(t)
	c.writeManifest(t, c.projectDir(), "version: \"1\"\nskills:\n  a: {source: market}\n  b: {source: market}\n  c: {source: manual}\n")

	out := c.mustRun(t, "remove", "c")
	assert.Contains(t, out, `Removed skill "c"`)

	out = c.mustRun(t, "remove", "--source", "market")
	assert.Contains(t, out, "Removed 2 item(s)")

	doc := c.load(t, c.projectDir())
	for _, name := range []string{"a", "b", "c"} {
		item, _ := doc.Get(manifest.KindSkill, name)
		assert.Equal(t, manifest.StateDeleted, item.State, name)
	}
}

func TestRemoveArgumentValidation(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("remove")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--source")

	_, err = c.run("remove", "a", "--source", "market")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")

	c.writeManifest(t, c.projectDir(), "version: \"1\"\n")
	_, err = c.run("remove", "--source", "has space")
	assert.True(t, errors.Is(err, manifest.ErrInvalidSource))
}

func TestGlobalToggleUpdatesPluginLinks(t *testing.T) {
	c := newCLI(t)
	testutil.WritePlugin(t, c.settings.CacheDir, "official", "superpowers", "1.0.0")
	c.mustRun(t, "plugin", "takeover", "superpowers@official")

	link := plugins.LinkPath(c.settings.LinkRoot, manifest.KindSkill, "tdd")
	require.True(t, isSymlink(link))

	out := c.mustRun(t, "disable", "tdd", "--global")
	assert.Contains(t, out, "Links: 0 created, 1 removed")
	assert.False(t, isSymlink(link))

	c.mustRun(t, "enable", "tdd", "--global")
	assert.True(t, isSymlink(link))

	c.mustRun(t, "remove", "--global", "--source", "superpowers@official")
	for _, kind := range []manifest.Kind{manifest.KindSkill, manifest.KindAgent, manifest.KindCommand} {
		name := map[manifest.Kind]string{manifest.KindSkill: "tdd", manifest.KindAgent: "reviewer", manifest.KindCommand: "brainstorm"}[kind]
		_, err := os.Lstat(plugins.LinkPath(c.settings.LinkRoot, kind, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}

func TestProjectToggleLeavesPluginLinks(t *testing.T) {
	c := newCLI(t)
	testutil.WritePlugin(t, c.settings.CacheDir, "official", "superpowers", "1.0.0")
	c.mustRun(t, "plugin", "takeover", "superpowers@official")
	c.writeManifest(t, c.projectDir(), "version: \"1\"\n")

	c.mustRun(t, "disable", "tdd")
	assert.True(t, isSymlink(plugins.LinkPath(c.settings.LinkRoot, manifest.KindSkill, "tdd")))
}

package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/testutil"
)

func writeStatusFixture(t *testing.T, c cli) {
	t.Helper()
	testutil.WriteFile(t, filepath.Join(c.globalDir(), "mcps.yaml"), "github:\n  command: gh\n  args: [serve]\nlinear:\n  command: lin\n")
	testutil.WriteFile(t, filepath.Join(c.projectDir(), "mcps.yaml"), "github:\n  args: [serve, --repo]\n")
	testutil.WriteFile(t, filepath.Join(c.projectDir(), "rules", "style.md"), "# style\n")
	c.writeManifest(t, c.globalDir(), "version: \"1\"\nskills:\n  tdd: {state: enabled}\n  review: {state: enabled, excludeTools: [codex]}\n")
	c.writeManifest(t, c.projectDir(), "version: \"1\"\nmcps:\n  linear: {state: enabled, excludeTools: [codex]}\n")
}

func TestStatusShowsMergedConfig(t *testing.T) {
	c := newCLI(t)
	writeStatusFixture(t, c)

	out := c.mustRun(t, "status")
	assert.Contains(t, out, "Merged configuration")
	assert.Regexp(t, `github\s+project\s+gh serve --repo`, out)
	assert.Regexp(t, `linear\s+global\s+lin`, out)
	assert.Regexp(t, `style\s+project`, out)
	assert.Regexp(t, `skill\s+review\s+enabled`, out)
}

func TestStatusForToolFiltersHiddenItems(t *testing.T) {
	c := newCLI(t)
	writeStatusFixture(t, c)

	out := c.mustRun(t, "status", "--tool", "codex")
	assert.Contains(t, out, "Effective configuration for codex")
	assert.Contains(t, out, "MCP servers (1)")
	assert.NotRegexp(t, `linear\s+global`, out)
	assert.Regexp(t, `skill\s+tdd`, out)
	assert.NotRegexp(t, `skill\s+review`, out)
}

func TestStatusReportsLayerWarnings(t *testing.T) {
	c := newCLI(t)
	testutil.WriteFile(t, filepath.Join(c.projectDir(), "mcps.yaml"), "github: [unterminated\n")

	out := c.mustRun(t, "status")
	assert.Contains(t, out, "1 warning(s)")
}

func TestStatusRejectsUnknownTool(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("status", "--tool", "emacs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, manifest.ErrInvalidTool))
}

func TestStatusFailsOnInvalidManifest(t *testing.T) {
	c := newCLI(t)
	c.writeManifest(t, c.globalDir(), "skills: [unterminated")
	_, err := c.run("status")
	assert.True(t, errors.Is(err, manifest.ErrInvalidManifest))
}

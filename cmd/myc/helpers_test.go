package main

// NOTE: Tests in this package mutate package-level globals (getwd, newPromptUI,
// runChecks, runServer, executeFunc) and MYCELIUM_HOME. Do not use t.Parallel().

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/testutil"
)

// cli is an isolated Mycelium home plus a git project used as the working directory.
type cli struct {
	root     string
	home     string
	project  string
	settings config.PluginSettings
}

func newCLI(t *testing.T) cli {
	t.Helper()
	root := t.TempDir()
	c := cli{
		root:    root,
		home:    filepath.Join(root, "mycelium"),
		project: filepath.Join(root, "repo"),
		settings: config.PluginSettings{
			CacheDir:     filepath.Join(root, "cache"),
			SettingsPath: filepath.Join(root, "claude", "settings.json"),
			LinkRoot:     filepath.Join(root, "claude"),
		},
	}
	t.Setenv(config.HomeEnvVar, c.home)
	require.NoError(t, os.MkdirAll(filepath.Join(c.project, ".git"), 0o755))
	testutil.WriteFile(t, filepath.Join(c.home, config.SettingsFile), fmt.Sprintf(
		"[plugins]\ncache_dir = %q\nsettings_path = %q\nlink_root = %q\n",
		c.settings.CacheDir, c.settings.SettingsPath, c.settings.LinkRoot))

	orig := getwd
	getwd = func() (string, error) { return c.project, nil }
	t.Cleanup(func() { getwd = orig })
	return c
}

// run executes myc with args and returns combined stdout and stderr.
func (c cli) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := execute(append([]string{"myc"}, args...), &out, &out)
	return out.String(), err
}

// mustRun fails the test when the command errors.
func (c cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(args...)
	require.NoError(t, err, out)
	return out
}

func (c cli) globalDir() string {
	return filepath.Join(c.home, config.GlobalDir)
}

func (c cli) projectDir() string {
	return filepath.Join(c.project, config.DirName)
}

// load reads the manifest in scopeDir.
func (c cli) load(t *testing.T, scopeDir string) *manifest.Document {
	t.Helper()
	doc, err := manifest.NewStore(scopeDir, nil).Load()
	require.NoError(t, err)
	return doc
}

// writeManifest writes a manifest into scopeDir.
func (c cli) writeManifest(t *testing.T, scopeDir string, content string) {
	t.Helper()
	testutil.WriteFile(t, filepath.Join(scopeDir, manifest.FileName), content)
}

// isSymlink reports whether path exists and is a symlink.
func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

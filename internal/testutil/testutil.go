package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePlugin creates {cacheDir}/{marketplace}/{plugin}/{version} holding the
// skill "tdd", the agent "reviewer", and the command "brainstorm". It returns
// the version directory.
func WritePlugin(t *testing.T, cacheDir string, marketplace string, plugin string, version string) string {
	t.Helper()
	dir := filepath.Join(cacheDir, marketplace, plugin, version)
	WriteFile(t, filepath.Join(dir, "skills", "tdd", "SKILL.md"), "---\nname: tdd\ndescription: Test first\n---\nbody\n")
	WriteFile(t, filepath.Join(dir, "agents", "reviewer.md"), "---\ndescription: Reviews code\n---\n")
	WriteFile(t, filepath.Join(dir, "commands", "brainstorm.md"), "no frontmatter\n")
	return dir
}

// Symlink creates a symlink at link pointing to target, creating parent directories.
func Symlink(t *testing.T, target string, link string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(link), err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink %s: %v", link, err)
	}
}

// WithWorkingDir runs fn with dir as the current working directory and restores the previous directory.
// t is the active test; dir is the temporary working directory for fn.
func WithWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("restore chdir: %v", err)
		}
	}()
	fn()
}

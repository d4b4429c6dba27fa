package plugins

import (
	"path/filepath"
	"strings"

	"github.com/conn-castle/mycelium/internal/manifest"
)

// LinkPath returns where the symlink for a managed component lives under
// linkRoot: skills/<name>, agents/<name>.md, or commands/<name>.md.
func LinkPath(linkRoot string, kind manifest.Kind, name string) string {
	switch kind {
	case manifest.KindSkill:
		return filepath.Join(linkRoot, "skills", name)
	case manifest.KindAgent:
		return filepath.Join(linkRoot, "agents", name+".md")
	case manifest.KindCommand:
		return filepath.Join(linkRoot, "commands", name+".md")
	default:
		return ""
	}
}

// Linkable reports whether items of kind are materialized as symlinks.
func Linkable(kind manifest.Kind) bool {
	return kind == manifest.KindSkill || kind == manifest.KindAgent || kind == manifest.KindCommand
}

// ResolveTarget makes a symlink target absolute relative to the link's directory.
func ResolveTarget(link string, target string) string {
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(filepath.Dir(link), target)
}

// WithinDir reports whether path is dir or lies beneath it.
func WithinDir(path string, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

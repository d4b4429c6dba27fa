// Package root locates the project a command runs in.
package root

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/messages"
)

// FindMyceliumRoot walks up from start looking for a .mycelium directory.
// It returns the directory that contains it and true when found. The
// Mycelium home (~/.mycelium) is not a project marker.
func FindMyceliumRoot(start string) (string, bool, error) {
	dir, err := absStart(start)
	if err != nil {
		return "", false, err
	}
	home, _ := config.ResolveHome()
	for {
		marker := filepath.Join(dir, config.DirName)
		info, err := os.Stat(marker)
		switch {
		case err == nil && marker == home:
		case err == nil:
			if !info.IsDir() {
				return "", false, fmt.Errorf(messages.RootPathNotDirFmt, marker)
			}
			return dir, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf(messages.RootCheckPathFmt, marker, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// FindProjectRoot returns the project root for start: the nearest directory
// holding .mycelium, else the nearest git work tree, else start itself.
func FindProjectRoot(start string) (string, error) {
	if dir, found, err := FindMyceliumRoot(start); err != nil || found {
		return dir, err
	}
	dir, err := absStart(start)
	if err != nil {
		return "", err
	}
	for current := dir; ; {
		marker := filepath.Join(current, ".git")
		info, err := os.Lstat(marker)
		switch {
		case err == nil:
			if !info.IsDir() && !info.Mode().IsRegular() {
				return "", fmt.Errorf(messages.RootPathNotDirOrFileFmt, marker)
			}
			return current, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf(messages.RootCheckPathFmt, marker, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

func absStart(start string) (string, error) {
	if start == "" {
		return "", errors.New(messages.RootStartPathRequired)
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf(messages.RootResolvePathFmt, start, err)
	}
	return dir, nil
}

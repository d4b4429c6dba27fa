package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// ClearResult reports what ClearMigration rolled back.
type ClearResult struct {
	Success           bool     `json:"success"`
	SkillsRemoved     int      `json:"skillsRemoved"`
	ComponentsRemoved int      `json:"componentsRemoved"`
	MCPsRemoved       int      `json:"mcpsRemoved"`
	MemoryRemoved     int      `json:"memoryRemoved"`
	EntriesRemoved    int      `json:"entriesRemoved"`
	Errors            []string `json:"errors"`
}

// ClearMigration undoes every action in the migration record. Symlinks are
// removed only while they are still symlinks. Items already gone count as
// cleared, so a failed clear can simply be run again. The record is deleted
// once everything has been cleared.
func (e *Executor) ClearMigration() (ClearResult, error) {
	record, err := loadRecord(e.Sys, e.RecordPath)
	if err != nil {
		return ClearResult{}, err
	}
	var result ClearResult
	fail := func(msg string) {
		e.Log.Warn(messages.MigrateFailedLog, "err", msg)
		result.Errors = append(result.Errors, msg)
	}

	for _, link := range record.Skills {
		if removed, err := e.removeLink(link.Link); err != nil {
			fail(err.Error())
		} else if removed {
			result.SkillsRemoved++
		}
	}
	for _, link := range record.Components {
		if removed, err := e.removeLink(link.Link); err != nil {
			fail(err.Error())
		} else if removed {
			result.ComponentsRemoved++
		}
	}
	if len(record.MCPs) > 0 {
		removed, err := e.removeMCPs(record.MCPs)
		if err != nil {
			fail(err.Error())
		}
		result.MCPsRemoved = removed
	}
	for _, mem := range record.Memory {
		err := e.Sys.Remove(mem.Path)
		switch {
		case err == nil:
			result.MemoryRemoved++
		case !errors.Is(err, fs.ErrNotExist):
			fail(fmt.Sprintf(messages.MigrateRemoveFailedFmt, mem.Path, err))
		}
	}
	if len(record.ManifestEntries) > 0 {
		_, err := e.Store.Update(func(doc *manifest.Document) error {
			for _, ref := range record.ManifestEntries {
				if doc.DeleteItem(ref.Kind, ref.Name) {
					result.EntriesRemoved++
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, manifest.ErrManifestNotFound) {
			fail(fmt.Sprintf(messages.MigrateManifestFailedFmt, err))
		}
	}

	result.Success = len(result.Errors) == 0
	if result.Success {
		if err := e.Sys.Remove(e.RecordPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fail(fmt.Sprintf(messages.MigrateRemoveRecordFmt, e.RecordPath, err))
			result.Success = false
		}
	}
	e.Log.Info(messages.MigrateClearedLog,
		"skills", result.SkillsRemoved,
		"components", result.ComponentsRemoved,
		"mcps", result.MCPsRemoved,
		"memory", result.MemoryRemoved,
		"entries", result.EntriesRemoved,
		"errors", len(result.Errors),
	)
	return result, nil
}

// removeLink deletes link if it is still a symlink. It reports false without
// error when the link no longer exists.
func (e *Executor) removeLink(link string) (bool, error) {
	info, err := e.Sys.Lstat(link)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(messages.MigrateRemoveFailedFmt, link, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return false, fmt.Errorf(messages.MigrateNotSymlinkFmt, link)
	}
	if err := e.Sys.Remove(link); err != nil {
		return false, fmt.Errorf(messages.MigrateRemoveFailedFmt, link, err)
	}
	return true, nil
}

func (e *Executor) removeMCPs(names []string) (int, error) {
	path := filepath.Join(e.GlobalDir, config.MCPsYAMLFile)
	data, err := e.Sys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf(messages.MigrateRemoveFailedFmt, path, err)
	}
	doc, err := parseMCPDocument(data, path)
	if err != nil {
		return 0, fmt.Errorf(messages.MigrateRemoveFailedFmt, path, err)
	}
	removed := 0
	for _, name := range names {
		if doc.remove(name) {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	out, err := doc.marshal()
	if err != nil {
		return 0, fmt.Errorf(messages.MigrateRemoveFailedFmt, path, err)
	}
	if err := e.Sys.WriteFileAtomic(path, out, 0o644); err != nil {
		return 0, fmt.Errorf(messages.MigrateRemoveFailedFmt, path, err)
	}
	return removed, nil
}

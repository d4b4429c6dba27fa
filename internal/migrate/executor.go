package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// Executor applies migration plans to the global scope.
type Executor struct {
	GlobalDir  string
	RecordPath string
	Store      *manifest.Store
	Sys        System
	Log        *slog.Logger
	Now        func() time.Time
}

// NewExecutor returns an executor writing into globalDir with the migration
// record stored next to the global manifest.
func NewExecutor(globalDir string, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		GlobalDir:  globalDir,
		RecordPath: filepath.Join(globalDir, config.MigrationFile),
		Store:      manifest.NewStore(globalDir, log),
		Sys:        RealSystem{},
		Log:        log,
		Now:        time.Now,
	}
}

// ExecuteResult reports what a migration applied. Success is false when any
// entry failed; entries that succeeded stay applied.
type ExecuteResult struct {
	Success            bool              `json:"success"`
	SkillsImported     int               `json:"skillsImported"`
	MCPsImported       int               `json:"mcpsImported"`
	MemoryImported     int               `json:"memoryImported"`
	ComponentsImported int               `json:"componentsImported"`
	Errors             []string          `json:"errors"`
	Manifest           MigrationManifest `json:"manifest"`
}

// Execute applies plan: skills and agent/command components are symlinked,
// MCP servers are appended to the global mcps.yaml, memory files are copied,
// and accepted items are registered in the global manifest. Every applied
// action is appended to the migration record. Entries already applied by an
// earlier run are skipped. The error is non-nil only when the existing record
// cannot be read.
func (e *Executor) Execute(plan MigrationPlan) (ExecuteResult, error) {
	record, err := loadRecord(e.Sys, e.RecordPath)
	switch {
	case errors.Is(err, ErrNoMigration):
		record = newMigrationManifest(e.Now())
	case err != nil:
		return ExecuteResult{}, err
	}
	before := record.actions()
	run := &execution{Executor: e, record: &record}

	linkedSkills := run.linkSkills(plan.Skills)
	linkedComponents := run.linkComponents(plan.Components)
	addedMCPs := run.appendMCPs(plan.MCPs)
	run.copyMemory(plan.Memory)
	run.register(linkedSkills, addedMCPs, linkedComponents)

	if record.actions() != before {
		record.UpdatedAt = e.Now()
		if err := saveRecord(e.Sys, e.RecordPath, record); err != nil {
			run.fail(err.Error())
		}
	}
	run.result.Manifest = record
	run.result.Success = len(run.result.Errors) == 0
	return run.result, nil
}

// execution carries the state of one Execute call.
type execution struct {
	*Executor
	record *MigrationManifest
	result ExecuteResult
}

func (x *execution) fail(msg string) {
	x.Log.Warn(messages.MigrateFailedLog, "err", msg)
	x.result.Errors = append(x.result.Errors, msg)
}

func (x *execution) linkSkills(skills []ScannedSkill) []ScannedSkill {
	var linked []ScannedSkill
	for _, skill := range skills {
		link := filepath.Join(x.GlobalDir, config.SkillsDir, skill.Name)
		created, err := x.ensureLink(link, skill.Path)
		if err != nil {
			x.fail(fmt.Sprintf(messages.MigrateEntryPrefixFmt, skill.Name, err))
			continue
		}
		linked = append(linked, skill)
		if !created {
			x.Log.Debug(messages.MigrateSkippedLog, "skill", skill.Name)
			continue
		}
		x.record.Skills = append(x.record.Skills, LinkRecord{Name: skill.Name, Link: link, Target: skill.Path})
		x.result.SkillsImported++
	}
	return linked
}

func (x *execution) linkComponents(components []ScannedComponent) []ScannedComponent {
	var accepted []ScannedComponent
	for _, component := range components {
		var dir string
		switch component.Type {
		case ComponentAgent:
			dir = config.AgentsDir
		case ComponentCommand:
			dir = config.CommandsDir
		case ComponentHook:
			accepted = append(accepted, component)
			continue
		default:
			x.Log.Debug(messages.MigrateUnsupportedLog, "name", component.Name, "type", string(component.Type))
			continue
		}
		link := filepath.Join(x.GlobalDir, dir, component.Name+filepath.Ext(component.Path))
		created, err := x.ensureLink(link, component.Path)
		if err != nil {
			x.fail(fmt.Sprintf(messages.MigrateEntryPrefixFmt, component.Name, err))
			continue
		}
		accepted = append(accepted, component)
		if created {
			x.record.Components = append(x.record.Components, LinkRecord{Name: component.Name, Link: link, Target: component.Path})
			x.result.ComponentsImported++
		}
	}
	return accepted
}

// ensureLink creates link pointing at target. It reports false without error
// when the link already points there.
func (x *execution) ensureLink(link string, target string) (bool, error) {
	info, err := x.Sys.Lstat(link)
	if err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			if current, readErr := x.Sys.Readlink(link); readErr == nil && current == target {
				return false, nil
			}
		}
		return false, fmt.Errorf(messages.MigrateLinkExistsFmt, link, target)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf(messages.MigrateLinkFailedFmt, link, err)
	}
	if err := x.Sys.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return false, fmt.Errorf(messages.MigrateMkdirFailedFmt, filepath.Dir(link), err)
	}
	if err := x.Sys.Symlink(target, link); err != nil {
		return false, fmt.Errorf(messages.MigrateLinkFailedFmt, link, err)
	}
	return true, nil
}

func (x *execution) appendMCPs(mcps []ScannedMCP) []ScannedMCP {
	if len(mcps) == 0 {
		return nil
	}
	path := filepath.Join(x.GlobalDir, config.MCPsYAMLFile)
	data, err := x.Sys.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		for _, mcp := range mcps {
			x.fail(fmt.Sprintf(messages.MigrateMCPWriteFailedFmt, mcp.Name, err))
		}
		return nil
	}
	doc, err := parseMCPDocument(data, path)
	if err != nil {
		for _, mcp := range mcps {
			x.fail(fmt.Sprintf(messages.MigrateMCPWriteFailedFmt, mcp.Name, err))
		}
		return nil
	}

	var accepted, added []ScannedMCP
	for _, mcp := range mcps {
		if command, exists := doc.command(mcp.Name); exists {
			if command != mcp.Config.Command {
				x.fail(fmt.Sprintf(messages.MigrateMCPExistsFmt, mcp.Name))
				continue
			}
			x.Log.Debug(messages.MigrateSkippedLog, "mcp", mcp.Name)
			accepted = append(accepted, mcp)
			continue
		}
		entry := mcpEntry{Command: mcp.Config.Command, Args: mcp.Config.Args, Env: mcp.Config.Env, Source: mcp.Source}
		if err := doc.add(mcp.Name, entry); err != nil {
			x.fail(fmt.Sprintf(messages.MigrateMCPWriteFailedFmt, mcp.Name, err))
			continue
		}
		added = append(added, mcp)
	}
	if len(added) == 0 {
		return accepted
	}

	out, err := doc.marshal()
	if err == nil {
		if err = x.Sys.MkdirAll(x.GlobalDir, 0o755); err == nil {
			err = x.Sys.WriteFileAtomic(path, out, 0o644)
		}
	}
	if err != nil {
		for _, mcp := range added {
			x.fail(fmt.Sprintf(messages.MigrateMCPWriteFailedFmt, mcp.Name, err))
		}
		return accepted
	}
	for _, mcp := range added {
		x.record.MCPs = append(x.record.MCPs, mcp.Name)
		x.result.MCPsImported++
	}
	return append(accepted, added...)
}

func (x *execution) copyMemory(memory []ScannedMemory) {
	for _, mem := range memory {
		name := mem.Name
		if name == "" {
			name = filepath.Base(mem.Path)
		}
		dest := filepath.Join(x.GlobalDir, "memory", mem.Source, name)
		content, err := x.Sys.ReadFile(mem.Path)
		if err != nil {
			x.fail(fmt.Sprintf(messages.MigrateMemoryReadFailedFmt, name, mem.Path, err))
			continue
		}
		if existing, err := x.Sys.ReadFile(dest); err == nil {
			if bytes.Equal(existing, content) {
				x.Log.Debug(messages.MigrateSkippedLog, "memory", dest)
				continue
			}
			x.fail(fmt.Sprintf(messages.MigrateMemoryExistsFmt, name, dest))
			continue
		}
		if err := x.Sys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			x.fail(fmt.Sprintf(messages.MigrateMemoryWriteFailedFmt, name, dest, err))
			continue
		}
		if err := x.Sys.WriteFileAtomic(dest, content, 0o644); err != nil {
			x.fail(fmt.Sprintf(messages.MigrateMemoryWriteFailedFmt, name, dest, err))
			continue
		}
		x.record.Memory = append(x.record.Memory, MemoryRecord{Name: name, Source: mem.Source, Path: dest})
		x.result.MemoryImported++
	}
}

// register adds manifest entries for everything that was applied. Existing
// entries are left untouched and are not recorded for rollback.
func (x *execution) register(skills []ScannedSkill, mcps []ScannedMCP, components []ScannedComponent) {
	if len(skills) == 0 && len(mcps) == 0 && len(components) == 0 {
		return
	}
	if _, err := x.Store.Init(); err != nil {
		x.fail(fmt.Sprintf(messages.MigrateManifestFailedFmt, err))
		return
	}
	var created []manifest.ItemRef
	_, err := x.Store.Update(func(doc *manifest.Document) error {
		created = created[:0]
		add := func(kind manifest.Kind, name string, item *manifest.Item) {
			if _, exists := doc.Get(kind, name); exists {
				return
			}
			doc.SetItem(kind, name, item)
			created = append(created, manifest.ItemRef{Kind: kind, Name: name})
		}
		for _, skill := range skills {
			add(manifest.KindSkill, skill.Name, &manifest.Item{State: manifest.StateEnabled, Source: skill.Source})
		}
		for _, mcp := range mcps {
			add(manifest.KindMCP, mcp.Name, &manifest.Item{
				Command: mcp.Config.Command,
				Args:    slices.Clone(mcp.Config.Args),
				Env:     mcp.Config.Env,
				State:   manifest.StateEnabled,
				Source:  mcp.Source,
			})
		}
		for _, component := range components {
			kind, ok := componentKind(component.Type)
			if !ok {
				continue
			}
			add(kind, component.Name, &manifest.Item{State: manifest.StateEnabled, Source: component.Source})
		}
		return nil
	})
	if err != nil {
		x.fail(fmt.Sprintf(messages.MigrateManifestFailedFmt, err))
		return
	}
	x.record.ManifestEntries = append(x.record.ManifestEntries, created...)
}

func componentKind(t ComponentType) (manifest.Kind, bool) {
	switch t {
	case ComponentAgent:
		return manifest.KindAgent, true
	case ComponentCommand:
		return manifest.KindCommand, true
	case ComponentHook:
		return manifest.KindHook, true
	default:
		return "", false
	}
}

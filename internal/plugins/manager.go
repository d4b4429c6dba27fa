package plugins

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// ErrNotTakenOver is returned when releasing a plugin that has no takeover record.
var ErrNotTakenOver = errors.New(messages.PluginNotTakenOver)

// Manager performs the remediation operations that bring the manifest, the
// component symlinks, and the tool's native plugin flags into agreement.
type Manager struct {
	Scanner  *Scanner
	Registry *Registry
	Store    *manifest.Store
	LinkRoot string
	Sys      System
	Log      *slog.Logger
}

// NewManager wires a manager from plugin settings and the manifest store that
// owns plugin-origin items.
func NewManager(settings config.PluginSettings, store *manifest.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		Scanner:  NewScanner(settings.CacheDir, log),
		Registry: NewRegistry(settings.SettingsPath),
		Store:    store,
		LinkRoot: settings.LinkRoot,
		Sys:      RealSystem{},
		Log:      log,
	}
}

// OpResult reports a plugin operation. Success is false when any step failed;
// steps that succeeded are not rolled back.
type OpResult struct {
	Success    bool     `json:"success"`
	PluginID   string   `json:"pluginId,omitempty"`
	Linked     []string `json:"linked"`
	Unlinked   []string `json:"unlinked"`
	Registered []string `json:"registered"`
	Errors     []string `json:"errors"`
}

func (r *OpResult) fail(log *slog.Logger, msg string) {
	log.Warn(messages.PluginOpFailedLog, "plugin", r.PluginID, "err", msg)
	r.Errors = append(r.Errors, msg)
}

func (r *OpResult) finish() OpResult {
	r.Success = len(r.Errors) == 0
	return *r
}

// PluginStatus describes an installed plugin.
type PluginStatus struct {
	Plugin
	Enabled    bool `json:"enabled"`
	EnabledSet bool `json:"enabledSet"`
	TakenOver  bool `json:"takenOver"`
	Components int  `json:"components"`
}

// ListPlugins returns every installed plugin with its native and takeover status.
func (m *Manager) ListPlugins() ([]PluginStatus, error) {
	installed, err := m.Scanner.Installed()
	if err != nil {
		return nil, err
	}
	enabled, err := m.Registry.EnabledPlugins()
	if err != nil {
		return nil, err
	}
	doc, err := m.loadOrEmpty()
	if err != nil {
		return nil, err
	}
	statuses := make([]PluginStatus, 0, len(installed))
	for _, plugin := range installed {
		flag, set := enabled[plugin.ID]
		_, takenOver := doc.TakenOverPlugins[plugin.ID]
		status := PluginStatus{Plugin: plugin, Enabled: flag, EnabledSet: set, TakenOver: takenOver}
		if components, err := m.Scanner.Scan(plugin.Path); err == nil {
			status.Components = len(components)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Takeover disables pluginID natively and manages its components as manifest
// items: new components are registered enabled with the plugin as source,
// existing items keep their state, and enabled items are symlinked.
func (m *Manager) Takeover(pluginID string) (OpResult, error) {
	result := OpResult{PluginID: pluginID}
	plugin, err := m.Scanner.Locate(pluginID)
	if err != nil {
		return result, err
	}
	components, err := m.Scanner.Scan(plugin.Path)
	if err != nil {
		return result, err
	}
	if _, err := m.Store.Init(); err != nil {
		return result, err
	}
	if err := m.Registry.SetEnabled(pluginID, false); err != nil {
		return result, err
	}

	var doc *manifest.Document
	_, err = m.Store.Update(func(d *manifest.Document) error {
		m.register(d, pluginID, plugin.Path, components, &result)
		d.TakenOverPlugins[pluginID] = &manifest.TakenOverPlugin{
			CachePath:     plugin.Path,
			AllComponents: ComponentNames(components),
		}
		doc = d
		return nil
	})
	if err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginManifestFailedFmt, err))
		return result.finish(), nil
	}
	m.reconcile(doc, pluginID, plugin.Path, components, &result)
	m.Log.Info(messages.PluginTakeoverLog, "plugin", pluginID, "path", plugin.Path,
		"registered", len(result.Registered), "linked", len(result.Linked))
	return result.finish(), nil
}

// Release hands pluginID back to the tool: its component symlinks are
// removed, the native flag is re-enabled, and the takeover record is dropped.
// Items keep their state and plugin origin.
func (m *Manager) Release(pluginID string) (OpResult, error) {
	result := OpResult{PluginID: pluginID}
	doc, err := m.Store.Load()
	if err != nil {
		return result, err
	}
	record, ok := doc.TakenOverPlugins[pluginID]
	if !ok {
		return result, fmt.Errorf(messages.PluginNotTakenOverFmt, ErrNotTakenOver, pluginID)
	}
	for _, ref := range doc.Refs() {
		item, _ := doc.Get(ref.Kind, ref.Name)
		if !Linkable(ref.Kind) || item.PluginOrigin == nil || item.PluginOrigin.PluginID != pluginID {
			continue
		}
		m.applyLink(ref.Kind, ref.Name, "", false, record.CachePath, &result)
	}
	if err := m.Registry.SetEnabled(pluginID, true); err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginSettingsFailedFmt, err))
		return result.finish(), nil
	}
	if _, err := m.Store.Update(func(d *manifest.Document) error {
		delete(d.TakenOverPlugins, pluginID)
		return nil
	}); err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginManifestFailedFmt, err))
	}
	m.Log.Info(messages.PluginReleaseLog, "plugin", pluginID, "unlinked", len(result.Unlinked))
	return result.finish(), nil
}

// Sync rescans every taken-over plugin, moving to the newest installed
// version, refreshing its component inventory, registering new components,
// and bringing every component symlink in line with its item state.
func (m *Manager) Sync() (OpResult, error) {
	result := OpResult{}
	doc, err := m.Store.Load()
	if err != nil {
		return result, err
	}

	type scanned struct {
		cachePath  string
		components []Component
	}
	scans := map[string]scanned{}
	for _, id := range doc.TakenOverIDs() {
		cachePath := doc.TakenOverPlugins[id].CachePath
		if plugin, err := m.Scanner.Locate(id); err == nil {
			cachePath = plugin.Path
		}
		components, err := m.Scanner.Scan(cachePath)
		if err != nil {
			result.fail(m.Log, fmt.Sprintf(messages.PluginSyncScanFailedFmt, id, err))
			continue
		}
		scans[id] = scanned{cachePath: cachePath, components: components}
	}

	_, err = m.Store.Update(func(d *manifest.Document) error {
		for _, id := range d.TakenOverIDs() {
			scan, ok := scans[id]
			if !ok {
				continue
			}
			m.register(d, id, scan.cachePath, scan.components, &result)
			d.TakenOverPlugins[id] = &manifest.TakenOverPlugin{
				CachePath:     scan.cachePath,
				AllComponents: ComponentNames(scan.components),
			}
		}
		doc = d
		return nil
	})
	if err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginManifestFailedFmt, err))
		return result.finish(), nil
	}
	for _, id := range doc.TakenOverIDs() {
		scan, ok := scans[id]
		if !ok {
			continue
		}
		m.reconcile(doc, id, scan.cachePath, scan.components, &result)
		m.Log.Info(messages.PluginSyncLog, "plugin", id, "path", scan.cachePath)
	}
	return result.finish(), nil
}

// ApplyItemLinks brings the symlink of one plugin-origin item in line with its
// state after an enable or disable. Items without an origin, or whose plugin
// is not taken over, are left alone.
func (m *Manager) ApplyItemLinks(kind manifest.Kind, name string) (OpResult, error) {
	result := OpResult{}
	if !Linkable(kind) {
		return result.finish(), nil
	}
	doc, err := m.Store.Load()
	if err != nil {
		return result, err
	}
	item, ok := doc.Get(kind, name)
	if !ok || item.PluginOrigin == nil {
		return result.finish(), nil
	}
	result.PluginID = item.PluginOrigin.PluginID
	record, ok := doc.TakenOverPlugins[item.PluginOrigin.PluginID]
	if !ok {
		return result.finish(), nil
	}
	components, err := m.Scanner.Scan(record.CachePath)
	if err != nil {
		result.fail(m.Log, err.Error())
		return result.finish(), nil
	}
	target := ""
	for _, component := range components {
		if k, ok := component.Type.Kind(); ok && k == kind && component.Name == name {
			target = component.Path
		}
	}
	desired := item.EffectiveState() == manifest.StateEnabled
	if target == "" && desired {
		result.fail(m.Log, fmt.Sprintf(messages.PluginComponentGoneFmt, name, record.CachePath))
		desired = false
	}
	m.applyLink(kind, name, target, desired, record.CachePath, &result)
	return result.finish(), nil
}

// register records components of pluginID in doc.
func (m *Manager) register(doc *manifest.Document, pluginID string, cachePath string, components []Component, result *OpResult) {
	for _, component := range components {
		kind, ok := component.Type.Kind()
		if !ok {
			continue
		}
		origin := &manifest.PluginOrigin{PluginID: pluginID, CachePath: cachePath}
		existing, exists := doc.Get(kind, component.Name)
		switch {
		case !exists:
			doc.SetItem(kind, component.Name, &manifest.Item{
				State:        manifest.StateEnabled,
				Source:       pluginID,
				PluginOrigin: origin,
			})
			result.Registered = append(result.Registered, component.Name)
		case existing.PluginOrigin != nil && existing.PluginOrigin.PluginID != pluginID:
			result.fail(m.Log, fmt.Sprintf(messages.PluginOwnedByOtherFmt, component.Name, existing.PluginOrigin.PluginID))
		default:
			existing.PluginOrigin = origin
			if existing.Source == "" || existing.Source == manifest.SourceAuto {
				existing.Source = pluginID
			}
		}
	}
}

// reconcile links or unlinks every item that originates from pluginID.
// Items whose component disappeared from the cache are unlinked.
func (m *Manager) reconcile(doc *manifest.Document, pluginID string, cachePath string, components []Component, result *OpResult) {
	paths := map[manifest.ItemRef]string{}
	for _, component := range components {
		if kind, ok := component.Type.Kind(); ok {
			paths[manifest.ItemRef{Kind: kind, Name: component.Name}] = component.Path
		}
	}
	for _, ref := range doc.Refs() {
		item, _ := doc.Get(ref.Kind, ref.Name)
		if !Linkable(ref.Kind) || item.PluginOrigin == nil || item.PluginOrigin.PluginID != pluginID {
			continue
		}
		target, present := paths[ref]
		desired := present && item.EffectiveState() == manifest.StateEnabled
		m.applyLink(ref.Kind, ref.Name, target, desired, cachePath, result)
	}
}

// applyLink makes the link slot for (kind, name) point at target when desired
// and removes it otherwise. Links are only replaced or removed when they point
// into the plugin's own cache directory; anything else in the slot is reported.
func (m *Manager) applyLink(kind manifest.Kind, name string, target string, desired bool, cachePath string, result *OpResult) {
	link := LinkPath(m.LinkRoot, kind, name)
	pluginDir := filepath.Dir(cachePath)

	info, err := m.Sys.Lstat(link)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if desired {
			m.createLink(name, link, target, result)
		}
		return
	case err != nil:
		result.fail(m.Log, fmt.Sprintf(messages.PluginLinkInspectFmt, name, link, err))
		return
	case info.Mode()&os.ModeSymlink == 0:
		if desired {
			result.fail(m.Log, fmt.Sprintf(messages.PluginLinkOccupiedFmt, name, link, pluginDir))
		}
		return
	}

	current, err := m.Sys.Readlink(link)
	if err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginLinkInspectFmt, name, link, err))
		return
	}
	resolved := ResolveTarget(link, current)
	ours := WithinDir(resolved, pluginDir)
	switch {
	case desired && resolved == filepath.Clean(target):
		// Already correct.
	case !ours:
		if desired {
			result.fail(m.Log, fmt.Sprintf(messages.PluginLinkOccupiedFmt, name, link, pluginDir))
		}
	default:
		if err := m.Sys.Remove(link); err != nil {
			result.fail(m.Log, fmt.Sprintf(messages.PluginLinkRemoveFmt, name, link, err))
			return
		}
		if desired {
			m.createLink(name, link, target, result)
			return
		}
		m.Log.Debug(messages.PluginUnlinkedLog, "name", name, "link", link)
		result.Unlinked = append(result.Unlinked, name)
	}
}

func (m *Manager) createLink(name string, link string, target string, result *OpResult) {
	if err := m.Sys.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginLinkCreateFmt, name, link, err))
		return
	}
	if err := m.Sys.Symlink(target, link); err != nil {
		result.fail(m.Log, fmt.Sprintf(messages.PluginLinkCreateFmt, name, link, err))
		return
	}
	m.Log.Debug(messages.PluginLinkedLog, "name", name, "link", link, "target", target)
	result.Linked = append(result.Linked, name)
}

func (m *Manager) loadOrEmpty() (*manifest.Document, error) {
	doc, err := m.Store.Load()
	if errors.Is(err, manifest.ErrManifestNotFound) {
		return manifest.NewDocument(), nil
	}
	return doc, err
}

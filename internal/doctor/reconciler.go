package doctor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/mycelium/internal/config"
	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
	"github.com/conn-castle/mycelium/internal/plugins"
)

// linkDirs are the managed component directories under the link root.
var linkDirs = []string{"skills", "agents", "commands"}

// phantomPattern matches names shaped like a plugin id.
var phantomPattern = regexp.MustCompile(`^[^@\s/]+@[^@\s/]+$`)

// Reconciler compares three views of plugin components: manifest items with a
// plugin origin, the component symlinks under LinkRoot, and the tool's own
// enabledPlugins flags plus its plugin cache.
type Reconciler struct {
	Scanner  *plugins.Scanner
	Registry *plugins.Registry
	LinkRoot string
	Sys      plugins.System
	Log      *slog.Logger
}

// NewReconciler wires a reconciler from plugin settings.
func NewReconciler(settings config.PluginSettings, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reconciler{
		Scanner:  plugins.NewScanner(settings.CacheDir, log),
		Registry: plugins.NewRegistry(settings.SettingsPath),
		LinkRoot: settings.LinkRoot,
		Sys:      plugins.RealSystem{},
		Log:      log,
	}
}

// CheckTakenOverPlugins reports every inconsistency between doc, the
// filesystem, and the tool's plugin settings. When nothing is wrong it
// returns a single OK result.
func (r *Reconciler) CheckTakenOverPlugins(doc *manifest.Document) []Result {
	var results []Result
	results = append(results, r.checkSymlinks()...)

	originItems := 0
	for _, ref := range doc.Refs() {
		item, _ := doc.Get(ref.Kind, ref.Name)
		if item.PluginOrigin == nil || !plugins.Linkable(ref.Kind) {
			continue
		}
		originItems++
		results = append(results, r.checkItem(doc, ref, item)...)
	}

	flags, err := r.Registry.EnabledPlugins()
	if err != nil {
		results = append(results, Result{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameSettings,
			Message:        fmt.Sprintf(messages.DoctorSettingsUnreadableFmt, err),
			Recommendation: messages.DoctorSettingsRecommend,
		})
	} else {
		results = append(results, r.checkTakeoverFlags(doc, flags)...)
		results = append(results, r.checkReleasedFlags(doc, flags)...)
	}
	results = append(results, r.checkInventories(doc)...)
	results = append(results, checkPhantoms(doc)...)

	if len(results) == 0 {
		results = append(results, Result{
			Status:    StatusOK,
			CheckName: messages.DoctorCheckNamePlugins,
			Message:   fmt.Sprintf(messages.DoctorPluginsConsistentFmt, len(doc.TakenOverPlugins), originItems),
		})
	}
	return results
}

// checkSymlinks walks the managed component directories and reports links
// whose target cannot be read or does not exist.
func (r *Reconciler) checkSymlinks() []Result {
	var results []Result
	for _, sub := range linkDirs {
		dir := filepath.Join(r.LinkRoot, sub)
		entries, err := r.Sys.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      fmt.Sprintf(messages.DoctorCheckSymlinkFmt, sub, messages.DoctorIssueUnreadable),
				Message:        fmt.Sprintf(messages.DoctorDirUnreadableFmt, dir, err),
				Recommendation: messages.DoctorSymlinkRecommend,
			})
			continue
		}
		for _, entry := range entries {
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			rel := sub + "/" + entry.Name()
			link := filepath.Join(dir, entry.Name())
			target, err := r.Sys.Readlink(link)
			if err != nil {
				results = append(results, Result{
					Status:         StatusFail,
					CheckName:      fmt.Sprintf(messages.DoctorCheckSymlinkFmt, rel, messages.DoctorIssueUnreadable),
					Message:        fmt.Sprintf(messages.DoctorSymlinkUnreadableFmt, link, err),
					Recommendation: messages.DoctorSymlinkRecommend,
				})
				continue
			}
			if _, err := r.Sys.Stat(link); err != nil {
				results = append(results, Result{
					Status:         StatusFail,
					CheckName:      fmt.Sprintf(messages.DoctorCheckSymlinkFmt, rel, messages.DoctorIssueOrphaned),
					Message:        fmt.Sprintf(messages.DoctorSymlinkOrphanedFmt, link, plugins.ResolveTarget(link, target)),
					Recommendation: messages.DoctorSymlinkRecommend,
				})
			}
		}
	}
	return results
}

// checkItem compares one plugin-origin item's state with its link slot.
// Disabled and deleted items must have no symlink. Enabled items of a
// taken-over plugin must have a symlink into the plugin's cache path.
func (r *Reconciler) checkItem(doc *manifest.Document, ref manifest.ItemRef, item *manifest.Item) []Result {
	link := plugins.LinkPath(r.LinkRoot, ref.Kind, ref.Name)
	info, err := r.Sys.Lstat(link)
	exists := err == nil
	isLink := exists && info.Mode()&os.ModeSymlink != 0

	state := item.EffectiveState()
	if state != manifest.StateEnabled {
		if !isLink {
			return nil
		}
		return []Result{{
			Status:         StatusFail,
			CheckName:      originCheck(ref.Name, fmt.Sprintf(messages.DoctorIssueHasSymlinkFmt, state)),
			Message:        fmt.Sprintf(messages.DoctorOriginHasSymlinkFmt, ref.Kind, ref.Name, state, link),
			Recommendation: messages.DoctorSyncRecommend,
		}}
	}

	if _, ok := doc.TakenOverPlugins[item.PluginOrigin.PluginID]; !ok {
		return nil
	}
	switch {
	case !exists:
		return []Result{{
			Status:         StatusFail,
			CheckName:      originCheck(ref.Name, messages.DoctorIssueMissingSymlink),
			Message:        fmt.Sprintf(messages.DoctorOriginMissingSymlinkFmt, ref.Kind, ref.Name, link),
			Recommendation: messages.DoctorSyncRecommend,
		}}
	case !isLink:
		return []Result{{
			Status:         StatusWarn,
			CheckName:      originCheck(ref.Name, messages.DoctorIssueNotSymlink),
			Message:        fmt.Sprintf(messages.DoctorOriginNotSymlinkFmt, ref.Kind, ref.Name, link),
			Recommendation: messages.DoctorOriginNotSymlinkRecommend,
		}}
	}

	target, err := r.Sys.Readlink(link)
	if err != nil {
		// Reported by the symlink walk.
		return nil
	}
	resolved := plugins.ResolveTarget(link, target)
	cachePath := expand(item.PluginOrigin.CachePath)
	if plugins.WithinDir(resolved, cachePath) {
		return nil
	}
	return []Result{{
		Status:         StatusWarn,
		CheckName:      originCheck(ref.Name, messages.DoctorIssueWrongTarget),
		Message:        fmt.Sprintf(messages.DoctorOriginWrongTargetFmt, ref.Kind, ref.Name, resolved, cachePath),
		Recommendation: messages.DoctorSyncRecommend,
	}}
}

// checkTakeoverFlags reports taken-over plugins the tool has enabled again.
func (r *Reconciler) checkTakeoverFlags(doc *manifest.Document, flags map[string]bool) []Result {
	var results []Result
	for _, id := range doc.TakenOverIDs() {
		if !flags[id] {
			continue
		}
		results = append(results, Result{
			Status:         StatusWarn,
			CheckName:      fmt.Sprintf(messages.DoctorCheckTakeoverFmt, id, messages.DoctorIssueReEnabled),
			Message:        fmt.Sprintf(messages.DoctorTakeoverReEnabledFmt, id, r.Registry.Path),
			Recommendation: fmt.Sprintf(messages.DoctorTakeoverReEnabledRecommendFmt, id, id),
		})
	}
	return results
}

// checkReleasedFlags reports released plugins the tool has not re-enabled.
// A plugin counts as released when items still carry its origin but no
// takeover record exists.
func (r *Reconciler) checkReleasedFlags(doc *manifest.Document, flags map[string]bool) []Result {
	released := map[string]struct{}{}
	for _, ref := range doc.Refs() {
		item, _ := doc.Get(ref.Kind, ref.Name)
		if item.PluginOrigin == nil {
			continue
		}
		id := item.PluginOrigin.PluginID
		if _, ok := doc.TakenOverPlugins[id]; !ok {
			released[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(released))
	for id := range released {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var results []Result
	for _, id := range ids {
		if flags[id] {
			continue
		}
		results = append(results, Result{
			Status:         StatusWarn,
			CheckName:      fmt.Sprintf(messages.DoctorCheckReleasedFmt, id, messages.DoctorIssueNotEnabled),
			Message:        fmt.Sprintf(messages.DoctorReleasedNotEnabledFmt, id, r.Registry.Path),
			Recommendation: fmt.Sprintf(messages.DoctorReleasedNotEnabledRecommendFmt, id, id),
		})
	}
	return results
}

// checkInventories compares each takeover record's component list with a
// live scan of its cache path.
func (r *Reconciler) checkInventories(doc *manifest.Document) []Result {
	var results []Result
	for _, id := range doc.TakenOverIDs() {
		record := doc.TakenOverPlugins[id]
		cachePath := expand(record.CachePath)
		components, err := r.Scanner.Scan(cachePath)
		if err != nil {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      fmt.Sprintf(messages.DoctorCheckTakeoverFmt, id, messages.DoctorIssueCacheMissing),
				Message:        fmt.Sprintf(messages.DoctorCacheMissingFmt, id, cachePath, err),
				Recommendation: fmt.Sprintf(messages.DoctorCacheMissingRecommendFmt, id, id),
			})
			continue
		}
		recorded := sortedUnique(record.AllComponents)
		found := plugins.ComponentNames(components)
		missing := difference(recorded, found)
		extra := difference(found, recorded)
		if len(missing) == 0 && len(extra) == 0 {
			continue
		}
		r.Log.Debug(messages.DoctorDriftLog, "plugin", id, "missing", missing, "extra", extra)
		results = append(results, Result{
			Status:    StatusWarn,
			CheckName: fmt.Sprintf(messages.DoctorCheckTakeoverFmt, id, messages.DoctorIssueComponentsDrift),
			Message: fmt.Sprintf(messages.DoctorComponentsDriftFmt, id,
				strings.Join(recorded, ", "), strings.Join(found, ", "),
				strings.Join(missing, ", "), strings.Join(extra, ", ")),
			Recommendation: messages.DoctorSyncRecommend,
		})
	}
	return results
}

// checkPhantoms reports live skills whose name looks like plugin@marketplace.
// Names suffixed with a tool id are migration renames and are allowed.
func checkPhantoms(doc *manifest.Document) []Result {
	var results []Result
	for _, name := range doc.Names(manifest.KindSkill) {
		item, _ := doc.Get(manifest.KindSkill, name)
		if item.EffectiveState() == manifest.StateDeleted || !phantomPattern.MatchString(name) {
			continue
		}
		suffix := name[strings.LastIndex(name, "@")+1:]
		if slices.Contains(manifest.KnownTools, suffix) {
			continue
		}
		results = append(results, Result{
			Status:         StatusFail,
			CheckName:      fmt.Sprintf(messages.DoctorCheckPhantomFmt, name),
			Message:        fmt.Sprintf(messages.DoctorPhantomFmt, name),
			Recommendation: fmt.Sprintf(messages.DoctorPhantomRecommendFmt, name),
		})
	}
	return results
}

func originCheck(name string, issue string) string {
	return fmt.Sprintf(messages.DoctorCheckOriginFmt, name, issue)
}

func expand(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	sort.Strings(out)
	return slices.Compact(out)
}

// difference returns the elements of a not in b. Both must be sorted.
func difference(a []string, b []string) []string {
	var out []string
	for _, v := range a {
		if _, found := slices.BinarySearch(b, v); !found {
			out = append(out, v)
		}
	}
	return out
}

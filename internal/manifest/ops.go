package manifest

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/conn-castle/mycelium/internal/messages"
)

// Provenance tags written by the engine.
const (
	SourceAuto   = "auto"
	SourceManual = "manual"
)

// Level names the manifest scope a toggle was applied to.
type Level string

// Manifest levels.
const (
	LevelGlobal  Level = "global"
	LevelProject Level = "project"
)

// ToggleRequest selects the item an enable or disable applies to.
// Kind is optional; Tool is optional and switches the toggle to tool scoping.
type ToggleRequest struct {
	Name string
	Kind Kind
	Tool string
}

// ToggleResult describes the outcome of Enable or Disable.
type ToggleResult struct {
	Name            string
	Type            Kind
	Level           Level
	Tool            string
	AlreadyEnabled  bool
	AlreadyDisabled bool
	AutoRegistered  bool
	Message         string
}

// RemoveResult describes the outcome of Remove.
type RemoveResult struct {
	Name           string
	Section        string
	Type           Kind
	AlreadyRemoved bool
	Message        string
}

// SourceRemoval describes the outcome of RemoveBySource.
type SourceRemoval struct {
	Removed []ItemRef
	Errors  []string
	Message string
}

func validateRequest(req ToggleRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf(messages.ItemNameRequired)
	}
	if req.Tool != "" {
		if err := ValidateTool(req.Tool); err != nil {
			return err
		}
	}
	return nil
}

// Enable turns an item on. Without a tool it moves state to enabled, restoring
// disabled and deleted items alike. With a tool it only edits the tool lists.
// Unknown names are registered as skills with source "auto".
func Enable(doc *Document, req ToggleRequest) (ToggleResult, error) {
	if err := validateRequest(req); err != nil {
		return ToggleResult{}, err
	}
	defaultState := StateDisabled
	if req.Tool != "" {
		defaultState = StateEnabled
	}
	kind, item, created, err := doc.EnsureItem(req.Name, req.Kind, defaultState)
	if err != nil {
		return ToggleResult{}, err
	}
	result := ToggleResult{Name: req.Name, Type: kind, Tool: req.Tool, AutoRegistered: created}

	if req.Tool == "" {
		if item.EffectiveState() == StateEnabled {
			result.AlreadyEnabled = true
			result.Message = fmt.Sprintf(messages.ItemAlreadyEnabledFmt, kind, req.Name)
			return result, nil
		}
		item.State = StateEnabled
		result.Message = fmt.Sprintf(messages.ItemEnabledFmt, kind, req.Name)
		return result, nil
	}

	if created {
		item.Tools = []string{req.Tool}
		result.Message = fmt.Sprintf(messages.ItemEnabledForToolFmt, kind, req.Name, req.Tool)
		return result, nil
	}

	changed := false
	if idx := slices.Index(item.ExcludeTools, req.Tool); idx >= 0 {
		item.ExcludeTools = slices.Delete(item.ExcludeTools, idx, idx+1)
		changed = true
	}
	if allow := item.allowList(); len(allow) > 0 && !slices.Contains(allow, req.Tool) {
		item.Tools = append(item.Tools, req.Tool)
		changed = true
	}
	switch {
	case !changed:
		result.AlreadyEnabled = true
		result.Message = fmt.Sprintf(messages.ItemAlreadyEnabledToolFmt, kind, req.Name, req.Tool)
	case item.EffectiveState() != StateEnabled:
		result.Message = fmt.Sprintf(messages.ItemEnabledToolInactiveFmt, kind, req.Name, req.Tool, item.EffectiveState(), req.Name)
	default:
		result.Message = fmt.Sprintf(messages.ItemEnabledForToolFmt, kind, req.Name, req.Tool)
	}
	return result, nil
}

// Disable turns an item off. Without a tool it moves state to disabled; with a
// tool it excludes that tool and leaves state alone. Unknown names are
// registered as skills with source "auto" before being disabled.
func Disable(doc *Document, req ToggleRequest) (ToggleResult, error) {
	if err := validateRequest(req); err != nil {
		return ToggleResult{}, err
	}
	kind, item, created, err := doc.EnsureItem(req.Name, req.Kind, StateEnabled)
	if err != nil {
		return ToggleResult{}, err
	}
	result := ToggleResult{Name: req.Name, Type: kind, Tool: req.Tool, AutoRegistered: created}

	if req.Tool == "" {
		switch item.EffectiveState() {
		case StateDisabled:
			result.AlreadyDisabled = true
			result.Message = fmt.Sprintf(messages.ItemAlreadyDisabledFmt, kind, req.Name)
		case StateDeleted:
			result.AlreadyDisabled = true
			result.Message = fmt.Sprintf(messages.ItemDeletedCannotDisable, kind, req.Name, req.Name)
		default:
			item.State = StateDisabled
			result.Message = fmt.Sprintf(messages.ItemDisabledFmt, kind, req.Name)
		}
		return result, nil
	}

	changed := false
	if !slices.Contains(item.ExcludeTools, req.Tool) {
		item.ExcludeTools = append(item.ExcludeTools, req.Tool)
		changed = true
	}
	// An emptied allow-list would mean every tool, so the last entry stays and
	// excludeTools alone hides it.
	if allow := item.allowList(); len(allow) > 1 || (len(allow) == 1 && allow[0] != req.Tool) {
		if idx := slices.Index(item.Tools, req.Tool); idx >= 0 {
			item.Tools = slices.Delete(item.Tools, idx, idx+1)
			changed = true
		}
		if idx := slices.Index(item.EnabledTools, req.Tool); idx >= 0 {
			item.EnabledTools = slices.Delete(item.EnabledTools, idx, idx+1)
			changed = true
		}
	}
	if changed {
		result.Message = fmt.Sprintf(messages.ItemDisabledForToolFmt, kind, req.Name, req.Tool)
	} else {
		result.AlreadyDisabled = true
		result.Message = fmt.Sprintf(messages.ItemAlreadyDisabledToolFmt, kind, req.Name, req.Tool)
	}
	return result, nil
}

// Remove tombstones an item by setting its state to deleted. The entry stays in
// the manifest so doctor and migrations can still see it, and Enable restores it.
// Remove never auto-registers.
func Remove(doc *Document, name string, kind Kind) (RemoveResult, error) {
	if strings.TrimSpace(name) == "" {
		return RemoveResult{}, fmt.Errorf(messages.ItemNameRequired)
	}
	found, item, err := doc.Resolve(name, kind)
	if err != nil {
		return RemoveResult{}, err
	}
	result := RemoveResult{Name: name, Type: found, Section: found.Section()}
	if item.EffectiveState() == StateDeleted {
		result.AlreadyRemoved = true
		result.Message = fmt.Sprintf(messages.ItemAlreadyRemovedFmt, found, name)
		return result, nil
	}
	item.State = StateDeleted
	result.Message = fmt.Sprintf(messages.ItemRemovedFmt, found, name, name)
	return result, nil
}

// ValidateSource rejects empty or whitespace-containing source ids.
func ValidateSource(source string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf(messages.ItemInvalidSourceEmpty, ErrInvalidSource)
	}
	if strings.IndexFunc(source, unicode.IsSpace) >= 0 {
		return fmt.Errorf(messages.ItemInvalidSourceFmt, ErrInvalidSource, source)
	}
	return nil
}

// MatchesSource reports whether the item came from source, either as its
// provenance tag or through its plugin origin.
func (it *Item) MatchesSource(source string) bool {
	if it.Source == source {
		return true
	}
	return it.PluginOrigin != nil && it.PluginOrigin.PluginID == source
}

// RemoveBySource tombstones every live item whose source or plugin origin is source.
func RemoveBySource(doc *Document, source string) (SourceRemoval, error) {
	if err := ValidateSource(source); err != nil {
		return SourceRemoval{}, err
	}
	var result SourceRemoval
	for _, ref := range doc.Refs() {
		item, _ := doc.Get(ref.Kind, ref.Name)
		if !item.MatchesSource(source) || item.EffectiveState() == StateDeleted {
			continue
		}
		item.State = StateDeleted
		result.Removed = append(result.Removed, ref)
	}
	if len(result.Removed) == 0 {
		result.Message = fmt.Sprintf(messages.ItemsNoneForSourceFmt, source)
	} else {
		result.Message = fmt.Sprintf(messages.ItemsRemovedBySourceFmt, len(result.Removed), source)
	}
	return result, nil
}

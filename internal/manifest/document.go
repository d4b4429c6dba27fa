package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/conn-castle/mycelium/internal/messages"
)

// Sentinel errors. Messages carry the substrings callers match on.
var (
	ErrManifestNotFound = errors.New(messages.ManifestNotFound)
	ErrInvalidManifest  = errors.New(messages.ManifestInvalid)
	ErrItemNotFound     = errors.New(messages.ItemNotFound)
	ErrAmbiguousItem    = errors.New(messages.ItemAmbiguous)
	ErrInvalidTool      = errors.New(messages.ItemInvalidTool)
	ErrInvalidType      = errors.New(messages.ItemInvalidType)
	ErrInvalidSource    = errors.New(messages.ItemInvalidSource)
)

// Document is the in-memory manifest. Items are stored in a flat registry keyed
// by (kind, name) with a name index so ambiguity checks are a set-size query.
type Document struct {
	Version          string
	TakenOverPlugins map[string]*TakenOverPlugin
	Extra            map[string]any

	items map[ItemRef]*Item
	index map[string]map[Kind]struct{}
}

// documentYAML is the on-disk shape.
type documentYAML struct {
	Version          string                      `yaml:"version"`
	Skills           map[string]*Item            `yaml:"skills,omitempty"`
	MCPs             map[string]*Item            `yaml:"mcps,omitempty"`
	Hooks            map[string]*Item            `yaml:"hooks,omitempty"`
	Agents           map[string]*Item            `yaml:"agents,omitempty"`
	Commands         map[string]*Item            `yaml:"commands,omitempty"`
	TakenOverPlugins map[string]*TakenOverPlugin `yaml:"takenOverPlugins,omitempty"`
	Extra            map[string]any              `yaml:",inline"`
}

func (d *documentYAML) section(kind Kind) *map[string]*Item {
	switch kind {
	case KindSkill:
		return &d.Skills
	case KindMCP:
		return &d.MCPs
	case KindHook:
		return &d.Hooks
	case KindAgent:
		return &d.Agents
	default:
		return &d.Commands
	}
}

// NewDocument returns an empty manifest at the current version.
func NewDocument() *Document {
	return &Document{
		Version:          CurrentVersion,
		TakenOverPlugins: make(map[string]*TakenOverPlugin),
		items:            make(map[ItemRef]*Item),
		index:            make(map[string]map[Kind]struct{}),
	}
}

// Parse decodes and validates a manifest. source is used in error messages.
func Parse(data []byte, source string) (*Document, error) {
	var raw documentYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf(messages.ManifestParseFailedFmt, ErrInvalidManifest, source, err)
	}

	doc := NewDocument()
	if strings.TrimSpace(raw.Version) != "" {
		doc.Version = raw.Version
	}
	doc.Extra = raw.Extra
	for _, kind := range Kinds {
		section := *raw.section(kind)
		for name, item := range section {
			if strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf(messages.ManifestEmptyItemNameFmt, ErrInvalidManifest, kind.Section())
			}
			if item == nil {
				item = &Item{}
			}
			if !item.State.Valid() {
				return nil, fmt.Errorf(messages.ManifestInvalidStateFmt, ErrInvalidManifest, kind.Section(), name, item.State)
			}
			if item.PluginOrigin != nil && strings.TrimSpace(item.PluginOrigin.PluginID) == "" {
				return nil, fmt.Errorf(messages.ManifestOriginMissingIDFmt, ErrInvalidManifest, kind.Section(), name)
			}
			doc.SetItem(kind, name, item)
		}
	}
	for id, record := range raw.TakenOverPlugins {
		if record == nil {
			record = &TakenOverPlugin{}
		}
		doc.TakenOverPlugins[id] = record
	}
	return doc, nil
}

// Marshal encodes the document as YAML. Map keys are emitted sorted, so equal
// documents always produce equal bytes.
func (d *Document) Marshal() ([]byte, error) {
	raw := documentYAML{
		Version: d.Version,
		Extra:   d.Extra,
	}
	if raw.Version == "" {
		raw.Version = CurrentVersion
	}
	for ref, item := range d.items {
		section := raw.section(ref.Kind)
		if *section == nil {
			*section = make(map[string]*Item)
		}
		(*section)[ref.Name] = item
	}
	if len(d.TakenOverPlugins) > 0 {
		raw.TakenOverPlugins = d.TakenOverPlugins
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&raw); err != nil {
		return nil, fmt.Errorf(messages.ManifestMarshalFailedFmt, err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf(messages.ManifestMarshalFailedFmt, err)
	}
	return buf.Bytes(), nil
}

// Lookup returns the kinds that contain name, in section order.
func (d *Document) Lookup(name string) []Kind {
	set := d.index[name]
	if len(set) == 0 {
		return nil
	}
	kinds := make([]Kind, 0, len(set))
	for _, kind := range Kinds {
		if _, ok := set[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Get returns the item stored under (kind, name).
func (d *Document) Get(kind Kind, name string) (*Item, bool) {
	item, ok := d.items[ItemRef{Kind: kind, Name: name}]
	return item, ok
}

// FindItem searches every section for name. It fails with ErrItemNotFound when
// no section has it and ErrAmbiguousItem when more than one does.
func (d *Document) FindItem(name string) (Kind, *Item, error) {
	kinds := d.Lookup(name)
	switch len(kinds) {
	case 0:
		return "", nil, fmt.Errorf(messages.ItemNotFoundFmt, ErrItemNotFound, name)
	case 1:
		item, _ := d.Get(kinds[0], name)
		return kinds[0], item, nil
	default:
		return "", nil, ambiguityError(name, kinds)
	}
}

// Resolve looks up name in the given kind, or across all sections when kind is empty.
func (d *Document) Resolve(name string, kind Kind) (Kind, *Item, error) {
	if kind == "" {
		return d.FindItem(name)
	}
	item, ok := d.Get(kind, name)
	if !ok {
		return "", nil, fmt.Errorf(messages.ItemNotFoundInKindFmt, ErrItemNotFound, name, kind.Section())
	}
	return kind, item, nil
}

// EnsureItem resolves name like Resolve, registering it when missing. New
// entries are skills (or kind, when given) with source "auto" and defaultState.
func (d *Document) EnsureItem(name string, kind Kind, defaultState State) (Kind, *Item, bool, error) {
	found, item, err := d.Resolve(name, kind)
	if err == nil {
		return found, item, false, nil
	}
	if !errors.Is(err, ErrItemNotFound) {
		return "", nil, false, err
	}
	if kind == "" {
		kind = KindSkill
	}
	item = &Item{State: defaultState, Source: SourceAuto}
	d.SetItem(kind, name, item)
	return kind, item, true, nil
}

// SetItem stores item under (kind, name), replacing any previous entry.
func (d *Document) SetItem(kind Kind, name string, item *Item) {
	if d.items == nil {
		d.items = make(map[ItemRef]*Item)
		d.index = make(map[string]map[Kind]struct{})
	}
	d.items[ItemRef{Kind: kind, Name: name}] = item
	set, ok := d.index[name]
	if !ok {
		set = make(map[Kind]struct{}, 1)
		d.index[name] = set
	}
	set[kind] = struct{}{}
}

// DeleteItem physically removes an entry. Lifecycle removal uses Remove, which
// only tombstones; this is for rolling back entries a migration created.
func (d *Document) DeleteItem(kind Kind, name string) bool {
	ref := ItemRef{Kind: kind, Name: name}
	if _, ok := d.items[ref]; !ok {
		return false
	}
	delete(d.items, ref)
	if set := d.index[name]; set != nil {
		delete(set, kind)
		if len(set) == 0 {
			delete(d.index, name)
		}
	}
	return true
}

// Names returns the sorted item names in one section.
func (d *Document) Names(kind Kind) []string {
	var names []string
	for ref := range d.items {
		if ref.Kind == kind {
			names = append(names, ref.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Refs returns every item reference in section order, then name order.
func (d *Document) Refs() []ItemRef {
	refs := make([]ItemRef, 0, len(d.items))
	for _, kind := range Kinds {
		for _, name := range d.Names(kind) {
			refs = append(refs, ItemRef{Kind: kind, Name: name})
		}
	}
	return refs
}

// Len returns the number of items across all sections.
func (d *Document) Len() int {
	return len(d.items)
}

// TakenOverIDs returns the taken-over plugin ids in sorted order.
func (d *Document) TakenOverIDs() []string {
	ids := make([]string, 0, len(d.TakenOverPlugins))
	for id := range d.TakenOverPlugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.Version = d.Version
	if d.Extra != nil {
		out.Extra = make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = v
		}
	}
	for ref, item := range d.items {
		out.SetItem(ref.Kind, ref.Name, item.Clone())
	}
	for id, record := range d.TakenOverPlugins {
		copied := *record
		copied.AllComponents = slices.Clone(record.AllComponents)
		out.TakenOverPlugins[id] = &copied
	}
	return out
}

func ambiguityError(name string, kinds []Kind) error {
	sections := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		sections = append(sections, kind.Section())
	}
	return fmt.Errorf(messages.ItemAmbiguousFmt, name, ErrAmbiguousItem, strings.Join(sections, ", "))
}

package manifest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/aymanbagabas/go-udiff"
	"github.com/gofrs/flock"

	"github.com/conn-castle/mycelium/internal/fsutil"
	"github.com/conn-castle/mycelium/internal/messages"
)

// FileName is the manifest file inside a scope directory.
const FileName = "manifest.yaml"

// Store loads and saves the manifest for one scope directory.
// Mutations go through Update, which holds an advisory lock for the whole
// read-modify-write so two processes cannot interleave their writes.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore returns a store rooted at scopeDir. A nil logger discards output.
func NewStore(scopeDir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: scopeDir, log: log}
}

// Dir returns the scope directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Exists reports whether the manifest file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Load reads and validates the manifest. A missing file returns an error
// wrapping ErrManifestNotFound.
func (s *Store) Load() (*Document, error) {
	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(messages.ManifestNotFoundAtFmt, ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf(messages.ManifestReadFailedFmt, path, err)
	}
	doc, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	s.warnUnknownTools(doc)
	return doc, nil
}

// Save writes the manifest atomically, creating the scope directory if needed.
func (s *Store) Save(doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return s.write(data)
}

func (s *Store) write(data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf(messages.ManifestCreateDirFailedFmt, s.dir, err)
	}
	if err := fsutil.WriteFileAtomic(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf(messages.ManifestWriteFailedFmt, s.Path(), err)
	}
	return nil
}

// Init creates an empty manifest when none exists. It reports whether a file was created.
func (s *Store) Init() (bool, error) {
	if s.Exists() {
		return false, nil
	}
	if err := s.Save(NewDocument()); err != nil {
		return false, err
	}
	s.log.Info("created manifest", "path", s.Path())
	return true, nil
}

// Change holds the encoded manifest before and after an Update.
type Change struct {
	Path   string
	Before []byte
	After  []byte
}

// Changed reports whether the update altered the encoded manifest.
func (c Change) Changed() bool {
	return string(c.Before) != string(c.After)
}

// Diff renders a unified diff of the update, or "" when nothing changed.
func (c Change) Diff() string {
	if !c.Changed() {
		return ""
	}
	return udiff.Unified(c.Path+" (before)", c.Path+" (after)", string(c.Before), string(c.After))
}

// Update locks the manifest, loads it, applies fn, and saves the result when fn
// succeeds and the document changed. fn's error is returned unchanged.
func (s *Store) Update(fn func(doc *Document) error) (Change, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Change{}, fmt.Errorf(messages.ManifestCreateDirFailedFmt, s.dir, err)
	}
	lock := flock.New(s.Path() + ".lock")
	if err := lock.Lock(); err != nil {
		return Change{}, fmt.Errorf(messages.ManifestLockFailedFmt, s.Path(), err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	doc, err := s.Load()
	if err != nil {
		return Change{}, err
	}
	before, err := doc.Marshal()
	if err != nil {
		return Change{}, err
	}
	if err := fn(doc); err != nil {
		return Change{}, err
	}
	after, err := doc.Marshal()
	if err != nil {
		return Change{}, err
	}
	change := Change{Path: s.Path(), Before: before, After: after}
	if !change.Changed() {
		return change, nil
	}
	if err := s.write(after); err != nil {
		return Change{}, err
	}
	s.log.Debug("saved manifest", "path", s.Path())
	return change, nil
}

func (s *Store) warnUnknownTools(doc *Document) {
	for _, ref := range doc.Refs() {
		item, _ := doc.Get(ref.Kind, ref.Name)
		for _, list := range [][]string{item.Tools, item.EnabledTools, item.ExcludeTools} {
			for _, tool := range list {
				if !slices.Contains(KnownTools, tool) {
					s.log.Warn(messages.ManifestUnknownToolLog, "item", ref.Name, "type", string(ref.Kind), "tool", tool)
				}
			}
		}
	}
}

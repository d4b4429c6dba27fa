package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/conn-castle/mycelium/internal/manifest"
	"github.com/conn-castle/mycelium/internal/messages"
)

// ErrNoMigration is returned when there is no migration record to clear.
var ErrNoMigration = errors.New(messages.MigrateNoRecord)

// LinkRecord is a symlink the executor created.
type LinkRecord struct {
	Name   string `json:"name"`
	Link   string `json:"link"`
	Target string `json:"target"`
}

// MemoryRecord is a memory file the executor copied.
type MemoryRecord struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Path   string `json:"path"`
}

// MigrationManifest records every action a migration applied, so it can be
// rolled back. Successive executions append to the same record.
type MigrationManifest struct {
	ID              string             `json:"id"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	Skills          []LinkRecord       `json:"skills"`
	Components      []LinkRecord       `json:"components"`
	MCPs            []string           `json:"mcps"`
	Memory          []MemoryRecord     `json:"memory"`
	ManifestEntries []manifest.ItemRef `json:"manifestEntries"`
}

// Empty reports whether the record holds no actions.
func (m MigrationManifest) Empty() bool {
	return m.actions() == 0
}

func (m MigrationManifest) actions() int {
	return len(m.Skills) + len(m.Components) + len(m.MCPs) + len(m.Memory) + len(m.ManifestEntries)
}

func newMigrationManifest(now time.Time) MigrationManifest {
	return MigrationManifest{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

// loadRecord reads the migration record. A missing record wraps ErrNoMigration.
func loadRecord(sys System, path string) (MigrationManifest, error) {
	data, err := sys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MigrationManifest{}, fmt.Errorf(messages.MigrateNoRecordAtFmt, ErrNoMigration, path)
		}
		return MigrationManifest{}, fmt.Errorf(messages.MigrateReadRecordFmt, path, err)
	}
	var record MigrationManifest
	if err := json.Unmarshal(data, &record); err != nil {
		return MigrationManifest{}, fmt.Errorf(messages.MigrateParseRecordFmt, path, err)
	}
	return record, nil
}

func saveRecord(sys System, path string, record MigrationManifest) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf(messages.MigrateWriteRecordFmt, path, err)
	}
	data = append(data, '\n')
	if err := sys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf(messages.MigrateWriteRecordFmt, path, err)
	}
	if err := sys.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.MigrateWriteRecordFmt, path, err)
	}
	return nil
}

// LoadRecord reads the migration record at path from the real filesystem.
func LoadRecord(path string) (MigrationManifest, error) {
	return loadRecord(RealSystem{}, path)
}

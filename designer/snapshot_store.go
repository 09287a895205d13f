package designer

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"promo-designer/models"
)

// SnapshotStore persists the buyer's design objects per
// (product, color, view, print area) tuple as JSON files under a data
// directory. Snapshots never expire; only an explicit save overwrites one.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates the store, making the directory if needed
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (st *SnapshotStore) path(key models.SnapshotKey) string {
	return filepath.Join(st.dir, key.String()+".json")
}

// Save serializes every live user-owned object in surface order and writes
// the snapshot for the tuple. An empty live set still writes an empty
// snapshot, clearing any previous one by overwrite.
func (st *SnapshotStore) Save(key models.SnapshotKey, objects []*models.DesignObject) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		Key:     key,
		SavedAt: time.Now(),
		Entries: []models.SnapshotEntry{},
	}

	for _, obj := range objects {
		if !obj.IsUserContent() {
			continue
		}
		snap.Entries = append(snap.Entries, models.SnapshotEntry{
			Kind:      obj.Kind,
			Text:      obj.Text,
			Font:      obj.Font,
			FontSize:  obj.FontSize,
			Color:     obj.Color,
			Align:     obj.Align,
			SourceRef: obj.SourceRef,
			Width:     obj.Width,
			Height:    obj.Height,
			Transform: obj.Transform,
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	if err := os.WriteFile(st.path(key), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot %s: %w", key, models.ErrPersistence)
	}

	log.Printf("💾 Snapshot saved: key=%s entries=%d", key, len(snap.Entries))
	return snap, nil
}

// Load reads the snapshot for a tuple. Missing snapshots are ErrNotFound.
func (st *SnapshotStore) Load(key models.SnapshotKey) (*models.Snapshot, error) {
	data, err := os.ReadFile(st.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// Restore clears the surface's live user objects (idempotent if none
// exist), then recreates each serialized entry in original order with its
// persisted transform applied verbatim. Returns the number of objects
// applied; a missing snapshot restores nothing and returns 0.
func (st *SnapshotStore) Restore(key models.SnapshotKey, surface *Surface) (int, error) {
	surface.ClearUserObjects()

	snap, err := st.Load(key)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}

	for _, entry := range snap.Entries {
		surface.restoreObject(entry)
	}

	log.Printf("📂 Snapshot restored: key=%s applied=%d", key, len(snap.Entries))
	return len(snap.Entries), nil
}

// Delete removes the snapshot for a tuple, if present
func (st *SnapshotStore) Delete(key models.SnapshotKey) error {
	err := os.Remove(st.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aotnav/aotnav/internal/store"
)

// Source supplies the raw descriptor table the catalog loads from. Two
// variants exist: a static one (built-in table or JSON file) and a
// snapshot one backed by the reflection cache the external metadata
// service refreshes into the store. The catalog is agnostic to which
// backs it.
type Source interface {
	// Load returns the full descriptor table.
	Load() ([]TypeDescriptor, error)
	// Name identifies the source in log output.
	Name() string
}

// ─── Static source ───────────────────────────────────────────────────────────

// StaticSource loads descriptors from a JSON file, or the built-in table
// when no path is configured.
type StaticSource struct {
	// Path of a JSON file holding an array of TypeDescriptors.
	// Empty means the built-in table.
	Path string
}

// Name implements Source.
func (s StaticSource) Name() string {
	if s.Path == "" {
		return "builtin"
	}
	return "file:" + s.Path
}

// Load implements Source.
func (s StaticSource) Load() ([]TypeDescriptor, error) {
	if s.Path == "" {
		return BuiltinTypes(), nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", s.Path, err)
	}
	var descs []TypeDescriptor
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", s.Path, err)
	}
	if len(descs) == 0 {
		return nil, fmt.Errorf("catalog: %s holds no type descriptors", s.Path)
	}
	return descs, nil
}

// ─── Snapshot source ─────────────────────────────────────────────────────────

// SnapshotSource loads the reflection-derived descriptor table that an
// external refresh has cached in the store's metadata side table. A
// missing or stale snapshot is a load error, which makes the catalog
// fall back; it never blocks waiting for a refresh.
type SnapshotSource struct {
	Store  *store.Store
	MaxAge time.Duration
}

// Name implements Source.
func (s SnapshotSource) Name() string {
	return "snapshot"
}

// Load implements Source.
func (s SnapshotSource) Load() ([]TypeDescriptor, error) {
	blob, updated, err := s.Store.GetMetadata(store.MetaCatalogSnapshot)
	if err != nil {
		return nil, fmt.Errorf("catalog: snapshot: %w", err)
	}
	if s.MaxAge > 0 && time.Since(updated) > s.MaxAge {
		return nil, fmt.Errorf("catalog: snapshot stale (updated %s, max age %s)",
			updated.Format(time.RFC3339), s.MaxAge)
	}

	var descs []TypeDescriptor
	if err := json.Unmarshal(blob, &descs); err != nil {
		return nil, fmt.Errorf("catalog: parse snapshot: %w", err)
	}
	if len(descs) == 0 {
		return nil, fmt.Errorf("catalog: snapshot holds no type descriptors")
	}
	return descs, nil
}

// SaveSnapshot caches a freshly reflected descriptor table into the
// store so later processes can load it through a SnapshotSource.
func SaveSnapshot(st *store.Store, descs []TypeDescriptor) error {
	blob, err := json.Marshal(descs)
	if err != nil {
		return fmt.Errorf("catalog: marshal snapshot: %w", err)
	}
	return st.PutMetadata(store.MetaCatalogSnapshot, blob)
}

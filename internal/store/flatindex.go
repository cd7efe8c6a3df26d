package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FlatIndexFile is the filename of the legacy JSON index inside the
// cache directory.
const FlatIndexFile = "object-index.json"

// FlatEntry is the per-object payload of the legacy JSON index.
type FlatEntry struct {
	Type    string `json:"type"`
	Package string `json:"package"`
	Path    string `json:"path"`
}

// FlatIndex is the legacy flat object map kept alongside the SQLite
// store. A few older code paths read it for cheap statistics, so every
// rebuild writes both formats and readers may fall back to this one.
type FlatIndex struct {
	Objects   map[string]FlatEntry `json:"objects"`
	UpdatedAt time.Time            `json:"last_updated"`
}

// NewFlatIndex builds a FlatIndex from a record set. Name collisions
// across packages collapse to the last record seen; the flat format has
// no natural key and is only good for approximate counts.
func NewFlatIndex(recs []ObjectRecord) *FlatIndex {
	idx := &FlatIndex{
		Objects:   make(map[string]FlatEntry, len(recs)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, rec := range recs {
		idx.Objects[rec.Name] = FlatEntry{Type: rec.TypeID, Package: rec.Package, Path: rec.Path}
	}
	return idx
}

// SaveFlatIndex writes the legacy JSON index into the cache directory.
func SaveFlatIndex(cacheDir string, idx *FlatIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal flat index: %w", err)
	}
	path := filepath.Join(cacheDir, FlatIndexFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write flat index: %w", err)
	}
	return nil
}

// LoadFlatIndex reads the legacy JSON index, or ErrNotReady when it does
// not exist yet.
func LoadFlatIndex(cacheDir string) (*FlatIndex, error) {
	data, err := os.ReadFile(filepath.Join(cacheDir, FlatIndexFile))
	if os.IsNotExist(err) {
		return nil, ErrNotReady
	}
	if err != nil {
		return nil, fmt.Errorf("store: read flat index: %w", err)
	}

	var idx FlatIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("store: parse flat index: %w", err)
	}
	if idx.Objects == nil {
		idx.Objects = map[string]FlatEntry{}
	}
	return &idx, nil
}

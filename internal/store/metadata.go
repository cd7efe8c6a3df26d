package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Well-known metadata keys.
const (
	// MetaCatalogSnapshot holds the reflection-derived type catalog blob
	// refreshed from the external metadata service.
	MetaCatalogSnapshot = "catalog_snapshot"
	// MetaObjectTypes holds the cached "all available object types" list.
	MetaObjectTypes = "object_types"
	// MetaLastBuild records when the index was last rebuilt.
	MetaLastBuild = "last_build"
)

// PutMetadata upserts an opaque blob under the given key, stamping it
// with the current time for later staleness checks.
func (s *Store) PutMetadata(key string, value []byte) error {
	return s.withWritable(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES (?, ?, ?)`,
			key, value, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("store: put metadata %s: %w", key, err)
		}
		return nil
	})
}

// GetMetadata returns the blob and its last-updated time for a key, or
// ErrNoMetadata if the key has never been written.
func (s *Store) GetMetadata(key string) ([]byte, time.Time, error) {
	db, err := s.reader()
	if err != nil {
		return nil, time.Time{}, err
	}

	var value []byte
	var updated int64
	err = db.QueryRow(`SELECT value, updated_at FROM metadata WHERE key = ?`, key).
		Scan(&value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoMetadata
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("store: get metadata %s: %w", key, err)
	}
	return value, time.Unix(updated, 0).UTC(), nil
}

// MetadataFresh reports whether the key exists and was updated within
// maxAge. A missing key is simply stale, not an error.
func (s *Store) MetadataFresh(key string, maxAge time.Duration) bool {
	_, updated, err := s.GetMetadata(key)
	if err != nil {
		return false
	}
	return time.Since(updated) <= maxAge
}

// Package store implements the persistent object index for aotnav.
//
// It uses SQLite to hold one row per discovered X++ object, keyed by
// (name, package, type). The store opens read-only for the common query
// workload and briefly reopens writable for inserts and clears, so the
// window where a writer holds the file is as small as possible.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the filename of the SQLite store inside the cache directory.
const DBFile = "objects.db"

// ErrNotReady signals that the backing store does not exist or could not
// be opened. Callers are expected to trigger an index build, not crash.
var ErrNotReady = errors.New("store: object index not ready")

// ErrNoMetadata signals that a metadata key has never been written.
var ErrNoMetadata = errors.New("store: metadata key not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// ObjectRecord is one indexed X++ object. The natural key is
// (Name, Package, TypeID): the same name may legitimately exist in
// multiple packages or under multiple types.
type ObjectRecord struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Package    string    `json:"package"`
	TypeID     string    `json:"type"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size,omitempty"`
}

// Stats holds aggregate index statistics.
type Stats struct {
	TotalObjects  int `json:"total_objects"`
	UniqueNames   int `json:"unique_names"`
	NameConflicts int `json:"name_conflicts"`
	Packages      int `json:"packages"`
	Types         int `json:"types"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed object index.
type Store struct {
	path  string
	ro    *sql.DB
	mu    sync.Mutex // serializes writers and read-handle swaps
	log   *zap.Logger
	hooks storeHooks
}

// storeHooks lets tests inject failures into write paths that cannot
// fail against a healthy database.
type storeHooks struct {
	insert func(stmt *sql.Stmt, rec ObjectRecord) (sql.Result, error)
}

func (s *Store) insertHook(stmt *sql.Stmt, rec ObjectRecord) (sql.Result, error) {
	if s.hooks.insert != nil {
		return s.hooks.insert(stmt, rec)
	}
	return stmt.Exec(rec.Name, rec.Package, rec.TypeID, rec.Path, rec.ModifiedAt.Unix(), rec.Size)
}

// Open opens (or auto-provisions) the store under the given cache
// directory. A missing database file is created with the full schema so a
// fresh checkout can bootstrap itself via an index build; only when the
// file can neither be found nor created does Open report ErrNotReady.
func Open(cacheDir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create cache dir: %w (%w)", err, ErrNotReady)
	}

	s := &Store{path: filepath.Join(cacheDir, DBFile), log: log}

	// Provision the schema through a short-lived writable handle.
	if err := s.withWritable(func(db *sql.DB) error {
		return migrate(db)
	}); err != nil {
		return nil, fmt.Errorf("store: provision schema: %w (%w)", err, ErrNotReady)
	}

	ro, err := openReadOnly(s.path)
	if err != nil {
		return nil, fmt.Errorf("store: open read-only: %w (%w)", err, ErrNotReady)
	}
	s.ro = ro
	return s, nil
}

// Close closes the read-only database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ro == nil {
		return nil
	}
	err := s.ro.Close()
	s.ro = nil
	return err
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}

func openReadOnly(path string) (*sql.DB, error) {
	db, err := openDB("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	return db, nil
}

// withWritable runs fn against a short-lived writable connection.
// Callers never manage the read-only/writable mode switch themselves.
func (s *Store) withWritable(fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := openDB("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("store: reopen writable: %w", err)
	}
	defer db.Close()

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}
	return fn(db)
}

// ─── Schema ──────────────────────────────────────────────────────────────────

func migrate(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS objects (
			name        TEXT    NOT NULL COLLATE NOCASE,
			package     TEXT    NOT NULL,
			type_id     TEXT    NOT NULL,
			path        TEXT    NOT NULL,
			modified_at INTEGER NOT NULL,
			size        INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (name, package, type_id)
		);

		CREATE INDEX IF NOT EXISTS idx_objects_name         ON objects(name COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_objects_type         ON objects(type_id);
		CREATE INDEX IF NOT EXISTS idx_objects_package      ON objects(package);
		CREATE INDEX IF NOT EXISTS idx_objects_type_name    ON objects(type_id, name COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_objects_package_type ON objects(package, type_id);

		CREATE TABLE IF NOT EXISTS metadata (
			key        TEXT    PRIMARY KEY,
			value      BLOB    NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Insert upserts a single record by its natural key.
func (s *Store) Insert(rec ObjectRecord) error {
	return s.withWritable(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT OR REPLACE INTO objects (name, package, type_id, path, modified_at, size)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Name, rec.Package, rec.TypeID, rec.Path, rec.ModifiedAt.Unix(), rec.Size,
		)
		if err != nil {
			return fmt.Errorf("store: insert %s: %w", rec.Name, err)
		}
		return nil
	})
}

// InsertBulk upserts all records inside a single transaction. Rebuilds can
// carry tens of thousands of records, so one transaction is mandatory for
// both performance and atomicity: a mid-batch failure rolls everything back.
func (s *Store) InsertBulk(recs []ObjectRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return s.withWritable(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("store: begin bulk insert: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck

		if err := s.insertAll(tx, recs); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit bulk insert: %w", err)
		}
		return nil
	})
}

// Replace swaps the entire object set for the given records in one
// transaction. A concurrent reader sees either the old rows or the new
// ones, never the gap between delete and insert. An empty batch leaves
// the store empty.
func (s *Store) Replace(recs []ObjectRecord) error {
	return s.replaceWhere(``, nil, recs)
}

// ReplaceType swaps just one type's rows for the given records in one
// transaction, the common incremental-update case.
func (s *Store) ReplaceType(typeID string, recs []ObjectRecord) error {
	return s.replaceWhere(`WHERE type_id = ?`, []any{typeID}, recs)
}

func (s *Store) replaceWhere(where string, args []any, recs []ObjectRecord) error {
	return s.withWritable(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("store: begin replace: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck

		if _, err := tx.Exec(`DELETE FROM objects `+where, args...); err != nil {
			return fmt.Errorf("store: replace delete: %w", err)
		}
		if err := s.insertAll(tx, recs); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit replace: %w", err)
		}
		return nil
	})
}

func (s *Store) insertAll(tx *sql.Tx, recs []ObjectRecord) error {
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO objects (name, package, type_id, path, modified_at, size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("store: prepare bulk insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := s.insertHook(stmt, rec); err != nil {
			return fmt.Errorf("store: bulk insert %s: %w", rec.Name, err)
		}
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

func (s *Store) reader() (*sql.DB, error) {
	if s.ro == nil {
		return nil, ErrNotReady
	}
	return s.ro, nil
}

// Count returns the total number of indexed objects.
func (s *Store) Count() (int, error) {
	db, err := s.reader()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// HasObjects reports whether at least one record has been indexed.
func (s *Store) HasObjects() bool {
	n, err := s.Count()
	return err == nil && n > 0
}

// ByName returns every record whose name matches exactly
// (case-insensitively), ordered by package then type.
func (s *Store) ByName(name string) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE name = ?
		 ORDER BY package, type_id`, name)
}

// ByNameAndPackage returns records matching both name and owning package.
func (s *Store) ByNameAndPackage(name, pkg string) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE name = ? AND package = ?
		 ORDER BY type_id`, name, pkg)
}

// LikeName returns records whose name matches the given SQL LIKE
// expression (case-insensitive, backslash escape), shortest names first.
func (s *Store) LikeName(likeExpr string, limit int) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE name LIKE ? ESCAPE '\'
		 ORDER BY length(name), name LIMIT ?`, likeExpr, limit)
}

// LikeNameAndType is LikeName pre-filtered by object type. Provided as a
// distinct path because (pattern, type) is the dominant query shape and
// it rides the (type_id, name) composite index.
func (s *Store) LikeNameAndType(likeExpr, typeID string, limit int) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE type_id = ? AND name LIKE ? ESCAPE '\'
		 ORDER BY length(name), name LIMIT ?`, typeID, likeExpr, limit)
}

// ByPackage lists a package's records ordered by type then name.
func (s *Store) ByPackage(pkg string) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE package = ?
		 ORDER BY type_id, name`, pkg)
}

// ByType lists a type's records ordered by name.
func (s *Store) ByType(typeID string) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE type_id = ?
		 ORDER BY name`, typeID)
}

// ByPackageAndType lists records for one (package, type) pair by name.
func (s *Store) ByPackageAndType(pkg, typeID string) ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects WHERE package = ? AND type_id = ?
		 ORDER BY name`, pkg, typeID)
}

// All returns every record ordered by name, package, type. Used to
// refresh the legacy flat index after a rebuild.
func (s *Store) All() ([]ObjectRecord, error) {
	return s.queryRecords(
		`SELECT name, package, type_id, path, modified_at, size
		 FROM objects ORDER BY name, package, type_id`)
}

// DistinctTypes returns the sorted set of type identifiers present in the
// index.
func (s *Store) DistinctTypes() ([]string, error) {
	db, err := s.reader()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT DISTINCT type_id FROM objects ORDER BY type_id`)
	if err != nil {
		return nil, fmt.Errorf("store: distinct types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// Stats returns aggregate counts over the index. The conflict count is
// derived: total objects minus distinct names.
func (s *Store) Stats() (Stats, error) {
	db, err := s.reader()
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	row := db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(DISTINCT name),
		       COUNT(DISTINCT package),
		       COUNT(DISTINCT type_id)
		FROM objects`)
	if err := row.Scan(&st.TotalObjects, &st.UniqueNames, &st.Packages, &st.Types); err != nil {
		return Stats{}, fmt.Errorf("store: stats: %w", err)
	}
	st.NameConflicts = st.TotalObjects - st.UniqueNames
	return st, nil
}

func (s *Store) queryRecords(query string, args ...any) ([]ObjectRecord, error) {
	db, err := s.reader()
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var recs []ObjectRecord
	for rows.Next() {
		var rec ObjectRecord
		var mtime int64
		if err := rows.Scan(&rec.Name, &rec.Package, &rec.TypeID, &rec.Path, &mtime, &rec.Size); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		rec.ModifiedAt = time.Unix(mtime, 0).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

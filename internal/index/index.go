// Package index turns discovered AOT folders into persisted object
// records.
//
// Builds are serialized through a file lock so two processes cannot
// rebuild the same store concurrently; lookups never take the lock.
// Per-file failures are counted per reason and never abort a batch, and
// persistence happens once at the end of a pass inside a single store
// transaction.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/aotnav/aotnav/internal/catalog"
	"github.com/aotnav/aotnav/internal/discovery"
	"github.com/aotnav/aotnav/internal/store"
)

const (
	// maxFileSize guards against indexing files whose content may later
	// be read whole; the index itself stores only metadata.
	maxFileSize = 10 << 20

	// maxDepth bounds recursion inside a matched type folder; sub-object
	// structures nest at most a couple of levels.
	maxDepth = 3

	lockFile    = "index.lock"
	lockTimeout = 30 * time.Second
)

// ErrUnknownType rejects a targeted build for a type the catalog does
// not know. This is a usage error the caller should fix, not tolerate.
var ErrUnknownType = errors.New("index: unknown object type")

// Skip reasons reported in BuildResult. Exposed per reason so oversized
// or unclassifiable files are diagnosable instead of silently dropped.
const (
	SkipOversize    = "oversize"
	SkipUnknownType = "unknown_type"
	SkipStatError   = "stat_error"
	SkipReadError   = "read_error"
)

// BuildResult reports what a build pass did.
type BuildResult struct {
	Indexed     int            `json:"indexed"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	NoOp        bool           `json:"no_op,omitempty"`
}

func (r *BuildResult) skip(reason string) {
	if r.SkipReasons == nil {
		r.SkipReasons = map[string]int{}
	}
	r.SkipReasons[reason]++
	r.Skipped++
}

// Indexer builds the persistent object index from the filesystem.
type Indexer struct {
	root     string
	cacheDir string
	cat      *catalog.Catalog
	disc     *discovery.Discoverer
	st       *store.Store
	log      *zap.Logger
}

// New creates an Indexer over the codebase root.
func New(root, cacheDir string, cat *catalog.Catalog, disc *discovery.Discoverer, st *store.Store, log *zap.Logger) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{root: root, cacheDir: cacheDir, cat: cat, disc: disc, st: st, log: log}
}

// BuildFull indexes every object type. When an index already exists and
// force is false it returns immediately as a no-op; this is a cheap
// guard, not a freshness check.
func (ix *Indexer) BuildFull(force bool) (BuildResult, error) {
	var res BuildResult
	if !force && ix.st.HasObjects() {
		res.NoOp = true
		return res, nil
	}

	unlock, err := ix.acquireLock()
	if err != nil {
		return res, err
	}
	defer unlock()

	if force {
		ix.disc.Invalidate()
	}

	matches, err := ix.disc.DiscoverAll()
	if err != nil {
		return res, fmt.Errorf("index: discover folders: %w", err)
	}

	var records []store.ObjectRecord
	for _, m := range matches {
		records = append(records, ix.collectFolder(m, &res)...)
	}

	if err := ix.persist(records, ix.st.Replace); err != nil {
		return res, err
	}
	res.Indexed = len(records)

	ix.log.Info("index: full build complete",
		zap.Int("indexed", res.Indexed), zap.Int("skipped", res.Skipped))
	return res, nil
}

// BuildByType indexes only one object type. An unknown type is rejected
// immediately, naming the valid set, with no index changes. force=false
// replaces just that type's records (the common incremental update);
// force=true clears the entire store first.
func (ix *Indexer) BuildByType(typeID string, force bool) (BuildResult, error) {
	var res BuildResult

	typeID = strings.ToUpper(typeID)
	if !ix.cat.Has(typeID) {
		return res, fmt.Errorf("%w: %q (valid: %s)",
			ErrUnknownType, typeID, strings.Join(ix.cat.AllTypes(), ", "))
	}

	unlock, err := ix.acquireLock()
	if err != nil {
		return res, err
	}
	defer unlock()

	if force {
		ix.disc.Invalidate()
	}

	matches, err := ix.disc.DiscoverType(typeID)
	if err != nil {
		return res, fmt.Errorf("index: discover %s folders: %w", typeID, err)
	}

	var records []store.ObjectRecord
	for _, m := range matches {
		records = append(records, ix.collectFolder(m, &res)...)
	}

	write := func(recs []store.ObjectRecord) error { return ix.st.ReplaceType(typeID, recs) }
	if force {
		write = ix.st.Replace
	}
	if err := ix.persist(records, write); err != nil {
		return res, err
	}
	res.Indexed = len(records)

	ix.log.Info("index: type build complete", zap.String("type", typeID),
		zap.Int("indexed", res.Indexed), zap.Int("skipped", res.Skipped))
	return res, nil
}

// CacheObjectTypes writes the catalog's type list into the store's
// metadata table so callers can render a type picker without re-deriving
// it from the catalog.
func (ix *Indexer) CacheObjectTypes() error {
	blob, err := json.Marshal(ix.cat.AllTypes())
	if err != nil {
		return fmt.Errorf("index: marshal type list: %w", err)
	}
	return ix.st.PutMetadata(store.MetaObjectTypes, blob)
}

// ─── Internals ───────────────────────────────────────────────────────────────

func (ix *Indexer) acquireLock() (func(), error) {
	if err := os.MkdirAll(ix.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("index: create cache dir: %w", err)
	}
	l := flock.New(filepath.Join(ix.cacheDir, lockFile))
	deadline := time.Now().Add(lockTimeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("index: acquire build lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("index: another build is in progress (lock: %s)", l.Path())
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// collectFolder walks one matched type folder, bounded to maxDepth, and
// returns a record per qualifying file. Failures are counted, never
// propagated.
func (ix *Indexer) collectFolder(m discovery.FolderMatch, res *BuildResult) []store.ObjectRecord {
	return ix.collectDir(m, m.Path, 0, res)
}

func (ix *Indexer) collectDir(m discovery.FolderMatch, dir string, depth int, res *BuildResult) []store.ObjectRecord {
	if depth > maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		ix.log.Warn("index: unreadable directory", zap.String("dir", dir), zap.Error(err))
		res.skip(SkipReadError)
		return nil
	}

	allowed := ix.cat.AllExtensions()
	var records []store.ObjectRecord
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			records = append(records, ix.collectDir(m, full, depth+1, res)...)
			continue
		}
		if !extensionQualifies(entry.Name(), allowed) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			ix.log.Warn("index: stat failed", zap.String("file", full), zap.Error(err))
			res.skip(SkipStatError)
			continue
		}
		if info.Size() > maxFileSize {
			ix.log.Debug("index: file over size limit", zap.String("file", full), zap.Int64("size", info.Size()))
			res.skip(SkipOversize)
			continue
		}

		rel, err := filepath.Rel(ix.root, full)
		if err != nil {
			rel = full
		}
		rel = filepath.ToSlash(rel)

		typeID := ix.cat.TypeForPath(rel)
		if typeID == catalog.UnknownType {
			res.skip(SkipUnknownType)
			continue
		}

		records = append(records, store.ObjectRecord{
			Name:       objectName(entry.Name()),
			Path:       rel,
			Package:    m.Package,
			TypeID:     typeID,
			ModifiedAt: info.ModTime().UTC(),
			Size:       info.Size(),
		})
	}
	return records
}

// persist hands the batch to the given store write (a single-transaction
// swap, so readers never observe the index mid-replace), then refreshes
// the legacy flat JSON index and the cached type list and stamps the
// build time.
func (ix *Indexer) persist(records []store.ObjectRecord, write func([]store.ObjectRecord) error) error {
	if err := write(records); err != nil {
		return err
	}

	all, err := ix.st.All()
	if err != nil {
		ix.log.Warn("index: flat index refresh skipped", zap.Error(err))
	} else if err := store.SaveFlatIndex(ix.cacheDir, store.NewFlatIndex(all)); err != nil {
		ix.log.Warn("index: flat index write failed", zap.Error(err))
	}

	if err := ix.CacheObjectTypes(); err != nil {
		ix.log.Warn("index: type list cache failed", zap.Error(err))
	}
	if err := ix.st.PutMetadata(store.MetaLastBuild, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		ix.log.Warn("index: build stamp failed", zap.Error(err))
	}
	return nil
}

func extensionQualifies(name string, allowed []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range allowed {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// objectName strips the metadata extension(s) from a filename:
// "CustTable.xml" -> "CustTable".
func objectName(file string) string {
	if i := strings.IndexByte(file, '.'); i > 0 {
		return file[:i]
	}
	return file
}

// Package discovery locates object-bearing AOT folders inside a layered
// package tree without walking the whole codebase.
//
// D365 packages conventionally nest a same-named subdirectory
// (Package/Package/AxClass/...); a flatter single-level layout is
// tolerated as a fallback. Results are cached per scope until a rebuild
// invalidates them.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aotnav/aotnav/internal/catalog"
)

// FolderMatch is one folder believed to hold objects of a single type.
// Matches are ephemeral: produced here, consumed by the indexer, never
// persisted.
type FolderMatch struct {
	Path    string // absolute path of the type folder
	Package string // owning top-level package
	TypeID  string
}

// scope keys the discovery cache: either one target type or everything.
type scope struct {
	all    bool
	typeID string
}

func allScope() scope           { return scope{all: true} }
func typeScope(id string) scope { return scope{typeID: strings.ToUpper(id)} }

// excludedDirs are top-level directory names that are never packages.
var excludedDirs = map[string]bool{
	"bin":         true,
	"obj":         true,
	"Descriptor":  true,
	"XppMetadata": true,
	"BuildLogs":   true,
	"temp":        true,
}

// Discoverer walks a codebase root for object folders, guided by the
// catalog's folder patterns.
type Discoverer struct {
	root string
	cat  *catalog.Catalog
	log  *zap.Logger

	mu    sync.Mutex
	cache map[scope][]FolderMatch
}

// New creates a Discoverer over the given codebase root.
func New(root string, cat *catalog.Catalog, log *zap.Logger) *Discoverer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discoverer{
		root:  root,
		cat:   cat,
		log:   log,
		cache: map[scope][]FolderMatch{},
	}
}

// DiscoverAll returns every object-bearing folder under the root.
func (d *Discoverer) DiscoverAll() ([]FolderMatch, error) {
	return d.discover(allScope())
}

// DiscoverType returns only the folders holding objects of one type.
func (d *Discoverer) DiscoverType(typeID string) ([]FolderMatch, error) {
	return d.discover(typeScope(typeID))
}

// Invalidate drops the discovery cache. Called on forced rebuilds.
func (d *Discoverer) Invalidate() {
	d.mu.Lock()
	d.cache = map[scope][]FolderMatch{}
	d.mu.Unlock()
}

func (d *Discoverer) discover(sc scope) ([]FolderMatch, error) {
	d.mu.Lock()
	if cached, ok := d.cache[sc]; ok {
		d.mu.Unlock()
		return cached, nil
	}
	d.mu.Unlock()

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("discovery: read codebase root %s: %w", d.root, err)
	}

	var matches []FolderMatch
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || excludedDirs[name] {
			continue
		}

		pkgMatches, err := d.scanPackage(name, sc)
		if err != nil {
			// One inaccessible package never aborts the whole walk.
			d.log.Warn("discovery: skipping package", zap.String("package", name), zap.Error(err))
			continue
		}
		matches = append(matches, pkgMatches...)
	}

	d.mu.Lock()
	d.cache[sc] = matches
	d.mu.Unlock()
	return matches, nil
}

// scanPackage probes the double-nested form and falls back to the flat
// layout, then matches immediate subdirectories against the catalog.
func (d *Discoverer) scanPackage(pkg string, sc scope) ([]FolderMatch, error) {
	scanRoot := filepath.Join(d.root, pkg, pkg)
	if fi, err := os.Stat(scanRoot); err != nil || !fi.IsDir() {
		scanRoot = filepath.Join(d.root, pkg)
	}

	entries, err := os.ReadDir(scanRoot)
	if err != nil {
		return nil, fmt.Errorf("discovery: read %s: %w", scanRoot, err)
	}

	var matches []FolderMatch
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := d.cat.TypeForFolderName(entry.Name())
		if id == catalog.UnknownType {
			continue
		}
		if !sc.all && id != sc.typeID {
			continue
		}
		matches = append(matches, FolderMatch{
			Path:    filepath.Join(scanRoot, entry.Name()),
			Package: pkg,
			TypeID:  id,
		})
	}
	return matches, nil
}

// Package catalog holds the authoritative mapping from AOT folder-name
// patterns to X++ object types.
//
// The catalog is loaded wholesale from a Source (a built-in table, a
// JSON file, or a reflection snapshot cached in the store) and kept in
// memory as the single source of truth for what folder names mean. A
// load failure degrades to a minimal built-in set rather than disabling
// the system.
package catalog

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Catalog is the in-memory type table. It is safe for concurrent use;
// Load replaces the whole table and clears derived caches.
type Catalog struct {
	mu     sync.RWMutex
	source Source
	log    *zap.Logger

	types       map[string]TypeDescriptor
	order       []string          // sorted type ids
	folderCache map[string]string // folder name -> resolved type id
}

// New creates an empty catalog bound to a source. Call Load before use;
// an unloaded catalog answers every lookup with UnknownType and empty
// sets, so discovery and indexing return empty results instead of
// failing.
func New(source Source, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		source:      source,
		log:         log,
		types:       map[string]TypeDescriptor{},
		folderCache: map[string]string{},
	}
}

// Load fetches descriptors from the source and replaces the in-memory
// table. Load cannot fail: on source failure the minimal fallback set is
// installed so the most common lookups keep working. Descriptors with a
// duplicate id or no patterns are dropped with a warning.
func (c *Catalog) Load() {
	descs, err := c.source.Load()
	if err != nil {
		c.log.Warn("catalog: source load failed, using fallback types",
			zap.String("source", c.source.Name()), zap.Error(err))
		descs = FallbackTypes()
	}

	types := make(map[string]TypeDescriptor, len(descs))
	for _, d := range descs {
		id := strings.ToUpper(strings.TrimSpace(d.TypeID))
		if id == "" || len(d.FolderPatterns) == 0 {
			c.log.Warn("catalog: dropping invalid descriptor", zap.String("type", d.TypeID))
			continue
		}
		if _, dup := types[id]; dup {
			c.log.Warn("catalog: dropping duplicate type id", zap.String("type", id))
			continue
		}
		d.TypeID = id
		types[id] = d
	}

	order := make([]string, 0, len(types))
	for id := range types {
		order = append(order, id)
	}
	sort.Strings(order)

	c.mu.Lock()
	c.types = types
	c.order = order
	c.folderCache = map[string]string{} // derived from the old table
	c.mu.Unlock()

	c.log.Debug("catalog: loaded", zap.String("source", c.source.Name()), zap.Int("types", len(types)))
}

// AllTypes returns the sorted list of known type identifiers.
func (c *Catalog) AllTypes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether the type id is known to the catalog.
func (c *Catalog) Has(typeID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.types[strings.ToUpper(typeID)]
	return ok
}

// Descriptor returns the descriptor for a type id.
func (c *Catalog) Descriptor(typeID string) (TypeDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.types[strings.ToUpper(typeID)]
	return d, ok
}

// FoldersForType returns the configured folder patterns for a type,
// used by the discoverer to narrow its walk.
func (c *Catalog) FoldersForType(typeID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.types[strings.ToUpper(typeID)]
	if !ok {
		return nil
	}
	out := make([]string, len(d.FolderPatterns))
	copy(out, d.FolderPatterns)
	return out
}

// AllExtensions returns the union of every type's file extensions,
// lowercased, as the indexer's file allow-list.
func (c *Catalog) AllExtensions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for _, d := range c.types {
		for _, ext := range d.FileExtensions {
			ext = strings.ToLower(ext)
			if !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Categories groups the known type ids by display category.
func (c *Catalog) Categories() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := map[string][]string{}
	for _, id := range c.order {
		cat := c.types[id].Category
		out[cat] = append(out[cat], id)
	}
	return out
}

// TypeForFolderName resolves a folder name to a type id, or UnknownType
// when no pattern matches. A pattern matches when the folder name equals
// it or starts with it (case-insensitive). When several types match, the
// longest pattern wins; ties break to the lexicographically smaller type
// id so resolution is deterministic.
func (c *Catalog) TypeForFolderName(name string) string {
	c.mu.RLock()
	if id, ok := c.folderCache[name]; ok {
		c.mu.RUnlock()
		return id
	}
	c.mu.RUnlock()

	best := UnknownType
	bestLen := -1

	c.mu.RLock()
	for _, id := range c.order {
		for _, pat := range c.types[id].FolderPatterns {
			if !matchFolder(name, pat) {
				continue
			}
			if len(pat) > bestLen {
				best = id
				bestLen = len(pat)
			}
		}
	}
	c.mu.RUnlock()

	c.mu.Lock()
	c.folderCache[name] = best
	c.mu.Unlock()
	return best
}

// TypeForPath resolves a file path to a type id by scanning its folder
// segments from the file upward. When the matched type declares file
// extensions and the file's extension is not among them, the result
// reverts to UnknownType.
func (c *Catalog) TypeForPath(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	if len(segments) < 2 {
		return UnknownType
	}

	file := segments[len(segments)-1]
	for i := len(segments) - 2; i >= 0; i-- {
		id := c.TypeForFolderName(segments[i])
		if id == UnknownType {
			continue
		}
		if !c.extensionAllowed(id, file) {
			return UnknownType
		}
		return id
	}
	return UnknownType
}

func (c *Catalog) extensionAllowed(typeID, file string) bool {
	d, ok := c.Descriptor(typeID)
	if !ok || len(d.FileExtensions) == 0 {
		return true
	}
	lower := strings.ToLower(file)
	for _, ext := range d.FileExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func matchFolder(name, pattern string) bool {
	if len(name) < len(pattern) {
		return false
	}
	return strings.EqualFold(name[:len(pattern)], pattern)
}

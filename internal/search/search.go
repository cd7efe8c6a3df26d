// Package search provides the content-search fallback: when the index's
// name-based results are sparse, file contents are scanned line by line
// for a literal term.
//
// The filesystem walk is expensive, so results are cached for a short
// TTL per (term, path, extensions, limit) tuple.
package search

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aotnav/aotnav/internal/query"
)

const (
	// fallbackThreshold is the minimum number of index hits below which
	// the filesystem scan kicks in.
	fallbackThreshold = 3

	contextLines = 2
	cacheTTL     = 30 * time.Second

	// maxScanSize bounds how much of a single file the scanner reads.
	maxScanSize = 2 << 20

	defaultLimit = 20
)

// Result is one search hit: either an indexed object matched by name or
// a content hit inside a file.
type Result struct {
	Kind    string   `json:"kind"` // "object" or "file"
	Name    string   `json:"name,omitempty"`
	Path    string   `json:"path"`
	Package string   `json:"package,omitempty"`
	TypeID  string   `json:"type,omitempty"`
	Line    int      `json:"line,omitempty"` // 1-based, file results only
	Text    string   `json:"text,omitempty"`
	Context []string `json:"context,omitempty"`
}

// Options narrows a content search.
type Options struct {
	Path       string   // subpath under the codebase root, empty for all
	Extensions []string // file allow-list, defaults to .xml
	Limit      int
}

type cacheKey struct {
	term  string
	path  string
	exts  string
	limit int
}

type cacheEntry struct {
	results []Result
	expires time.Time
}

// Searcher runs index-first, filesystem-fallback content searches.
type Searcher struct {
	root string
	q    *query.Service
	log  *zap.Logger

	// now is a field to allow test injection of the clock.
	now func() time.Time

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// New creates a Searcher over the codebase root.
func New(root string, q *query.Service, log *zap.Logger) *Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Searcher{
		root:  root,
		q:     q,
		log:   log,
		now:   time.Now,
		cache: map[cacheKey]cacheEntry{},
	}
}

// Search looks the term up in the index first and falls back to a
// content scan only when fewer than three objects matched. Object
// results always precede file results, package priority breaking ties.
func (s *Searcher) Search(term string, opts Options) []Result {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".xml"}
	}

	key := cacheKey{
		term:  strings.ToLower(term),
		path:  opts.Path,
		exts:  strings.ToLower(strings.Join(opts.Extensions, ",")),
		limit: opts.Limit,
	}
	s.mu.Lock()
	if e, ok := s.cache[key]; ok && s.now().Before(e.expires) {
		s.mu.Unlock()
		return append([]Result(nil), e.results...)
	}
	s.mu.Unlock()

	objects := s.objectResults(term)
	var files []Result
	if len(objects) < fallbackThreshold {
		files = s.scanFiles(term, opts)
	}

	results := append(objects, files...)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{results: results, expires: s.now().Add(cacheTTL)}
	s.mu.Unlock()
	return results
}

// objectResults maps index matches to object results ordered by package
// priority then name.
func (s *Searcher) objectResults(term string) []Result {
	recs := s.q.SearchByPattern(term)
	results := make([]Result, 0, len(recs))
	for _, rec := range recs {
		results = append(results, Result{
			Kind:    "object",
			Name:    rec.Name,
			Path:    rec.Path,
			Package: rec.Package,
			TypeID:  rec.TypeID,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := packagePriority(results[i].Package), packagePriority(results[j].Package)
		if pi != pj {
			return pi < pj
		}
		return results[i].Name < results[j].Name
	})
	return results
}

// scanFiles walks the allowed files under the search path and collects
// case-insensitive line matches with surrounding context. Unreadable
// files are skipped with a debug line.
func (s *Searcher) scanFiles(term string, opts Options) []Result {
	root := s.root
	if opts.Path != "" {
		root = filepath.Join(s.root, filepath.FromSlash(opts.Path))
	}
	lowTerm := strings.ToLower(term)

	var results []Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Debug("search: walk error", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if len(results) >= opts.Limit {
			return fs.SkipAll
		}
		if !hasExtension(d.Name(), opts.Extensions) {
			return nil
		}

		results = append(results, s.scanFile(path, lowTerm, opts.Limit-len(results))...)
		return nil
	})
	if err != nil {
		s.log.Warn("search: content scan failed", zap.String("root", root), zap.Error(err))
	}
	return results
}

func (s *Searcher) scanFile(path, lowTerm string, budget int) []Result {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxScanSize {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Debug("search: unreadable file", zap.String("file", path), zap.Error(err))
		return nil
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	lines := strings.Split(string(data), "\n")
	var results []Result
	for i, line := range lines {
		if len(results) >= budget {
			break
		}
		if !strings.Contains(strings.ToLower(line), lowTerm) {
			continue
		}
		results = append(results, Result{
			Kind:    "file",
			Path:    rel,
			Line:    i + 1,
			Text:    strings.TrimRight(line, "\r"),
			Context: contextAround(lines, i),
		})
	}
	return results
}

// contextAround returns the matching line with up to contextLines lines
// on each side.
func contextAround(lines []string, i int) []string {
	lo := i - contextLines
	if lo < 0 {
		lo = 0
	}
	hi := i + contextLines + 1
	if hi > len(lines) {
		hi = len(lines)
	}
	out := make([]string, 0, hi-lo)
	for _, l := range lines[lo:hi] {
		out = append(out, strings.TrimRight(l, "\r"))
	}
	return out
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// standardPackages rank ahead of custom models when merging results.
var standardPackages = map[string]int{
	"ApplicationSuite":      0,
	"ApplicationFoundation": 1,
	"ApplicationPlatform":   2,
	"ApplicationCommon":     3,
}

func packagePriority(pkg string) int {
	if p, ok := standardPackages[pkg]; ok {
		return p
	}
	return len(standardPackages)
}

// String renders a result for plain-text tool output.
func (r Result) String() string {
	if r.Kind == "object" {
		return fmt.Sprintf("%s (%s) in %s — %s", r.Name, r.TypeID, r.Package, r.Path)
	}
	return fmt.Sprintf("%s:%d: %s", r.Path, r.Line, strings.TrimSpace(r.Text))
}

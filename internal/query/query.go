// Package query answers name, pattern, type, and package lookups
// against the object store.
//
// Query failures never propagate to the tool layer: every method
// degrades to an empty result and a log line, so a single bad query or
// a missing store cannot crash a caller. The first-run "store not ready"
// case surfaces the same way and callers translate it into guidance.
package query

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/aotnav/aotnav/internal/store"
)

// MaxPatternResults caps pattern searches to bound response size.
const MaxPatternResults = 50

// Service runs lookups against the persistent store.
type Service struct {
	st  *store.Store
	log *zap.Logger
}

// New creates a lookup service.
func New(st *store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{st: st, log: log}
}

// Resolution is the outcome of resolving a possibly ambiguous name.
// Ambiguous is true whenever more than one match existed, regardless of
// whether a package preference picked a winner.
type Resolution struct {
	Best         *store.ObjectRecord  `json:"best,omitempty"`
	Alternatives []store.ObjectRecord `json:"alternatives,omitempty"`
	Ambiguous    bool                 `json:"ambiguous"`
}

// FindByName returns every record matching the name exactly, ordered by
// package then type. Callers resolve ambiguity themselves or via Resolve.
func (s *Service) FindByName(name string) []store.ObjectRecord {
	recs, err := s.st.ByName(name)
	if err != nil {
		s.log.Warn("query: find by name failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	return recs
}

// FindByNameAndPackage returns records matching both name and package.
func (s *Service) FindByNameAndPackage(name, pkg string) []store.ObjectRecord {
	recs, err := s.st.ByNameAndPackage(name, pkg)
	if err != nil {
		s.log.Warn("query: find by name and package failed",
			zap.String("name", name), zap.String("package", pkg), zap.Error(err))
		return nil
	}
	return recs
}

// Resolve picks a best match for a name. With multiple matches, a record
// from preferredPackage wins when one exists; otherwise the first match
// in the default name/package/type ordering does. Non-chosen matches are
// returned as alternatives.
func (s *Service) Resolve(name, preferredPackage string) Resolution {
	matches := s.FindByName(name)
	switch len(matches) {
	case 0:
		return Resolution{}
	case 1:
		return Resolution{Best: &matches[0]}
	}

	best := 0
	if preferredPackage != "" {
		for i, m := range matches {
			if strings.EqualFold(m.Package, preferredPackage) {
				best = i
				break
			}
		}
	}

	alternatives := make([]store.ObjectRecord, 0, len(matches)-1)
	for i, m := range matches {
		if i != best {
			alternatives = append(alternatives, m)
		}
	}
	return Resolution{Best: &matches[best], Alternatives: alternatives, Ambiguous: true}
}

// SearchByPattern runs a wildcard search. `*` matches any run of
// characters and `?` a single character; a pattern without wildcards
// matches as a substring. Exact-name matches rank first, then shorter
// names, then alphabetical, capped at MaxPatternResults.
func (s *Service) SearchByPattern(pattern string) []store.ObjectRecord {
	recs, err := s.st.LikeName(translateLike(pattern), MaxPatternResults)
	if err != nil {
		s.log.Warn("query: pattern search failed", zap.String("pattern", pattern), zap.Error(err))
		return nil
	}
	rank(pattern, recs)
	return recs
}

// SearchByPatternAndType is SearchByPattern pre-filtered by object type,
// the dominant real-world query shape.
func (s *Service) SearchByPatternAndType(pattern, typeID string) []store.ObjectRecord {
	recs, err := s.st.LikeNameAndType(translateLike(pattern), strings.ToUpper(typeID), MaxPatternResults)
	if err != nil {
		s.log.Warn("query: typed pattern search failed",
			zap.String("pattern", pattern), zap.String("type", typeID), zap.Error(err))
		return nil
	}
	rank(pattern, recs)
	return recs
}

// ListByModel lists a package's objects ordered by type then name.
func (s *Service) ListByModel(pkg string) []store.ObjectRecord {
	recs, err := s.st.ByPackage(pkg)
	if err != nil {
		s.log.Warn("query: list by model failed", zap.String("package", pkg), zap.Error(err))
		return nil
	}
	return recs
}

// ListByType lists a type's objects ordered by name.
func (s *Service) ListByType(typeID string) []store.ObjectRecord {
	recs, err := s.st.ByType(strings.ToUpper(typeID))
	if err != nil {
		s.log.Warn("query: list by type failed", zap.String("type", typeID), zap.Error(err))
		return nil
	}
	return recs
}

// ListByModelAndType lists objects for one (package, type) pair by name.
func (s *Service) ListByModelAndType(pkg, typeID string) []store.ObjectRecord {
	recs, err := s.st.ByPackageAndType(pkg, strings.ToUpper(typeID))
	if err != nil {
		s.log.Warn("query: list by model and type failed",
			zap.String("package", pkg), zap.String("type", typeID), zap.Error(err))
		return nil
	}
	return recs
}

// Stats returns aggregate index statistics, zero-valued on failure.
func (s *Service) Stats() store.Stats {
	st, err := s.st.Stats()
	if err != nil {
		s.log.Warn("query: stats failed", zap.Error(err))
		return store.Stats{}
	}
	return st
}

// ─── Pattern translation and ranking ─────────────────────────────────────────

// translateLike converts a `*`/`?` wildcard pattern into a SQL LIKE
// expression, escaping LIKE's own metacharacters. A pattern with no
// wildcards becomes a substring match.
func translateLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	if !strings.ContainsAny(pattern, "*?") {
		return "%" + b.String() + "%"
	}
	return b.String()
}

// rank orders results exact-name-first, then by increasing name length,
// then alphabetically.
func rank(pattern string, recs []store.ObjectRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		ei := strings.EqualFold(recs[i].Name, pattern)
		ej := strings.EqualFold(recs[j].Name, pattern)
		if ei != ej {
			return ei
		}
		if len(recs[i].Name) != len(recs[j].Name) {
			return len(recs[i].Name) < len(recs[j].Name)
		}
		return strings.ToLower(recs[i].Name) < strings.ToLower(recs[j].Name)
	})
}

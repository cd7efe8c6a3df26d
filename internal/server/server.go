// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on them. No business logic
// lives here — only wiring.
package server

import (
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/aotnav/aotnav/internal/catalog"
	"github.com/aotnav/aotnav/internal/config"
	"github.com/aotnav/aotnav/internal/discovery"
	"github.com/aotnav/aotnav/internal/index"
	"github.com/aotnav/aotnav/internal/logging"
	"github.com/aotnav/aotnav/internal/prompts"
	"github.com/aotnav/aotnav/internal/query"
	"github.com/aotnav/aotnav/internal/resources"
	"github.com/aotnav/aotnav/internal/search"
	"github.com/aotnav/aotnav/internal/store"
	"github.com/aotnav/aotnav/internal/xpptools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the store's database connection
// and flushes the logger; it must be called on shutdown (typically via
// defer) and is always non-nil, even when store init failed.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	log := logging.New(cfg.LogLevel, cfg.LogOutput)

	s := server.NewMCPServer(
		"aotnav",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Prompts (work without any backing state) ---

	explorePrompt := prompts.NewExplorePrompt()
	s.AddPrompt(explorePrompt.Definition(), explorePrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Persistent store ---
	//
	// A store that cannot be provisioned downgrades the server to a
	// reduced tool set instead of aborting startup: the first build
	// attempt will report what went wrong.

	cleanup := func() { _ = log.Sync() }
	st, stErr := store.Open(cfg.CacheDir, log)
	if stErr != nil {
		log.Warn("server: object store unavailable, index tools disabled", zap.Error(stErr))
	} else {
		cleanup = func() {
			if err := st.Close(); err != nil {
				log.Warn("server: store close", zap.Error(err))
			}
			_ = log.Sync()
		}
	}

	// --- Type catalog ---

	cat := catalog.New(catalogSource(cfg, st), log)
	cat.Load()

	// --- Catalog-only tools (work without a store) ---

	listTypes := xpptools.NewListTypesTool(cat, st)
	s.AddTool(listTypes.Definition(), listTypes.Handle)

	if stErr != nil {
		return s, cleanup, nil
	}

	// --- Index core ---

	disc := discovery.New(cfg.CodebasePath, cat, log)
	ix := index.New(cfg.CodebasePath, cfg.CacheDir, cat, disc, st, log)
	q := query.New(st, log)
	searcher := search.New(cfg.CodebasePath, q, log)

	// --- Register index tools ---

	buildTool := xpptools.NewBuildIndexTool(ix)
	s.AddTool(buildTool.Definition(), buildTool.Handle)

	findTool := xpptools.NewFindObjectTool(q)
	s.AddTool(findTool.Definition(), findTool.Handle)

	searchTool := xpptools.NewSearchObjectsTool(q)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	listTool := xpptools.NewListObjectsTool(q)
	s.AddTool(listTool.Definition(), listTool.Handle)

	statsTool := xpptools.NewStatsTool(q, cfg.CacheDir)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	codeSearchTool := xpptools.NewSearchCodeTool(searcher)
	s.AddTool(codeSearchTool.Definition(), codeSearchTool.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(q, cat)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)
	s.AddResource(resourceHandler.TypesResource(), resourceHandler.HandleTypes)

	return s, cleanup, nil
}

// catalogSource picks the catalog source: an explicit JSON file wins;
// otherwise a fresh reflection snapshot cached in the store is used,
// falling back to the built-in table.
func catalogSource(cfg *config.Config, st *store.Store) catalog.Source {
	if cfg.CatalogFile != "" {
		return catalog.StaticSource{Path: cfg.CatalogFile}
	}
	maxAge := time.Duration(cfg.CatalogSnapshotMaxAgeHours) * time.Hour
	if st != nil && st.MetadataFresh(store.MetaCatalogSnapshot, maxAge) {
		return catalog.SnapshotSource{Store: st, MaxAge: maxAge}
	}
	return catalog.StaticSource{}
}

// serverInstructions returns the system instructions that tell the AI
// how to use aotnav effectively.
func serverInstructions() string {
	return `You have access to aotnav, an index over a Dynamics 365
Finance & Operations (X++) codebase.

## First run
The object index is built from the package tree on disk. If lookups
come back empty, call build_object_index once (it is a no-op when an
index already exists; pass force=true after objects changed on disk).

## Finding objects
- find_object: exact name lookup. The same name can exist in several
  packages; pass model to prefer one, or exact_model=true to filter.
- search_objects_pattern: wildcard search over names (* and ?). Plain
  words match as substrings. Add object_type to narrow, e.g.
  search_objects_pattern(pattern="Cust*", object_type="TABLE").
- list_objects: enumerate a model's objects, a type's objects, or both.
- list_object_types: the valid object type identifiers, by category.

## Searching content
search_code checks indexed names first and only scans file contents
when fewer than three objects match, returning hits with surrounding
lines. Restrict with path/extensions to keep scans fast.

## Statistics
get_index_statistics reports totals, unique names, and cross-package
name conflicts — useful to confirm the index is populated before
drilling in.`
}

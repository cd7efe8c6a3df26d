package xpptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/query"
	"github.com/aotnav/aotnav/internal/store"
)

// StatsTool handles the get_index_statistics MCP tool.
type StatsTool struct {
	q        *query.Service
	cacheDir string
}

// NewStatsTool creates a StatsTool. cacheDir locates the legacy flat
// JSON index used as a fallback when the SQLite store is unavailable.
func NewStatsTool(q *query.Service, cacheDir string) *StatsTool {
	return &StatsTool{q: q, cacheDir: cacheDir}
}

// Definition returns the MCP tool definition for get_index_statistics.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_index_statistics",
		mcp.WithDescription(
			"Aggregate statistics over the object index: total objects, unique names, "+
				"name conflicts across packages, and package/type counts.",
		),
	)
}

// Handle processes the get_index_statistics tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := t.q.Stats()
	if st.TotalObjects == 0 {
		// Older installs may only carry the flat JSON index; fall back
		// to it for a basic count before declaring the index missing.
		if flat, err := store.LoadFlatIndex(t.cacheDir); err == nil && len(flat.Objects) > 0 {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Flat index only (no SQLite store): %d objects, last updated %s.\n"+
					"Run build_object_index to build the full index.",
				len(flat.Objects), flat.UpdatedAt.Format("2006-01-02 15:04"))), nil
		}
		return mcp.NewToolResultText(notReadyHint), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total objects:  %d\n", st.TotalObjects)
	fmt.Fprintf(&b, "Unique names:   %d\n", st.UniqueNames)
	fmt.Fprintf(&b, "Name conflicts: %d\n", st.NameConflicts)
	fmt.Fprintf(&b, "Packages:       %d\n", st.Packages)
	fmt.Fprintf(&b, "Object types:   %d\n", st.Types)
	return mcp.NewToolResultText(b.String()), nil
}

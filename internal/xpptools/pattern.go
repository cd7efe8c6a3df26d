package xpptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/query"
	"github.com/aotnav/aotnav/internal/store"
)

// SearchObjectsTool handles the search_objects_pattern MCP tool.
type SearchObjectsTool struct {
	q *query.Service
}

// NewSearchObjectsTool creates a SearchObjectsTool.
func NewSearchObjectsTool(q *query.Service) *SearchObjectsTool {
	return &SearchObjectsTool{q: q}
}

// Definition returns the MCP tool definition for search_objects_pattern.
func (t *SearchObjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_objects_pattern",
		mcp.WithDescription(
			"Search object names with wildcards: * matches any run of characters, ? a "+
				"single character, and a plain word matches as a substring. Exact matches "+
				"rank first; results are capped at 50.",
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Wildcard pattern, e.g. Cust*, Sales?, *Invoice*"),
		),
		mcp.WithString("object_type",
			mcp.Description("Restrict the search to one object type (e.g. TABLE)"),
		),
	)
}

// Handle processes the search_objects_pattern tool call.
func (t *SearchObjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern := req.GetString("pattern", "")
	if pattern == "" {
		return mcp.NewToolResultError("'pattern' is required"), nil
	}
	objectType := req.GetString("object_type", "")

	var recs []store.ObjectRecord
	if objectType == "" {
		recs = t.q.SearchByPattern(pattern)
	} else {
		recs = t.q.SearchByPatternAndType(pattern, objectType)
	}

	if len(recs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No objects match %q. %s", pattern, notReadyHint)), nil
	}

	header := fmt.Sprintf("Found %d objects matching %q", len(recs), pattern)
	if len(recs) == query.MaxPatternResults {
		header += fmt.Sprintf(" (capped at %d — narrow the pattern for more)", query.MaxPatternResults)
	}
	return mcp.NewToolResultText(header + ":\n\n" + formatRecords(recs)), nil
}

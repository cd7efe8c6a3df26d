package xpptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/search"
)

// SearchCodeTool handles the search_code MCP tool.
type SearchCodeTool struct {
	searcher *search.Searcher
}

// NewSearchCodeTool creates a SearchCodeTool.
func NewSearchCodeTool(searcher *search.Searcher) *SearchCodeTool {
	return &SearchCodeTool{searcher: searcher}
}

// Definition returns the MCP tool definition for search_code.
func (t *SearchCodeTool) Definition() mcp.Tool {
	return mcp.NewTool("search_code",
		mcp.WithDescription(
			"Search the codebase for a literal term. Indexed object names are checked "+
				"first; when fewer than three match, file contents are scanned line by "+
				"line and hits come back with surrounding context.",
		),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("Literal search term (case-insensitive)"),
		),
		mcp.WithString("path",
			mcp.Description("Subpath under the codebase root to restrict the content scan"),
		),
		mcp.WithString("extensions",
			mcp.Description("Comma-separated file extensions to scan (default: .xml)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
	)
}

// Handle processes the search_code tool call.
func (t *SearchCodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term := req.GetString("term", "")
	if term == "" {
		return mcp.NewToolResultError("'term' is required"), nil
	}

	opts := search.Options{
		Path:  req.GetString("path", ""),
		Limit: intArg(req, "limit", 0),
	}
	if exts := req.GetString("extensions", ""); exts != "" {
		for _, e := range strings.Split(exts, ",") {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			opts.Extensions = append(opts.Extensions, e)
		}
	}

	results := t.searcher.Search(term, opts)
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No matches for %q.", term)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches for %q:\n\n", len(results), term)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, r.String())
		if r.Kind == "file" && len(r.Context) > 0 {
			for _, line := range r.Context {
				fmt.Fprintf(&b, "      %s\n", line)
			}
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

package xpptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/query"
)

// FindObjectTool handles the find_object MCP tool.
type FindObjectTool struct {
	q *query.Service
}

// NewFindObjectTool creates a FindObjectTool.
func NewFindObjectTool(q *query.Service) *FindObjectTool {
	return &FindObjectTool{q: q}
}

// Definition returns the MCP tool definition for find_object.
func (t *FindObjectTool) Definition() mcp.Tool {
	return mcp.NewTool("find_object",
		mcp.WithDescription(
			"Find an X++ object by exact name. When the same name exists in several "+
				"packages, the best match is chosen (preferring the given model) and the "+
				"alternatives are listed.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Exact object name, e.g. CustTable"),
		),
		mcp.WithString("model",
			mcp.Description("Preferred package/model when the name is ambiguous; with exact_model=true, a hard filter"),
		),
		mcp.WithBoolean("exact_model",
			mcp.Description("Only return objects owned by 'model' (default: false)"),
		),
	)
}

// Handle processes the find_object tool call.
func (t *FindObjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	model := req.GetString("model", "")
	exactModel := boolArg(req, "exact_model", false)

	if exactModel {
		if model == "" {
			return mcp.NewToolResultError("'exact_model' requires 'model'"), nil
		}
		recs := t.q.FindByNameAndPackage(name, model)
		if len(recs) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf(
				"No object named %q in package %q. %s", name, model, notReadyHint)), nil
		}
		return mcp.NewToolResultText(formatRecords(recs)), nil
	}

	res := t.q.Resolve(name, model)
	if res.Best == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No object named %q found. %s", name, notReadyHint)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Best match: %s\n", formatRecord(*res.Best))
	if res.Ambiguous {
		fmt.Fprintf(&b, "\nName exists in %d places. Alternatives:\n", len(res.Alternatives)+1)
		b.WriteString(formatRecords(res.Alternatives))
	}
	return mcp.NewToolResultText(b.String()), nil
}

package xpptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/query"
	"github.com/aotnav/aotnav/internal/store"
)

// ListObjectsTool handles the list_objects MCP tool.
type ListObjectsTool struct {
	q *query.Service
}

// NewListObjectsTool creates a ListObjectsTool.
func NewListObjectsTool(q *query.Service) *ListObjectsTool {
	return &ListObjectsTool{q: q}
}

// Definition returns the MCP tool definition for list_objects.
func (t *ListObjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_objects",
		mcp.WithDescription(
			"List indexed objects by model (package), by object type, or by both. "+
				"At least one filter is required.",
		),
		mcp.WithString("model",
			mcp.Description("Package/model name, e.g. ApplicationSuite"),
		),
		mcp.WithString("object_type",
			mcp.Description("Object type, e.g. CLASS, TABLE"),
		),
	)
}

// Handle processes the list_objects tool call.
func (t *ListObjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model := req.GetString("model", "")
	objectType := req.GetString("object_type", "")
	if model == "" && objectType == "" {
		return mcp.NewToolResultError("at least one of 'model' or 'object_type' is required"), nil
	}

	var recs []store.ObjectRecord
	switch {
	case model != "" && objectType != "":
		recs = t.q.ListByModelAndType(model, objectType)
	case model != "":
		recs = t.q.ListByModel(model)
	default:
		recs = t.q.ListByType(objectType)
	}

	if len(recs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No objects found for model=%q type=%q. %s", model, objectType, notReadyHint)), nil
	}
	return mcp.NewToolResultText(
		fmt.Sprintf("Found %d objects:\n\n%s", len(recs), formatRecords(recs))), nil
}

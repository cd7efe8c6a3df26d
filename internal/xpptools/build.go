package xpptools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/index"
)

// BuildIndexTool handles the build_object_index MCP tool.
type BuildIndexTool struct {
	indexer *index.Indexer
}

// NewBuildIndexTool creates a BuildIndexTool.
func NewBuildIndexTool(indexer *index.Indexer) *BuildIndexTool {
	return &BuildIndexTool{indexer: indexer}
}

// Definition returns the MCP tool definition for build_object_index.
func (t *BuildIndexTool) Definition() mcp.Tool {
	return mcp.NewTool("build_object_index",
		mcp.WithDescription(
			"Build or rebuild the X++ object index from the codebase. Run this once before "+
				"using the lookup tools, or again after objects were added or removed on disk.",
		),
		mcp.WithString("object_type",
			mcp.Description("Rebuild only this object type (e.g. CLASS, TABLE). Omit for a full build."),
		),
		mcp.WithBoolean("force",
			mcp.Description("Rebuild even when an index already exists (default: false)"),
		),
	)
}

// Handle processes the build_object_index tool call.
func (t *BuildIndexTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectType := req.GetString("object_type", "")
	force := boolArg(req, "force", false)

	var (
		res index.BuildResult
		err error
	)
	if objectType == "" {
		res, err = t.indexer.BuildFull(force)
	} else {
		res, err = t.indexer.BuildByType(objectType, force)
	}
	if err != nil {
		if errors.Is(err, index.ErrUnknownType) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("index build failed: %v", err)), nil
	}

	if res.NoOp {
		return mcp.NewToolResultText(
			"Index already exists — nothing to do. Pass force=true to rebuild.",
		), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %d objects (%d skipped).\n", res.Indexed, res.Skipped)
	if len(res.SkipReasons) > 0 {
		reasons := make([]string, 0, len(res.SkipReasons))
		for reason := range res.SkipReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		b.WriteString("Skip reasons:\n")
		for _, reason := range reasons {
			fmt.Fprintf(&b, "  %s: %d\n", reason, res.SkipReasons[reason])
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

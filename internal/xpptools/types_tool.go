package xpptools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/catalog"
	"github.com/aotnav/aotnav/internal/store"
)

// ListTypesTool handles the list_object_types MCP tool.
type ListTypesTool struct {
	cat *catalog.Catalog
	st  *store.Store
}

// NewListTypesTool creates a ListTypesTool.
func NewListTypesTool(cat *catalog.Catalog, st *store.Store) *ListTypesTool {
	return &ListTypesTool{cat: cat, st: st}
}

// Definition returns the MCP tool definition for list_object_types.
func (t *ListTypesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_object_types",
		mcp.WithDescription(
			"List all known X++ object types, grouped by category. Use these identifiers "+
				"with build_object_index, search_objects_pattern, and list_objects.",
		),
	)
}

// Handle processes the list_object_types tool call. The cached type list
// in the store (populated by index builds) is preferred; the in-memory
// catalog is the fallback.
func (t *ListTypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if ids := t.cachedTypes(); len(ids) > 0 {
		return mcp.NewToolResultText(t.render(ids)), nil
	}

	ids := t.cat.AllTypes()
	if len(ids) == 0 {
		return mcp.NewToolResultText("No object types available — the type catalog failed to load."), nil
	}
	return mcp.NewToolResultText(t.render(ids)), nil
}

func (t *ListTypesTool) cachedTypes() []string {
	if t.st == nil {
		return nil
	}
	blob, _, err := t.st.GetMetadata(store.MetaObjectTypes)
	if err != nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(blob, &ids); err != nil {
		return nil
	}
	return ids
}

func (t *ListTypesTool) render(ids []string) string {
	byCategory := map[string][]string{}
	for _, id := range ids {
		cat := "Other"
		if d, ok := t.cat.Descriptor(id); ok {
			cat = d.Category
		}
		byCategory[cat] = append(byCategory[cat], id)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	fmt.Fprintf(&b, "%d object types:\n\n", len(ids))
	for _, c := range categories {
		fmt.Fprintf(&b, "%s:\n", c)
		for _, id := range byCategory[c] {
			if d, ok := t.cat.Descriptor(id); ok {
				fmt.Fprintf(&b, "  %s — %s (folders: %s)\n", id, d.DisplayName, strings.Join(d.FolderPatterns, ", "))
			} else {
				fmt.Fprintf(&b, "  %s\n", id)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

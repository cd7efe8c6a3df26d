// Package resources implements the MCP resource handlers for aotnav.
//
// Resources are read-only data the host can pull for context, addressed
// by URI (aotnav://...) per MCP convention. They expose the same data
// as the statistics and type tools, but as machine-readable JSON.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/catalog"
	"github.com/aotnav/aotnav/internal/query"
)

// Handler serves aotnav's MCP resource endpoints.
type Handler struct {
	q   *query.Service
	cat *catalog.Catalog
}

// NewHandler creates a resource Handler.
func NewHandler(q *query.Service, cat *catalog.Catalog) *Handler {
	return &Handler{q: q, cat: cat}
}

// StatsResource returns the resource definition for index statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"aotnav://index/stats",
		"Object Index Statistics",
		mcp.WithResourceDescription("Aggregate counts over the indexed X++ objects"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats serves the current index statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats := h.q.Stats()
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("resources: marshal stats: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// TypesResource returns the resource definition for the type catalog.
func (h *Handler) TypesResource() mcp.Resource {
	return mcp.NewResource(
		"aotnav://catalog/types",
		"X++ Type Catalog",
		mcp.WithResourceDescription("Known object types with their folder patterns and file extensions"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleTypes serves the full descriptor table as JSON.
func (h *Handler) HandleTypes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids := h.cat.AllTypes()
	descs := make([]catalog.TypeDescriptor, 0, len(ids))
	for _, id := range ids {
		if d, ok := h.cat.Descriptor(id); ok {
			descs = append(descs, d)
		}
	}

	data, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("resources: marshal type catalog: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}
}

// Package xpptools provides the MCP tool handlers for browsing and
// searching the indexed X++ codebase.
//
// Each tool follows the same pattern:
// - A struct with dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Query failures and a missing index are reported as readable text with
// actionable guidance, never as protocol errors.
package xpptools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aotnav/aotnav/internal/store"
)

// notReadyHint is returned whenever a query finds no index to answer
// from, so a first-run user knows what to do next.
const notReadyHint = "The object index is empty or not built yet. Run build_object_index first."

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// formatRecord renders one object record for tool output.
func formatRecord(rec store.ObjectRecord) string {
	return fmt.Sprintf("%s (%s) — package %s — %s", rec.Name, rec.TypeID, rec.Package, rec.Path)
}

// formatRecords renders a numbered list of records.
func formatRecords(recs []store.ObjectRecord) string {
	var b strings.Builder
	for i, rec := range recs {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, formatRecord(rec))
	}
	return b.String()
}

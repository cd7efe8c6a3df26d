// aotnav: MCP server over a Dynamics 365 F&O (X++) codebase.
//
// It indexes the AOT package tree into a local SQLite store and exposes
// lookup, pattern-search, and content-search tools to AI coding agents.
//
// Usage:
//
//	aotnav serve    # Start the MCP server (stdio transport)
//	aotnav index    # Build the object index from the command line
package main

import "github.com/aotnav/aotnav/cmd/aotnav/cmd"

func main() {
	cmd.Execute()
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// CLI flags that override config file values.
var (
	cfgFile      string
	codebasePath string
)

var rootCmd = &cobra.Command{
	Use:   "aotnav",
	Short: "MCP server and index for a D365 F&O (X++) codebase",
	Long: `aotnav indexes a Dynamics 365 Finance & Operations package tree into a
local SQLite store and serves lookup, wildcard-search, and content-search
tools over the Model Context Protocol so AI coding agents can navigate
X++ codebases.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to configuration file (default: ./aotnav.* or ~/.aotnav/aotnav.*)")
	rootCmd.PersistentFlags().StringVar(&codebasePath, "codebase", "",
		"Override the codebase root to index")
}

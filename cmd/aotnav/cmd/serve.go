package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aotnav/aotnav/internal/config"
	appserver "github.com/aotnav/aotnav/internal/server"
	"github.com/aotnav/aotnav/internal/updater"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Starts the aotnav MCP server speaking JSON-RPC over stdin/stdout.
This is the command an MCP client (Claude Desktop, an IDE agent, etc.)
should be configured to launch. All diagnostics go to stderr so the
stdio protocol stream stays clean.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if codebasePath != "" {
		cfg.CodebasePath = codebasePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, cleanup, err := appserver.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer cleanup()

	// Best-effort version check; the notice goes to stderr so it never
	// touches the protocol stream.
	go checkForUpdates()

	// ServeStdio returns when stdin closes; a signal just tears us down
	// through the same path.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		os.Stdin.Close()
	}()

	if err := mcpserver.ServeStdio(srv); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func checkForUpdates() {
	result := updater.CheckVersion(appserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\nUpdate available: v%s -> v%s\nRun: aotnav update\nRelease: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL)
	}
}

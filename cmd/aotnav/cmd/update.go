package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aotnav/aotnav/internal/server"
	"github.com/aotnav/aotnav/internal/updater"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Self-update to the latest released version",
	Long: `Checks GitHub releases for a newer aotnav build and replaces the
current binary in place. Restart any running server afterwards.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(os.Stderr, "Checking for updates...")

	result := updater.CheckVersion(server.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "Already at the latest version (v%s).\n", result.CurrentVersion)
		return nil
	}

	fmt.Fprintf(os.Stderr, "New version available: v%s -> v%s, downloading...\n",
		result.CurrentVersion, result.LatestVersion)

	if err := updater.SelfUpdate(server.Version); err != nil {
		fmt.Fprintf(os.Stderr, "Update failed: %v\nDownload manually from: %s\n", err, result.ReleaseURL)
		return err
	}

	fmt.Fprintf(os.Stderr, "Updated to v%s. Restart aotnav to use it.\n", result.LatestVersion)
	return nil
}

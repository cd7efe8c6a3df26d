package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aotnav/aotnav/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the aotnav version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aotnav %s (%s/%s)\n", server.Version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

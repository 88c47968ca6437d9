package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/presenza-ai/presenza/cmd/presenza/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if formatOutput == "json" {
			printJSON(map[string]string{
				"version": build.Version,
				"commit":  build.Commit,
				"date":    build.Date,
				"go":      runtime.Version(),
			})
			return
		}
		fmt.Println(build.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		u := newUI()

		fmt.Println(u.Header("Insurance Assistant"))
		fmt.Println()
		fmt.Println(u.KeyValue("Version", Version))
		fmt.Println(u.KeyValue("Git Commit", GitCommit))
		fmt.Println(u.KeyValue("Built", BuildDate))
		fmt.Println(u.KeyValue("Go Version", runtime.Version()))
		fmt.Println(u.KeyValue("OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	},
	// Skips config loading
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

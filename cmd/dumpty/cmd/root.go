package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dumpty-dev/dumpty/internal/settings"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	projectRoot  string
	lockfilePath string
	verbose      bool
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "dumpty",
	Short: "Package manager for AI agent artifacts",
	Long: `dumpty distributes reusable artifact files (prompts, rule files, command
definitions) into the configuration directories of AI coding-assistant
tools. Packages are declared by a manifest, optionally sourced from an
external repository pinned to an exact commit, and tracked in a lockfile
for update, uninstall, and reproducibility.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		settings.Load()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dumpty %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project-root", ".", "project directory to install into")
	rootCmd.PersistentFlags().StringVar(&lockfilePath, "lockfile", "", "path to lockfile (default <project-root>/dumpty.lock)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command under the given context.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dumpty-dev/dumpty/internal/engine"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update <package>",
	Short: "Update an installed package to the latest manifest",
	Long: `Refetches the package's manifest repository at its default branch tip and
reinstalls with the originally selected categories. The previous installation
is preserved if anything fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRootAbs()
		if err != nil {
			return err
		}
		store, err := newStore()
		if err != nil {
			return err
		}

		eng := &engine.UpdateEngine{
			Fetcher:     newFetcher(),
			Agents:      newRegistry(),
			Store:       store,
			ProjectRoot: root,
		}

		result, err := eng.Update(cmd.Context(), args[0], engine.UpdateOptions{Force: updateForce})
		if err != nil {
			return err
		}

		if result.UpToDate {
			info("%s %s is already up to date.", result.Package, result.FromVersion)
			return nil
		}

		for _, w := range result.Warnings {
			warn("%s", w)
		}
		for _, ar := range result.Agents {
			info("%s:", ar.Agent)
			for _, f := range ar.Files {
				info("  %s  %s", f.Action, f.Path)
			}
		}
		for _, f := range result.Removed {
			info("  %s  %s", f.Action, f.Path)
		}
		info("")
		info("Updated %s: %s -> %s.", result.Package, result.FromVersion, result.ToVersion)
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "overwrite files that do not belong to this package")
	rootCmd.AddCommand(updateCmd)
}

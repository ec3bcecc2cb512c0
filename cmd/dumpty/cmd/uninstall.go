package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dumpty-dev/dumpty/internal/engine"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package>",
	Short: "Remove an installed package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRootAbs()
		if err != nil {
			return err
		}
		store, err := newStore()
		if err != nil {
			return err
		}

		eng := &engine.UninstallEngine{
			Agents:      newRegistry(),
			Store:       store,
			ProjectRoot: root,
		}

		result, err := eng.Uninstall(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, w := range result.Warnings {
			warn("%s", w)
		}
		for _, f := range result.Removed {
			detail("%s  %s", f.Action, f.Path)
		}
		info("Uninstalled %s (%d files removed).", result.Package, len(result.Removed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

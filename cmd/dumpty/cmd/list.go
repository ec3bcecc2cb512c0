package cmd

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		doc, err := store.LoadOrInit()
		if err != nil {
			return err
		}

		if len(doc.Packages) == 0 {
			info("No packages installed.")
			return nil
		}

		for _, pkg := range doc.Packages {
			agents := make([]string, 0, len(pkg.Agents))
			for name := range pkg.Agents {
				agents = append(agents, name)
			}
			sort.Strings(agents)
			categories := "all"
			if pkg.InstalledCategories != nil {
				categories = strings.Join(pkg.InstalledCategories, ", ")
			}
			info("%s %s  agents: %s  categories: %s", pkg.Name, pkg.Version, strings.Join(agents, ", "), categories)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

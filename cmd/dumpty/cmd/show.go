package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <package>",
	Short: "Show details of an installed package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		doc, err := store.LoadOrInit()
		if err != nil {
			return err
		}

		pkg := doc.Find(args[0])
		if pkg == nil {
			return fmt.Errorf("package '%s' is not installed", args[0])
		}

		info("%s %s", pkg.Name, pkg.Version)
		info("  manifest: %s @ %s", pkg.ManifestSource.URL, short(pkg.ManifestSource.Commit))
		if pkg.ExternalRepo != nil {
			info("  external: %s @ %s", pkg.ExternalRepo.URL, short(pkg.ExternalRepo.Commit))
		}
		if pkg.InstalledCategories != nil {
			info("  categories: %s", strings.Join(pkg.InstalledCategories, ", "))
		} else {
			info("  categories: all")
		}

		agentNames := make([]string, 0, len(pkg.Agents))
		for name := range pkg.Agents {
			agentNames = append(agentNames, name)
		}
		sort.Strings(agentNames)
		for _, name := range agentNames {
			info("  %s:", name)
			for _, f := range pkg.Agents[name] {
				info("    %s  (%s)", f.InstalledPath, short(f.Checksum))
			}
		}
		return nil
	},
}

// short truncates a hash for display.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func init() {
	rootCmd.AddCommand(showCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dumpty-dev/dumpty/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate-manifest [path]",
	Short: "Validate a manifest file without installing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := manifest.FileName
		if len(args) == 1 {
			path = args[0]
		}

		m, warnings, err := manifest.Load(path, newRegistry())
		for _, w := range warnings {
			warn("%s", w)
		}
		if err != nil {
			return err
		}

		artifacts := 0
		for _, types := range m.Agents {
			for _, arts := range types {
				artifacts += len(arts)
			}
		}
		info("%s is valid: package %s %s, %d artifact(s), %d categor(ies).",
			path, m.Name, m.Version, artifacts, len(m.Categories))
		if m.ExternalRepo != nil {
			detail("external repository: %s @ %s", m.ExternalRepo.URL, short(m.ExternalRepo.Commit))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

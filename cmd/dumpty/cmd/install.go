package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dumpty-dev/dumpty/internal/engine"
	"github.com/dumpty-dev/dumpty/internal/manifest"
	"github.com/dumpty-dev/dumpty/internal/resolve"
	"github.com/dumpty-dev/dumpty/internal/settings"
)

var (
	installRef           string
	installCategories    []string
	installAllCategories bool
	installAgents        []string
	installForce         bool
	installYes           bool
)

var installCmd = &cobra.Command{
	Use:   "install <repository-url>",
	Short: "Install a package from a manifest repository",
	Long: `Fetches the repository, validates its dumpty.yaml manifest, and installs
the package's artifacts into the configured agents' directories. When the
manifest declares an external repository, artifact content comes exclusively
from that repository at its pinned commit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]

		root, err := projectRootAbs()
		if err != nil {
			return err
		}
		store, err := newStore()
		if err != nil {
			return err
		}

		eng := &engine.InstallEngine{
			Fetcher:     newFetcher(),
			Agents:      newRegistry(),
			Store:       store,
			ProjectRoot: root,
		}

		opts := engine.InstallOptions{
			Ref:           installRef,
			AgentNames:    installAgents,
			DefaultAgents: settings.DefaultAgents(),
			Force:         installForce,
			Select:        selectFn(),
		}

		result, err := eng.Install(cmd.Context(), url, opts)
		if err != nil {
			return err
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
		info("")
		if result.AllCategories {
			info("Installed %s %s (%d files, all categories).", result.Package, result.Version, result.FileCount())
		} else {
			info("Installed %s %s (%d files, categories: %s).", result.Package, result.Version, result.FileCount(), strings.Join(result.Categories, ", "))
		}
		detail("manifest commit: %s", result.ManifestCommit)
		if result.ExternalCommit != "" {
			detail("external commit: %s", result.ExternalCommit)
		}
		return nil
	},
}

// selectFn builds the category-selection callback handed to the engine. All
// terminal I/O stays here; the engine only sees the resolved decision.
func selectFn() func([]manifest.Category) (resolve.Selection, error) {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && !installYes
	return func(categories []manifest.Category) (resolve.Selection, error) {
		sel, needPrompt := resolve.ResolveSelection(categories, installAllCategories, installCategories, interactive)
		if !needPrompt {
			return sel, nil
		}
		return promptCategories(os.Stdin, os.Stdout, categories)
	}
}

func init() {
	installCmd.Flags().StringVar(&installRef, "ref", "", "git ref of the manifest repository (tag, branch, or commit; default branch tip if unset)")
	installCmd.Flags().StringSliceVar(&installCategories, "categories", nil, "install only artifacts in these categories")
	installCmd.Flags().BoolVar(&installAllCategories, "all-categories", false, "install every artifact regardless of category")
	installCmd.Flags().StringArrayVar(&installAgents, "agent", nil, "target agent (repeatable; default: agents detected in the project)")
	installCmd.Flags().BoolVar(&installForce, "force", false, "overwrite files that do not belong to this package")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "skip the interactive category prompt (installs all categories)")
	rootCmd.AddCommand(installCmd)
}

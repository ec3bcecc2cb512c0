// Package resolve turns a loaded manifest plus a category selection into
// the final, path-validated list of artifacts to install.
package resolve

import (
	"sort"

	"github.com/dumpty-dev/dumpty/internal/manifest"
)

// Selection is the resolved category choice for an install. The zero value
// is not meaningful; use SelectAll or SelectCategories.
type Selection struct {
	All        bool
	Categories []string
}

// SelectAll selects every artifact regardless of category.
func SelectAll() Selection {
	return Selection{All: true}
}

// SelectCategories selects the given category names, deduplicated and
// sorted.
func SelectCategories(names []string) Selection {
	seen := make(map[string]bool, len(names))
	var unique []string
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	sort.Strings(unique)
	return Selection{Categories: unique}
}

// Includes reports whether an artifact with the given categories is part of
// the selection. Artifacts with no categories are universal.
func (s Selection) Includes(artifactCategories []string) bool {
	if len(artifactCategories) == 0 || s.All {
		return true
	}
	for _, c := range artifactCategories {
		for _, sel := range s.Categories {
			if c == sel {
				return true
			}
		}
	}
	return false
}

// ResolveSelection is the pure decision function between the UI layer and
// the resolver. Explicit flags always win; with no flags the outcome depends
// on whether the manifest defines categories and whether a terminal is
// attached. needPrompt is true only when the caller should ask the user.
func ResolveSelection(defined []manifest.Category, flagAll bool, flagCategories []string, isInteractive bool) (sel Selection, needPrompt bool) {
	if flagAll {
		return SelectAll(), false
	}
	if len(flagCategories) > 0 {
		return SelectCategories(flagCategories), false
	}
	if len(defined) == 0 {
		return SelectAll(), false
	}
	if !isInteractive {
		// No terminal to ask on: the engine receives install-all rather
		// than blocking.
		return SelectAll(), false
	}
	return Selection{}, true
}

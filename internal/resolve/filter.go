package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dumpty-dev/dumpty/internal/manifest"
)

// ResolvedArtifact is one artifact that survived filtering, with its source
// location resolved against the authoritative source root.
type ResolvedArtifact struct {
	Name          string
	Type          string
	RelPath       string // source path relative to the source root
	SourcePath    string // absolute path under the source root
	InstalledPath string
	Categories    []string
}

// ResolutionError reports why an agent's artifact set could not be resolved.
type ResolutionError struct {
	Agent      string
	SourceRoot string
	Missing    []string
	Reason     string
}

func (e *ResolutionError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("agent '%s': %d artifact file(s) missing from %s:\n  - %s",
			e.Agent, len(e.Missing), e.SourceRoot, strings.Join(e.Missing, "\n  - "))
	}
	return fmt.Sprintf("agent '%s': %s", e.Agent, e.Reason)
}

// Filter returns the artifacts to install for one agent under the given
// selection, in deterministic order (type, then declaration order), after
// verifying every surviving source file exists under sourceRoot. Missing
// files are aggregated into a single error.
func Filter(m *manifest.Manifest, agentName string, sel Selection, sourceRoot string) ([]ResolvedArtifact, error) {
	if err := checkSelection(m, agentName, sel); err != nil {
		return nil, err
	}

	types := m.Agents[agentName]
	typeNames := make([]string, 0, len(types))
	for t := range types {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)

	var resolved []ResolvedArtifact
	total := 0
	for _, t := range typeNames {
		for _, art := range types[t] {
			total++
			if !sel.Includes(art.Categories) {
				continue
			}
			resolved = append(resolved, ResolvedArtifact{
				Name:          art.Name,
				Type:          t,
				RelPath:       art.File,
				SourcePath:    filepath.Join(sourceRoot, filepath.FromSlash(art.File)),
				InstalledPath: art.InstalledPath,
				Categories:    art.Categories,
			})
		}
	}

	if len(resolved) == 0 {
		reason := "nothing to install"
		if total > 0 {
			reason = fmt.Sprintf("nothing to install — the selection excludes all %d artifact(s)", total)
		}
		return nil, &ResolutionError{Agent: agentName, SourceRoot: sourceRoot, Reason: reason}
	}

	var missing []string
	for _, art := range resolved {
		info, err := os.Stat(art.SourcePath)
		if err != nil || info.IsDir() {
			missing = append(missing, art.RelPath)
		}
	}
	if len(missing) > 0 {
		return nil, &ResolutionError{Agent: agentName, SourceRoot: sourceRoot, Missing: missing}
	}

	return resolved, nil
}

// checkSelection rejects selections naming categories the manifest does not
// define.
func checkSelection(m *manifest.Manifest, agentName string, sel Selection) error {
	if sel.All {
		return nil
	}
	var unknown []string
	for _, name := range sel.Categories {
		if !m.HasCategory(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		valid := "(none defined)"
		if len(m.Categories) > 0 {
			valid = strings.Join(m.CategoryNames(), ", ")
		}
		return &ResolutionError{
			Agent:  agentName,
			Reason: fmt.Sprintf("unknown categor(ies) %s — valid categories: %s", strings.Join(unknown, ", "), valid),
		}
	}
	return nil
}

// StrayWarnings reports artifacts whose source path also exists in the
// manifest repository's tree even though an external repository is the
// authoritative source. Bytes are never read from the manifest tree; the
// warning just tells the author about the shadowed files.
func StrayWarnings(arts []ResolvedArtifact, manifestRoot string) []string {
	var warnings []string
	for _, art := range arts {
		p := filepath.Join(manifestRoot, filepath.FromSlash(art.RelPath))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			warnings = append(warnings, fmt.Sprintf("'%s' also exists in the manifest repository but is ignored — the external repository is the only artifact source", art.RelPath))
		}
	}
	return warnings
}

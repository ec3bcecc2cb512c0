// Package engine orchestrates the install, update, and uninstall pipelines:
// fetch, validate, resolve, apply, commit. Each operation is one linear
// pipeline over an explicitly loaded lockfile document; nothing is retried
// and nothing is left half-applied.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dumpty-dev/dumpty/internal/agent"
	"github.com/dumpty-dev/dumpty/internal/installer"
	"github.com/dumpty-dev/dumpty/internal/lockfile"
	"github.com/dumpty-dev/dumpty/internal/manifest"
	"github.com/dumpty-dev/dumpty/internal/repo"
)

// Fetcher is the slice of the repository fetcher the engines use. It is
// satisfied by *repo.Fetcher and faked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, role repo.Role, url, ref string) (*repo.WorkingTree, error)
	Evict(url, commit string) error
}

// readManifest loads and parses the manifest from a fetched working tree.
// Returns the raw bytes alongside the parsed manifest so callers can record
// the manifest checksum.
func readManifest(tree *repo.WorkingTree, catalog manifest.AgentCatalog) (*manifest.Manifest, []byte, []string, error) {
	path := filepath.Join(tree.Root, manifest.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("repository %s has no %s at its root: %w", tree.URL, manifest.FileName, err)
	}

	m, warnings, err := manifest.Parse(data, catalog)
	if err != nil {
		return nil, nil, warnings, err
	}
	return m, data, warnings, nil
}

func checksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fetchExternal fetches the external repository declared by a manifest. On
// failure the external cache slot is removed so no partial working tree
// survives, and the returned error names the external repository.
func fetchExternal(ctx context.Context, f Fetcher, ext *manifest.ExternalRepo) (*repo.WorkingTree, error) {
	tree, err := f.Fetch(ctx, repo.RoleExternal, ext.URL, ext.Commit)
	if err != nil {
		_ = f.Evict(ext.URL, ext.Commit)
		return nil, err
	}
	return tree, nil
}

// ownedPaths maps every destination path recorded for a package, per agent.
func ownedPaths(prior *lockfile.InstalledPackage, agentName string) map[string]bool {
	owned := make(map[string]bool)
	if prior == nil {
		return owned
	}
	for _, f := range prior.Agents[agentName] {
		owned[f.InstalledPath] = true
	}
	return owned
}

// staleFiles returns the files recorded in prior that newAgents no longer
// contains, grouped by agent.
func staleFiles(prior *lockfile.InstalledPackage, newAgents map[string][]lockfile.InstalledFile) map[string][]lockfile.InstalledFile {
	stale := make(map[string][]lockfile.InstalledFile)
	if prior == nil {
		return stale
	}

	current := make(map[string]bool)
	for _, files := range newAgents {
		for _, f := range files {
			current[f.InstalledPath] = true
		}
	}

	for agentName, files := range prior.Agents {
		for _, f := range files {
			if !current[f.InstalledPath] {
				stale[agentName] = append(stale[agentName], f)
			}
		}
	}
	return stale
}

// sortedAgentNames returns the agent names of a record in stable order.
func sortedAgentNames(agents map[string][]lockfile.InstalledFile) []string {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveTargetAgents decides which agents an install targets: explicit
// names win, then agents detected in the project, then configured defaults.
// Only agents the manifest maps artifacts to are targeted unless named
// explicitly.
func resolveTargetAgents(reg *agent.Registry, m *manifest.Manifest, projectRoot string, explicit, defaults []string) ([]agent.Agent, error) {
	if len(explicit) > 0 {
		agents := make([]agent.Agent, 0, len(explicit))
		for _, name := range explicit {
			a, ok := reg.Get(name)
			if !ok {
				return nil, fmt.Errorf("unknown agent '%s' — known agents: %s", name, strings.Join(reg.Names(), ", "))
			}
			agents = append(agents, a)
		}
		return agents, nil
	}

	var agents []agent.Agent
	for _, a := range reg.Configured(projectRoot) {
		if _, ok := m.Agents[a.Name()]; ok {
			agents = append(agents, a)
		}
	}
	if len(agents) > 0 {
		return agents, nil
	}

	for _, name := range defaults {
		a, ok := reg.Get(name)
		if !ok {
			continue
		}
		if _, mapped := m.Agents[a.Name()]; mapped {
			agents = append(agents, a)
		}
	}
	if len(agents) > 0 {
		return agents, nil
	}

	manifestAgents := make([]string, 0, len(m.Agents))
	for name := range m.Agents {
		manifestAgents = append(manifestAgents, name)
	}
	sort.Strings(manifestAgents)
	return nil, fmt.Errorf("no target agents: none of the package's agents (%s) are configured in this project — pass --agent to choose one",
		strings.Join(manifestAgents, ", "))
}

// undoAll reverts every transaction applied so far, newest first.
func undoAll(tx *installer.Transaction, applied []*installer.Applied) {
	for i := len(applied) - 1; i >= 0; i-- {
		tx.Undo(applied[i])
	}
}

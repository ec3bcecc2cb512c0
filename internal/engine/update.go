package engine

import (
	"context"
	"fmt"

	"github.com/dumpty-dev/dumpty/internal/agent"
	"github.com/dumpty-dev/dumpty/internal/installer"
	"github.com/dumpty-dev/dumpty/internal/lockfile"
	"github.com/dumpty-dev/dumpty/internal/repo"
	"github.com/dumpty-dev/dumpty/internal/resolve"
	"github.com/dumpty-dev/dumpty/pkg/dumpty"
)

// UpdateEngine refreshes an installed package from its manifest repository.
type UpdateEngine struct {
	Fetcher     Fetcher
	Agents      *agent.Registry
	Store       *lockfile.Store
	ProjectRoot string
}

// UpdateOptions configures an update operation.
type UpdateOptions struct {
	Force bool
}

// Update refetches the package's manifest repository at its default branch
// tip, reuses the recorded category selection, and replaces the installed
// files and lockfile record. On failure the previous installation is
// preserved on disk and in the lockfile.
func (e *UpdateEngine) Update(ctx context.Context, name string, opts UpdateOptions) (*dumpty.UpdateResult, error) {
	doc, err := e.Store.LoadOrInit()
	if err != nil {
		return nil, err
	}

	prior := doc.Find(name)
	if prior == nil {
		return nil, fmt.Errorf("package '%s' is not installed", name)
	}

	manifestTree, err := e.Fetcher.Fetch(ctx, repo.RoleManifest, prior.ManifestSource.URL, "")
	if err != nil {
		return nil, err
	}

	m, rawManifest, warnings, err := readManifest(manifestTree, e.Agents)
	if err != nil {
		return nil, err
	}
	if m.Name != name {
		return nil, fmt.Errorf("repository %s now declares package '%s', not '%s' — uninstall and install fresh",
			prior.ManifestSource.URL, m.Name, name)
	}

	newChecksum := checksumBytes(rawManifest)
	externalUnchanged := (m.ExternalRepo == nil) == (prior.ExternalRepo == nil) &&
		(m.ExternalRepo == nil || m.ExternalRepo.Commit == prior.ExternalRepo.Commit)
	if manifestTree.Commit == prior.ManifestSource.Commit &&
		newChecksum == prior.ManifestChecksum && externalUnchanged {
		return &dumpty.UpdateResult{
			Package:     name,
			FromVersion: prior.Version,
			ToVersion:   m.Version,
			UpToDate:    true,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sourceRoot := manifestTree.Root
	var externalTree *repo.WorkingTree
	if m.ExternalRepo != nil {
		externalTree, err = fetchExternal(ctx, e.Fetcher, m.ExternalRepo)
		if err != nil {
			return nil, err
		}
		sourceRoot = externalTree.Root
	}

	// Reuse the selection recorded at install time: absence means all.
	sel := resolve.SelectAll()
	if prior.InstalledCategories != nil {
		sel = resolve.SelectCategories(prior.InstalledCategories)
	}

	tx := &installer.Transaction{ProjectRoot: e.ProjectRoot, Force: opts.Force}
	result := &dumpty.UpdateResult{
		Package:     name,
		FromVersion: prior.Version,
		ToVersion:   m.Version,
		Warnings:    warnings,
	}

	var applied []*installer.Applied
	newAgents := make(map[string][]lockfile.InstalledFile)
	for _, agentName := range sortedAgentNames(prior.Agents) {
		if err := ctx.Err(); err != nil {
			undoAll(tx, applied)
			return nil, err
		}

		ag, ok := e.Agents.Get(agentName)
		if !ok {
			undoAll(tx, applied)
			return nil, fmt.Errorf("agent '%s' from the lockfile is not known to this build", agentName)
		}

		if _, mapped := m.Agents[agentName]; !mapped {
			// The manifest dropped this agent; its files become stale and
			// are removed below.
			result.Warnings = append(result.Warnings, fmt.Sprintf("package no longer ships artifacts for agent '%s'", agentName))
			continue
		}

		arts, err := resolve.Filter(m, agentName, sel, sourceRoot)
		if err != nil {
			undoAll(tx, applied)
			return nil, err
		}
		if externalTree != nil {
			result.Warnings = append(result.Warnings, resolve.StrayWarnings(arts, manifestTree.Root)...)
		}

		ap, err := tx.Apply(ag, name, arts, ownedPaths(prior, agentName))
		if err != nil {
			undoAll(tx, applied)
			return nil, err
		}
		applied = append(applied, ap)
		newAgents[agentName] = ap.Files

		report := dumpty.AgentReport{Agent: agentName}
		for _, f := range ap.Files {
			report.Files = append(report.Files, dumpty.FileAction{Path: f.InstalledPath, Action: "updated"})
		}
		result.Agents = append(result.Agents, report)
	}

	if len(newAgents) == 0 {
		undoAll(tx, applied)
		return nil, fmt.Errorf("package '%s' no longer ships artifacts for any installed agent — uninstall it instead", name)
	}

	record := lockfile.InstalledPackage{
		Name:                name,
		Version:             m.Version,
		ManifestSource:      lockfile.Source{URL: prior.ManifestSource.URL, Commit: manifestTree.Commit},
		ManifestChecksum:    newChecksum,
		InstalledCategories: prior.InstalledCategories,
		Agents:              newAgents,
	}
	if m.ExternalRepo != nil {
		record.ExternalRepo = &lockfile.Source{URL: m.ExternalRepo.URL, Commit: externalTree.Commit}
	}

	doc.Upsert(record)
	if err := e.Store.Save(doc); err != nil {
		undoAll(tx, applied)
		return nil, err
	}

	// Only after the lockfile committed: drop files the new record no
	// longer contains. Removing them earlier would leave a failed save with
	// a record listing files that are gone from disk.
	for agentName, files := range staleFiles(prior, newAgents) {
		baseDir := ""
		if a, ok := e.Agents.Get(agentName); ok {
			baseDir = a.BaseDir()
		}
		for _, p := range tx.Cleanup(baseDir, files) {
			result.Removed = append(result.Removed, dumpty.FileAction{Path: p, Action: "removed"})
		}
	}

	return result, nil
}

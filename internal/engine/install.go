package engine

import (
	"context"
	"fmt"

	"github.com/dumpty-dev/dumpty/internal/agent"
	"github.com/dumpty-dev/dumpty/internal/installer"
	"github.com/dumpty-dev/dumpty/internal/lockfile"
	"github.com/dumpty-dev/dumpty/internal/manifest"
	"github.com/dumpty-dev/dumpty/internal/repo"
	"github.com/dumpty-dev/dumpty/internal/resolve"
	"github.com/dumpty-dev/dumpty/pkg/dumpty"
)

// InstallEngine installs a package from a manifest repository URL.
type InstallEngine struct {
	Fetcher     Fetcher
	Agents      *agent.Registry
	Store       *lockfile.Store
	ProjectRoot string
}

// InstallOptions configures an install operation.
type InstallOptions struct {
	// Ref is the requested git ref for the manifest repository; empty
	// means the default branch tip.
	Ref string
	// AgentNames targets specific agents; empty means detect.
	AgentNames []string
	// DefaultAgents is the configured fallback when detection finds
	// nothing.
	DefaultAgents []string
	// Force overwrites conflicting files instead of failing.
	Force bool
	// Select resolves the category selection once the manifest's defined
	// categories are known. nil installs everything. This is the seam to
	// the UI layer: the engine never reads a terminal.
	Select func(categories []manifest.Category) (resolve.Selection, error)
}

// Install runs the full pipeline: fetch manifest repository, validate the
// manifest, fetch the external repository if declared, filter artifacts by
// category, apply per-agent transactions, commit the lockfile. Any failure
// rolls back every file written in this operation and leaves the lockfile
// untouched.
func (e *InstallEngine) Install(ctx context.Context, url string, opts InstallOptions) (*dumpty.InstallResult, error) {
	// Load the lockfile first so a schema mismatch aborts before any I/O
	// heavier than a file read.
	doc, err := e.Store.LoadOrInit()
	if err != nil {
		return nil, err
	}

	manifestTree, err := e.Fetcher.Fetch(ctx, repo.RoleManifest, url, opts.Ref)
	if err != nil {
		return nil, err
	}

	m, rawManifest, warnings, err := readManifest(manifestTree, e.Agents)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The external repository, when declared, is the exclusive source of
	// artifact bytes; the manifest tree is never consulted for content.
	sourceRoot := manifestTree.Root
	var externalTree *repo.WorkingTree
	if m.ExternalRepo != nil {
		externalTree, err = fetchExternal(ctx, e.Fetcher, m.ExternalRepo)
		if err != nil {
			return nil, err
		}
		sourceRoot = externalTree.Root
	}

	sel := resolve.SelectAll()
	if opts.Select != nil {
		sel, err = opts.Select(m.Categories)
		if err != nil {
			return nil, err
		}
	}

	agents, err := resolveTargetAgents(e.Agents, m, e.ProjectRoot, opts.AgentNames, opts.DefaultAgents)
	if err != nil {
		return nil, err
	}

	prior := doc.Find(m.Name)
	tx := &installer.Transaction{ProjectRoot: e.ProjectRoot, Force: opts.Force}

	var applied []*installer.Applied
	result := &dumpty.InstallResult{
		Package:        m.Name,
		Version:        m.Version,
		ManifestCommit: manifestTree.Commit,
		Categories:     sel.Categories,
		AllCategories:  sel.All,
		Warnings:       warnings,
	}
	if externalTree != nil {
		result.ExternalCommit = externalTree.Commit
	}

	newAgents := make(map[string][]lockfile.InstalledFile)
	for _, ag := range agents {
		if err := ctx.Err(); err != nil {
			undoAll(tx, applied)
			return nil, err
		}

		arts, err := resolve.Filter(m, ag.Name(), sel, sourceRoot)
		if err != nil {
			undoAll(tx, applied)
			return nil, err
		}
		if externalTree != nil {
			result.Warnings = append(result.Warnings, resolve.StrayWarnings(arts, manifestTree.Root)...)
		}

		ap, err := tx.Apply(ag, m.Name, arts, ownedPaths(prior, ag.Name()))
		if err != nil {
			undoAll(tx, applied)
			return nil, err
		}
		applied = append(applied, ap)
		newAgents[ag.Name()] = ap.Files

		report := dumpty.AgentReport{Agent: ag.Name()}
		for _, f := range ap.Files {
			report.Files = append(report.Files, dumpty.FileAction{Path: f.InstalledPath, Action: "installed"})
		}
		result.Agents = append(result.Agents, report)
	}

	record := lockfile.InstalledPackage{
		Name:             m.Name,
		Version:          m.Version,
		ManifestSource:   lockfile.Source{URL: url, Commit: manifestTree.Commit},
		ManifestChecksum: checksumBytes(rawManifest),
		Agents:           newAgents,
	}
	if m.ExternalRepo != nil {
		record.ExternalRepo = &lockfile.Source{URL: m.ExternalRepo.URL, Commit: externalTree.Commit}
	}
	if !sel.All {
		record.InstalledCategories = sel.Categories
	}

	doc.Upsert(record)
	if err := e.Store.Save(doc); err != nil {
		undoAll(tx, applied)
		return nil, err
	}

	// A reinstall may stop shipping files the old record contained. Their
	// removal is not rollbackable, so it happens only after the lockfile
	// committed.
	for agentName, files := range staleFiles(prior, newAgents) {
		baseDir := ""
		if a, ok := e.Agents.Get(agentName); ok {
			baseDir = a.BaseDir()
		}
		for _, p := range tx.Cleanup(baseDir, files) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("removed %s (no longer shipped by this package)", p))
		}
	}

	return result, nil
}

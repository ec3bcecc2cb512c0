package engine

import (
	"context"
	"fmt"

	"github.com/dumpty-dev/dumpty/internal/agent"
	"github.com/dumpty-dev/dumpty/internal/installer"
	"github.com/dumpty-dev/dumpty/internal/lockfile"
	"github.com/dumpty-dev/dumpty/pkg/dumpty"
)

// UninstallEngine removes an installed package's files and lockfile record.
type UninstallEngine struct {
	Agents      *agent.Registry
	Store       *lockfile.Store
	ProjectRoot string
}

// Uninstall removes every file recorded for the package, invoking each
// agent's uninstall hooks, then drops the record and saves the lockfile.
func (e *UninstallEngine) Uninstall(ctx context.Context, name string) (*dumpty.UninstallResult, error) {
	doc, err := e.Store.LoadOrInit()
	if err != nil {
		return nil, err
	}

	pkg := doc.Find(name)
	if pkg == nil {
		return nil, fmt.Errorf("package '%s' is not installed", name)
	}

	tx := &installer.Transaction{ProjectRoot: e.ProjectRoot}
	result := &dumpty.UninstallResult{Package: name}

	for _, agentName := range sortedAgentNames(pkg.Agents) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files := pkg.Agents[agentName]
		ag, ok := e.Agents.Get(agentName)
		if !ok {
			// The agent is gone from this build; remove the files without
			// hooks rather than stranding them.
			result.Warnings = append(result.Warnings, fmt.Sprintf("agent '%s' is not known to this build — removing its files without hooks", agentName))
			for _, p := range tx.Cleanup("", files) {
				result.Removed = append(result.Removed, dumpty.FileAction{Path: p, Action: "removed"})
			}
			continue
		}

		removed, warnings, err := tx.Remove(ag, name, files)
		if err != nil {
			return nil, err
		}
		result.Warnings = append(result.Warnings, warnings...)
		for _, p := range removed {
			result.Removed = append(result.Removed, dumpty.FileAction{Path: p, Action: "removed"})
		}
	}

	doc.Remove(name)
	if err := e.Store.Save(doc); err != nil {
		return nil, err
	}

	return result, nil
}

// Package installer copies resolved artifacts into agent directories as an
// all-or-nothing transaction. A failure partway through restores every file
// the transaction touched, so no partially-installed package is ever left
// on disk.
package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dumpty-dev/dumpty/internal/agent"
	"github.com/dumpty-dev/dumpty/internal/lockfile"
	"github.com/dumpty-dev/dumpty/internal/resolve"
	"github.com/dumpty-dev/dumpty/internal/sandbox"
)

// ConflictError reports destination files that already exist but are not
// owned by the package being installed. It is surfaced, not resolved:
// overwriting requires the Force option.
type ConflictError struct {
	Agent string
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("agent '%s': %d file(s) already exist and do not belong to this package (use --force to overwrite):\n  - %s",
		e.Agent, len(e.Paths), strings.Join(e.Paths, "\n  - "))
}

// InstallError reports a copy failure. By the time it surfaces, every file
// written in the failing transaction has been rolled back.
type InstallError struct {
	Agent string
	Path  string
	Err   error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("agent '%s': installing %s: %s (transaction rolled back)", e.Agent, e.Path, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// snapshot preserves a destination file that the transaction overwrites so
// a rollback can restore it.
type snapshot struct {
	content []byte
	mode    os.FileMode
}

// Applied is the record of one successful per-agent transaction. It carries
// enough state for the engine to undo it if a later agent's transaction
// fails.
type Applied struct {
	Agent agent.Agent
	Files []lockfile.InstalledFile

	written     []string // destination paths in creation order
	snapshots   map[string]snapshot
	baseCreated bool // the agent base dir did not exist before this transaction
}

// Transaction installs and removes package files under one project root.
type Transaction struct {
	ProjectRoot string
	Force       bool
}

// destPath is the destination of one artifact, relative to the project
// root: <agentBaseDir>/<typeFolder>/<package>/<installedPath>.
func destPath(ag agent.Agent, pkg string, art resolve.ResolvedArtifact) string {
	return filepath.Join(ag.BaseDir(), ag.TypeFolder(art.Type), pkg, filepath.FromSlash(art.InstalledPath))
}

// Apply copies the resolved artifacts for one agent, invoking the agent's
// install hooks around the copy step. owned lists destination paths already
// recorded for this package, which are overwritten without being treated as
// conflicts. On any failure the transaction is rolled back in reverse order
// of creation and the error names the failing file.
func (t *Transaction) Apply(ag agent.Agent, pkg string, arts []resolve.ResolvedArtifact, owned map[string]bool) (*Applied, error) {
	dests := make([]string, len(arts))
	var conflicts []string
	for i, art := range arts {
		dests[i] = destPath(ag, pkg, art)
		if _, err := os.Stat(filepath.Join(t.ProjectRoot, dests[i])); err == nil {
			if !owned[dests[i]] && !t.Force {
				conflicts = append(conflicts, dests[i])
			}
		}
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Agent: ag.Name(), Paths: conflicts}
	}

	_, baseErr := os.Stat(filepath.Join(t.ProjectRoot, ag.BaseDir()))

	hookCtx := agent.HookContext{
		ProjectRoot: t.ProjectRoot,
		PackageName: pkg,
		BaseDir:     ag.BaseDir(),
		Files:       dests,
	}
	if err := ag.PreInstall(hookCtx); err != nil {
		return nil, &InstallError{Agent: ag.Name(), Path: ag.BaseDir(), Err: fmt.Errorf("pre-install hook: %w", err)}
	}

	applied := &Applied{Agent: ag, snapshots: make(map[string]snapshot), baseCreated: os.IsNotExist(baseErr)}
	for i, art := range arts {
		dest := dests[i]

		// Preserve anything we are about to overwrite.
		abs := filepath.Join(t.ProjectRoot, dest)
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			content, readErr := os.ReadFile(abs)
			if readErr != nil {
				t.undo(applied)
				return nil, &InstallError{Agent: ag.Name(), Path: dest, Err: fmt.Errorf("snapshotting existing file: %w", readErr)}
			}
			applied.snapshots[dest] = snapshot{content: content, mode: info.Mode().Perm()}
		}

		checksum, err := sandbox.CopyFile(t.ProjectRoot, art.SourcePath, dest, 0644)
		if err != nil {
			t.undo(applied)
			return nil, &InstallError{Agent: ag.Name(), Path: dest, Err: err}
		}

		applied.written = append(applied.written, dest)
		applied.Files = append(applied.Files, lockfile.InstalledFile{
			File:          art.RelPath,
			InstalledPath: dest,
			Checksum:      checksum,
		})
	}

	if err := ag.PostInstall(hookCtx); err != nil {
		t.undo(applied)
		return nil, &InstallError{Agent: ag.Name(), Path: ag.BaseDir(), Err: fmt.Errorf("post-install hook: %w", err)}
	}

	return applied, nil
}

// Undo reverts a previously successful transaction. The engine uses it when
// a later agent in the same operation fails.
func (t *Transaction) Undo(applied *Applied) {
	t.undo(applied)
}

// undo removes written files in reverse creation order, restoring
// overwritten content from snapshots and pruning directories the
// transaction emptied. A base directory the transaction itself created is
// removed too, so a rolled-back install does not leave an empty agent dir
// that would flip configured-agent detection.
func (t *Transaction) undo(applied *Applied) {
	for i := len(applied.written) - 1; i >= 0; i-- {
		dest := applied.written[i]
		if snap, ok := applied.snapshots[dest]; ok {
			_ = sandbox.SafeWrite(t.ProjectRoot, dest, snap.content, snap.mode)
			continue
		}
		_ = sandbox.RemoveWithEmptyParents(t.ProjectRoot, dest, applied.Agent.BaseDir())
	}

	if applied.baseCreated {
		if resolved, err := sandbox.ValidatePath(t.ProjectRoot, applied.Agent.BaseDir()); err == nil {
			if entries, readErr := os.ReadDir(resolved); readErr == nil && len(entries) == 0 {
				_ = os.Remove(resolved)
			}
		}
	}
}

// Cleanup quietly removes recorded files that a replacement record no
// longer contains, without invoking hooks. baseDir bounds the empty-parent
// pruning; when empty it is derived from each path's first segment.
// Returns the paths actually removed.
func (t *Transaction) Cleanup(baseDir string, files []lockfile.InstalledFile) []string {
	var removed []string
	for _, f := range files {
		stop := baseDir
		if stop == "" {
			parts := strings.SplitN(filepath.ToSlash(f.InstalledPath), "/", 2)
			stop = parts[0]
		}
		if err := sandbox.RemoveWithEmptyParents(t.ProjectRoot, f.InstalledPath, stop); err == nil {
			removed = append(removed, f.InstalledPath)
		}
	}
	return removed
}

// Remove uninstalls a package's recorded files for one agent, invoking the
// uninstall hooks around the removal. Files already missing from disk are
// tolerated and reported as warnings.
func (t *Transaction) Remove(ag agent.Agent, pkg string, files []lockfile.InstalledFile) (removed []string, warnings []string, err error) {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.InstalledPath
	}

	hookCtx := agent.HookContext{
		ProjectRoot: t.ProjectRoot,
		PackageName: pkg,
		BaseDir:     ag.BaseDir(),
		Files:       paths,
	}
	if hookErr := ag.PreUninstall(hookCtx); hookErr != nil {
		return nil, nil, fmt.Errorf("agent '%s': pre-uninstall hook: %w", ag.Name(), hookErr)
	}

	for _, p := range paths {
		if removeErr := sandbox.RemoveWithEmptyParents(t.ProjectRoot, p, ag.BaseDir()); removeErr != nil {
			if errors.Is(removeErr, os.ErrNotExist) {
				warnings = append(warnings, fmt.Sprintf("%s was already missing", p))
				continue
			}
			warnings = append(warnings, fmt.Sprintf("could not remove %s: %v", p, removeErr))
			continue
		}
		removed = append(removed, p)
	}

	if hookErr := ag.PostUninstall(hookCtx); hookErr != nil {
		return removed, warnings, fmt.Errorf("agent '%s': post-uninstall hook: %w", ag.Name(), hookErr)
	}

	return removed, warnings, nil
}

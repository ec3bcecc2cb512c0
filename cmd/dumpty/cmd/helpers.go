package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dumpty-dev/dumpty/internal/agent"
	"github.com/dumpty-dev/dumpty/internal/lockfile"
	"github.com/dumpty-dev/dumpty/internal/repo"
	"github.com/dumpty-dev/dumpty/internal/settings"
)

// projectRootAbs resolves the --project-root flag to an absolute path.
func projectRootAbs() (string, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	return abs, nil
}

// newStore opens the lockfile store, defaulting to <project-root>/dumpty.lock.
func newStore() (*lockfile.Store, error) {
	path := lockfilePath
	if path == "" {
		root, err := projectRootAbs()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(root, lockfile.FileName)
	}
	return &lockfile.Store{Path: path}, nil
}

// newFetcher creates the repository fetcher from user settings.
func newFetcher() *repo.Fetcher {
	return repo.New(settings.CacheDir(), settings.CloneTimeout())
}

// newRegistry returns the built-in agent registry.
func newRegistry() *agent.Registry {
	return agent.Builtin()
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// warn prints a warning line unless quiet mode is active.
func warn(format string, args ...any) {
	if !quiet {
		fmt.Printf("warning: "+format+"\n", args...)
	}
}

// Package agent defines the capability interface through which the engine
// talks to AI coding assistants, plus the built-in implementations. The
// engine and resolver depend only on the Agent interface, never on a
// concrete tool.
package agent

import (
	"os"
	"path/filepath"
)

// HookContext carries the information lifecycle hooks receive around an
// install or uninstall transaction.
type HookContext struct {
	// ProjectRoot is the absolute path to the project being modified.
	ProjectRoot string
	// PackageName is the package the transaction belongs to.
	PackageName string
	// BaseDir is the agent's configuration directory relative to the
	// project root.
	BaseDir string
	// Files lists the affected files relative to the project root.
	Files []string
}

// Agent describes one AI coding-assistant tool.
type Agent interface {
	// Name is the unique lowercase identifier (e.g. "copilot").
	Name() string
	// DisplayName is the human-readable name (e.g. "GitHub Copilot").
	DisplayName() string
	// BaseDir is the tool's configuration directory relative to the
	// project root (e.g. ".claude").
	BaseDir() string
	// SupportedTypes lists the artifact types this agent accepts.
	SupportedTypes() []string
	// TypeFolder maps an artifact type to the folder it installs under.
	TypeFolder(artifactType string) string
	// IsConfigured reports whether the tool appears to be set up in the
	// given project.
	IsConfigured(projectRoot string) bool

	// Lifecycle hooks, invoked around install and uninstall transactions.
	// The built-in agents use the no-op defaults; these are the extension
	// point for tool-specific side effects such as settings updates.
	PreInstall(ctx HookContext) error
	PostInstall(ctx HookContext) error
	PreUninstall(ctx HookContext) error
	PostUninstall(ctx HookContext) error
}

// NoopHooks provides do-nothing lifecycle hooks for embedding.
type NoopHooks struct{}

func (NoopHooks) PreInstall(HookContext) error    { return nil }
func (NoopHooks) PostInstall(HookContext) error   { return nil }
func (NoopHooks) PreUninstall(HookContext) error  { return nil }
func (NoopHooks) PostUninstall(HookContext) error { return nil }

// dirExists reports whether dir exists under projectRoot and is a directory.
func dirExists(projectRoot, dir string) bool {
	info, err := os.Stat(filepath.Join(projectRoot, dir))
	return err == nil && info.IsDir()
}

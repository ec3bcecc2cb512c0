// Package dumpty holds the public result types returned by the engines and
// rendered by the CLI.
package dumpty

// FileAction records one action taken on a file during an operation.
type FileAction struct {
	Path   string
	Action string // "installed", "updated", "removed", "skipped"
}

// AgentReport groups the file actions for one agent.
type AgentReport struct {
	Agent string
	Files []FileAction
}

// InstallResult holds the outcome of an install operation.
type InstallResult struct {
	Package        string
	Version        string
	ManifestCommit string
	ExternalCommit string // empty when no external repository is declared
	Categories     []string
	AllCategories  bool
	Agents         []AgentReport
	Warnings       []string
}

// FileCount returns the total number of files installed across agents.
func (r *InstallResult) FileCount() int {
	n := 0
	for _, a := range r.Agents {
		n += len(a.Files)
	}
	return n
}

// UpdateResult holds the outcome of an update operation.
type UpdateResult struct {
	Package     string
	FromVersion string
	ToVersion   string
	UpToDate    bool
	Agents      []AgentReport
	Removed     []FileAction // files from the old record no longer shipped
	Warnings    []string
}

// UninstallResult holds the outcome of an uninstall operation.
type UninstallResult struct {
	Package  string
	Removed  []FileAction
	Warnings []string
}

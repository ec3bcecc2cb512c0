// Package manifest handles parsing and validation of dumpty package
// manifests. A manifest declares the artifacts a package ships, the agents
// and artifact types they map to, optional categories for selective
// installation, and an optional external repository pinned by commit.
package manifest

// FileName is the manifest file name looked up at a repository root.
const FileName = "dumpty.yaml"

// SupportedSchemaVersion is the manifest schema version this build accepts.
const SupportedSchemaVersion = "1.0"

// Manifest represents a parsed dumpty.yaml. It is rebuilt from the fetched
// working tree on every operation and never persisted.
type Manifest struct {
	Name          string     `yaml:"name"`
	Version       string     `yaml:"version"`
	Description   string     `yaml:"description,omitempty"`
	SchemaVersion string     `yaml:"schemaVersion"`
	Categories    []Category `yaml:"categories,omitempty"`

	// ExternalRepository is the raw "url@commit" form from the file.
	// ExternalRepo holds the parsed value after validation.
	ExternalRepository string        `yaml:"externalRepository,omitempty"`
	ExternalRepo       *ExternalRepo `yaml:"-"`

	// Agents maps agent name -> artifact type -> artifacts.
	Agents map[string]map[string][]Artifact `yaml:"agents"`
}

// Category is a named grouping used for selective installation.
type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Artifact is one file mapped from a source path to an installed path.
type Artifact struct {
	Name          string `yaml:"name"`
	File          string `yaml:"file"`
	InstalledPath string `yaml:"installedPath"`

	// Categories is nil when the key is absent and empty when the author
	// wrote "categories: []". Both mean the artifact is universal; the
	// explicit empty form draws a warning.
	Categories []string `yaml:"categories,omitempty"`
}

// ExternalRepo is a second git repository, pinned to an exact commit, that
// is the exclusive source of artifact bytes when declared.
type ExternalRepo struct {
	URL    string
	Commit string
}

// IsUniversal reports whether the artifact installs under every category
// selection.
func (a Artifact) IsUniversal() bool {
	return len(a.Categories) == 0
}

// CategoryNames returns the defined category names in declaration order.
func (m *Manifest) CategoryNames() []string {
	names := make([]string, 0, len(m.Categories))
	for _, c := range m.Categories {
		names = append(names, c.Name)
	}
	return names
}

// HasCategory reports whether name is a defined category.
func (m *Manifest) HasCategory(name string) bool {
	for _, c := range m.Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// AgentCatalog is the slice of agent capability information the validator
// needs. The agent registry satisfies it; the manifest package never depends
// on concrete agents.
type AgentCatalog interface {
	// Has reports whether an agent with the given name exists.
	Has(agentName string) bool
	// Supports reports whether the agent accepts the artifact type.
	Supports(agentName, artifactType string) bool
	// Names lists the known agent names.
	Names() []string
	// Types lists the artifact types the agent supports.
	Types(agentName string) []string
}

// Package lockfile persists the record of installed packages. The document
// is loaded fresh at the start of each operation, transformed in memory,
// and written back atomically.
package lockfile

// FileName is the lockfile name in the project root.
const FileName = "dumpty.lock"

// SupportedSchemaVersion is the lockfile schema version this build accepts.
// There is no implicit migration: any other value fails the load.
const SupportedSchemaVersion = "1.0"

// Document represents the dumpty.lock file.
type Document struct {
	SchemaVersion string             `yaml:"schemaVersion"`
	Packages      []InstalledPackage `yaml:"packages"`
}

// Source pins a repository to the exact commit that was used.
type Source struct {
	URL    string `yaml:"url"`
	Commit string `yaml:"commit"`
}

// InstalledFile records one installed artifact and the checksum of the
// bytes written to disk.
type InstalledFile struct {
	File          string `yaml:"file"`
	InstalledPath string `yaml:"installedPath"`
	Checksum      string `yaml:"checksum"`
}

// InstalledPackage is the full record of one installed package. Updates
// replace the record wholesale; it is never partially mutated.
type InstalledPackage struct {
	Name           string  `yaml:"name"`
	Version        string  `yaml:"version"`
	ManifestSource Source  `yaml:"manifestSource"`
	ExternalRepo   *Source `yaml:"externalRepo,omitempty"`

	// InstalledCategories is nil when the package was installed with all
	// categories; the distinction round-trips through the file.
	InstalledCategories []string `yaml:"installedCategories,omitempty"`

	ManifestChecksum string `yaml:"manifestChecksum"`

	// Agents maps agent name -> installed files, paths relative to the
	// project root.
	Agents map[string][]InstalledFile `yaml:"agents"`
}

// NewDocument returns an empty document at the supported schema version.
func NewDocument() *Document {
	return &Document{SchemaVersion: SupportedSchemaVersion}
}

// Find returns the installed package with the given name, or nil.
func (d *Document) Find(name string) *InstalledPackage {
	for i := range d.Packages {
		if d.Packages[i].Name == name {
			return &d.Packages[i]
		}
	}
	return nil
}

// Upsert replaces the record for pkg.Name, or appends it. Replacement is
// wholesale so an update can never leave stale per-agent file lists.
func (d *Document) Upsert(pkg InstalledPackage) {
	for i := range d.Packages {
		if d.Packages[i].Name == pkg.Name {
			d.Packages[i] = pkg
			return
		}
	}
	d.Packages = append(d.Packages, pkg)
}

// Remove deletes the record for name. Returns false if it was not present.
func (d *Document) Remove(name string) bool {
	for i := range d.Packages {
		if d.Packages[i].Name == name {
			d.Packages = append(d.Packages[:i], d.Packages[i+1:]...)
			return true
		}
	}
	return false
}

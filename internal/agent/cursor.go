package agent

// Cursor targets the Cursor editor configuration directory.
type Cursor struct {
	NoopHooks
}

func (a *Cursor) Name() string        { return "cursor" }
func (a *Cursor) DisplayName() string { return "Cursor" }
func (a *Cursor) BaseDir() string     { return ".cursor" }

func (a *Cursor) SupportedTypes() []string {
	return []string{"rules", "commands"}
}

func (a *Cursor) TypeFolder(artifactType string) string {
	return artifactType
}

func (a *Cursor) IsConfigured(projectRoot string) bool {
	return dirExists(projectRoot, a.BaseDir())
}

package agent

// Windsurf targets the Windsurf editor configuration directory.
type Windsurf struct {
	NoopHooks
}

func (a *Windsurf) Name() string        { return "windsurf" }
func (a *Windsurf) DisplayName() string { return "Windsurf" }
func (a *Windsurf) BaseDir() string     { return ".windsurf" }

func (a *Windsurf) SupportedTypes() []string {
	return []string{"rules"}
}

func (a *Windsurf) TypeFolder(artifactType string) string {
	return artifactType
}

func (a *Windsurf) IsConfigured(projectRoot string) bool {
	return dirExists(projectRoot, a.BaseDir())
}

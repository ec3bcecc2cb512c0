package agent

// Copilot targets the GitHub Copilot configuration under .github.
type Copilot struct {
	NoopHooks
}

func (a *Copilot) Name() string        { return "copilot" }
func (a *Copilot) DisplayName() string { return "GitHub Copilot" }
func (a *Copilot) BaseDir() string     { return ".github" }

func (a *Copilot) SupportedTypes() []string {
	return []string{"prompts", "instructions"}
}

func (a *Copilot) TypeFolder(artifactType string) string {
	return artifactType
}

func (a *Copilot) IsConfigured(projectRoot string) bool {
	return dirExists(projectRoot, a.BaseDir())
}

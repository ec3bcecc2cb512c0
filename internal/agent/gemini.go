package agent

// Gemini targets the Gemini CLI configuration directory.
type Gemini struct {
	NoopHooks
}

func (a *Gemini) Name() string        { return "gemini" }
func (a *Gemini) DisplayName() string { return "Gemini" }
func (a *Gemini) BaseDir() string     { return ".gemini" }

func (a *Gemini) SupportedTypes() []string {
	return []string{"prompts", "commands"}
}

func (a *Gemini) TypeFolder(artifactType string) string {
	return artifactType
}

func (a *Gemini) IsConfigured(projectRoot string) bool {
	return dirExists(projectRoot, a.BaseDir())
}

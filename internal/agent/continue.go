package agent

// Continue targets the Continue extension configuration directory.
type Continue struct {
	NoopHooks
}

func (a *Continue) Name() string        { return "continue" }
func (a *Continue) DisplayName() string { return "Continue" }
func (a *Continue) BaseDir() string     { return ".continue" }

func (a *Continue) SupportedTypes() []string {
	return []string{"prompts", "rules"}
}

func (a *Continue) TypeFolder(artifactType string) string {
	return artifactType
}

func (a *Continue) IsConfigured(projectRoot string) bool {
	return dirExists(projectRoot, a.BaseDir())
}

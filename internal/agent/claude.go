package agent

// Claude targets the Claude Code configuration directory.
type Claude struct {
	NoopHooks
}

func (a *Claude) Name() string        { return "claude" }
func (a *Claude) DisplayName() string { return "Claude" }
func (a *Claude) BaseDir() string     { return ".claude" }

func (a *Claude) SupportedTypes() []string {
	return []string{"prompts", "commands", "rules"}
}

func (a *Claude) TypeFolder(artifactType string) string {
	return artifactType
}

func (a *Claude) IsConfigured(projectRoot string) bool {
	return dirExists(projectRoot, a.BaseDir())
}

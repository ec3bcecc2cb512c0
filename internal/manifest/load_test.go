package manifest

import (
	"errors"
	"strings"
	"testing"
)

// catalogStub satisfies AgentCatalog with a fixed capability table.
type catalogStub struct {
	types map[string][]string
}

func newCatalogStub() *catalogStub {
	return &catalogStub{types: map[string][]string{
		"claude":  {"prompts", "commands", "rules"},
		"copilot": {"prompts", "instructions"},
		"cursor":  {"rules", "commands"},
	}}
}

func (c *catalogStub) Has(name string) bool {
	_, ok := c.types[name]
	return ok
}

func (c *catalogStub) Supports(name, typ string) bool {
	for _, t := range c.types[name] {
		if t == typ {
			return true
		}
	}
	return false
}

func (c *catalogStub) Names() []string {
	return []string{"claude", "copilot", "cursor"}
}

func (c *catalogStub) Types(name string) []string {
	return c.types[name]
}

const validManifest = `
name: code-standards
version: 1.2.0
description: Coding standards for the team
schemaVersion: "1.0"
categories:
  - name: development
    description: Day-to-day coding rules
  - name: review
agents:
  claude:
    prompts:
      - name: refactor
        file: prompts/refactor.md
        installedPath: refactor.md
        categories: [development]
    rules:
      - name: style
        file: rules/style.md
        installedPath: style.md
  copilot:
    instructions:
      - name: review-guide
        file: instructions/review.md
        installedPath: review.md
        categories: [review]
`

func TestParseValidManifest(t *testing.T) {
	m, warnings, err := Parse([]byte(validManifest), newCatalogStub())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	if m.Name != "code-standards" || m.Version != "1.2.0" {
		t.Errorf("got %s %s", m.Name, m.Version)
	}
	if len(m.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(m.Categories))
	}
	if !m.HasCategory("development") || m.HasCategory("deploy") {
		t.Error("HasCategory misbehaves")
	}

	arts := m.Agents["claude"]["prompts"]
	if len(arts) != 1 || arts[0].File != "prompts/refactor.md" {
		t.Fatalf("claude prompts = %+v", arts)
	}
	if arts[0].IsUniversal() {
		t.Error("categorized artifact reported universal")
	}
	if !m.Agents["claude"]["rules"][0].IsUniversal() {
		t.Error("uncategorized artifact not reported universal")
	}
}

func TestParseExternalRepository(t *testing.T) {
	data := `
name: shared-prompts
version: 2.0.0
schemaVersion: "1.0"
externalRepository: https://example.com/prompts.git@0123456789abcdef0123456789abcdef01234567
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
	m, _, err := Parse([]byte(data), newCatalogStub())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.ExternalRepo == nil {
		t.Fatal("ExternalRepo not parsed")
	}
	if m.ExternalRepo.URL != "https://example.com/prompts.git" {
		t.Errorf("URL = %s", m.ExternalRepo.URL)
	}
	if m.ExternalRepo.Commit != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("Commit = %s", m.ExternalRepo.Commit)
	}
}

func TestParseExternalRepositoryRejectsNonCommitRefs(t *testing.T) {
	cases := []struct {
		name string
		ref  string
	}{
		{"tag", "v1.2.3"},
		{"branch", "main"},
		{"short sha", "0123456"},
		{"39 chars", strings.Repeat("a", 39)},
		{"41 chars", strings.Repeat("a", 41)},
		{"uppercase hex", "0123456789ABCDEF0123456789ABCDEF01234567"},
		{"non hex", strings.Repeat("g", 40)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
externalRepository: https://example.com/r.git@` + tc.ref + `
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
			_, _, err := Parse([]byte(data), newCatalogStub())
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Error(), "40-character") {
				t.Errorf("error does not explain the commit rule: %v", verr)
			}
		})
	}
}

func TestParseRejectsUnsupportedSchemaVersion(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "2.0"
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	if err == nil || !strings.Contains(err.Error(), "schemaVersion") {
		t.Fatalf("expected schemaVersion error, got %v", err)
	}
}

func TestParseRejectsUnknownAgentAndType(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
agents:
  zed:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
  copilot:
    rules:
      - name: r
        file: r.md
        installedPath: r.md
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Fatalf("errors = %v, want 2 entries", verr.Errors)
	}
	// Agents are walked in sorted order: copilot before zed.
	if !strings.Contains(verr.Errors[0], "agents.copilot.rules") || !strings.Contains(verr.Errors[0], "does not support") {
		t.Errorf("missing unsupported-type error first: %v", verr.Errors)
	}
	if !strings.Contains(verr.Errors[1], "agents.zed") || !strings.Contains(verr.Errors[1], "unknown agent") {
		t.Errorf("missing unknown-agent error second: %v", verr.Errors)
	}
}

func TestParseRejectsPathEscapes(t *testing.T) {
	cases := []struct {
		name string
		file string
		dest string
	}{
		{"absolute file", "/etc/passwd", "p.md"},
		{"escaping file", "../secrets.md", "p.md"},
		{"nested escape", "a/../../x.md", "p.md"},
		{"absolute dest", "p.md", "/tmp/p.md"},
		{"escaping dest", "p.md", "../p.md"},
		{"backslash", `a\b.md`, "p.md"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
agents:
  claude:
    prompts:
      - name: p
        file: '` + tc.file + `'
        installedPath: '` + tc.dest + `'
`
			if _, _, err := Parse([]byte(data), newCatalogStub()); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestParseRejectsUndefinedCategoryReference(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
categories:
  - name: development
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
        categories: [deploy]
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	if err == nil || !strings.Contains(err.Error(), "undefined category 'deploy'") {
		t.Fatalf("expected undefined-category error, got %v", err)
	}
	if !strings.Contains(err.Error(), "valid categories: development") {
		t.Errorf("error does not list valid categories: %v", err)
	}
}

func TestParseRejectsDuplicateInstalledPath(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
agents:
  claude:
    prompts:
      - name: first
        file: a.md
        installedPath: shared.md
      - name: second
        file: b.md
        installedPath: shared.md
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	if err == nil || !strings.Contains(err.Error(), "'shared.md' is already used by artifact 'first'") {
		t.Fatalf("expected duplicate-installedPath error, got %v", err)
	}
}

func TestDuplicateInstalledPathAllowedAcrossTypes(t *testing.T) {
	// Different types install under different folders; no collision.
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
agents:
  claude:
    prompts:
      - name: a
        file: a.md
        installedPath: shared.md
    rules:
      - name: b
        file: b.md
        installedPath: shared.md
`
	if _, _, err := Parse([]byte(data), newCatalogStub()); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParseRejectsDuplicateCategories(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
categories:
  - name: dev
  - name: dev
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate-category error, got %v", err)
	}
}

func TestParseRejectsBadCategoryName(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
categories:
  - name: "has space"
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
	if _, _, err := Parse([]byte(data), newCatalogStub()); err == nil {
		t.Fatal("expected error for category name with a space")
	}
}

func TestParseWarnsOnEmptyCategoriesList(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
categories:
  - name: dev
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
        categories: []
`
	m, warnings, err := Parse([]byte(data), newCatalogStub())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "universal") {
		t.Fatalf("warnings = %v, want one empty-categories warning", warnings)
	}
	art := m.Agents["claude"]["prompts"][0]
	if art.Categories == nil || len(art.Categories) != 0 {
		t.Error("explicit empty list must decode as non-nil empty slice")
	}
	if !art.IsUniversal() {
		t.Error("empty-categories artifact must be universal")
	}
}

func TestParseWarnsOnNonSemverVersion(t *testing.T) {
	data := `
name: p
version: latest
schemaVersion: "1.0"
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
	_, warnings, err := Parse([]byte(data), newCatalogStub())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "semantic version") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestParseAggregatesErrors(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "3.0"
agents:
  zed:
    prompts:
      - name: a
        file: /abs.md
        installedPath: p.md
  claude:
    prompts:
      - name: b
        file: "../escape.md"
        installedPath: p.md
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) < 3 {
		t.Errorf("expected at least 3 aggregated errors, got %v", verr.Errors)
	}
}

func TestParseRejectsMissingRequiredFields(t *testing.T) {
	data := `
version: 1.0.0
schemaVersion: "1.0"
agents: {}
`
	_, _, err := Parse([]byte(data), newCatalogStub())
	if err == nil {
		t.Fatal("expected schema error for missing name")
	}
}

func TestParseRejectsUnknownTopLevelKeys(t *testing.T) {
	data := `
name: p
version: 1.0.0
schemaVersion: "1.0"
bogus: true
agents:
  claude:
    prompts:
      - name: p
        file: p.md
        installedPath: p.md
`
	if _, _, err := Parse([]byte(data), newCatalogStub()); err == nil {
		t.Fatal("expected schema error for unknown key")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, _, err := Parse([]byte("{not yaml: ["), newCatalogStub()); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestCategoryNamesOrder(t *testing.T) {
	m := &Manifest{Categories: []Category{{Name: "z"}, {Name: "a"}}}
	names := m.CategoryNames()
	if len(names) != 2 || names[0] != "z" || names[1] != "a" {
		t.Errorf("CategoryNames = %v, want declaration order", names)
	}
}

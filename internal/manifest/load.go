package manifest

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

var (
	categoryNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	commitRe       = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// ValidationError holds the aggregated validation failures of one manifest.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load reads and validates a manifest file. Warnings are advisory and do not
// fail the load.
func Load(filePath string, catalog AgentCatalog) (*Manifest, []string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest %s: %w", filePath, err)
	}
	return Parse(data, catalog)
}

// Parse decodes and validates raw manifest bytes. Validation runs in two
// stages: structural (JSON schema) then semantic (aggregated). It performs
// no I/O beyond the bytes it is given.
func Parse(data []byte, catalog AgentCatalog) (*Manifest, []string, error) {
	issues, err := validateSchema(data)
	if err != nil {
		return nil, nil, err
	}
	if len(issues) > 0 {
		errs := make([]string, 0, len(issues))
		for _, issue := range issues {
			errs = append(errs, issue.String())
		}
		return nil, nil, &ValidationError{Errors: errs}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parsing manifest: %w", err)
	}

	errs, warnings := Validate(&m, catalog)
	if len(errs) > 0 {
		return nil, warnings, &ValidationError{Errors: errs}
	}

	return &m, warnings, nil
}

// Validate checks a decoded manifest for semantic correctness and fills in
// derived fields (ExternalRepo). Returns aggregated error messages and
// advisory warnings.
func Validate(m *Manifest, catalog AgentCatalog) (errs []string, warnings []string) {
	if m.SchemaVersion != SupportedSchemaVersion {
		errs = append(errs, fmt.Sprintf("unsupported schemaVersion '%s' — this build supports '%s'", m.SchemaVersion, SupportedSchemaVersion))
	}

	if _, err := semver.NewVersion(m.Version); err != nil {
		warnings = append(warnings, fmt.Sprintf("version '%s' is not a semantic version", m.Version))
	}

	// Categories: unique, format-valid.
	defined := make(map[string]bool, len(m.Categories))
	for _, c := range m.Categories {
		if !categoryNameRe.MatchString(c.Name) {
			errs = append(errs, fmt.Sprintf("category '%s': name must match [A-Za-z0-9_-]+", c.Name))
		}
		if defined[c.Name] {
			errs = append(errs, fmt.Sprintf("category '%s': duplicate definition", c.Name))
		}
		defined[c.Name] = true
	}

	// External repository: url@commit with a full lowercase hex SHA.
	if m.ExternalRepository != "" {
		ext, extErrs := parseExternalRepo(m.ExternalRepository)
		errs = append(errs, extErrs...)
		m.ExternalRepo = ext
	}

	// Artifacts, walked in deterministic order for stable messages.
	for _, agentName := range sortedKeys(m.Agents) {
		if !catalog.Has(agentName) {
			errs = append(errs, fmt.Sprintf("agents.%s: unknown agent — known agents: %s", agentName, strings.Join(catalog.Names(), ", ")))
			continue
		}

		types := m.Agents[agentName]
		for _, typeName := range sortedKeys(types) {
			if !catalog.Supports(agentName, typeName) {
				errs = append(errs, fmt.Sprintf("agents.%s.%s: agent '%s' does not support this artifact type — supported types: %s",
					agentName, typeName, agentName, strings.Join(catalog.Types(agentName), ", ")))
				continue
			}

			// Two artifacts writing the same destination would silently
			// shadow each other at install time.
			seenDest := make(map[string]string)
			for _, art := range types[typeName] {
				prefix := fmt.Sprintf("agents.%s.%s artifact '%s'", agentName, typeName, art.Name)

				if msg := checkRelPath(art.File); msg != "" {
					errs = append(errs, fmt.Sprintf("%s: file %s", prefix, msg))
				}
				if msg := checkRelPath(art.InstalledPath); msg != "" {
					errs = append(errs, fmt.Sprintf("%s: installedPath %s", prefix, msg))
				}
				if prev, dup := seenDest[art.InstalledPath]; dup {
					errs = append(errs, fmt.Sprintf("%s: installedPath '%s' is already used by artifact '%s'", prefix, art.InstalledPath, prev))
				} else {
					seenDest[art.InstalledPath] = art.Name
				}

				if art.Categories != nil && len(art.Categories) == 0 {
					warnings = append(warnings, fmt.Sprintf("%s: empty categories list — treated as universal", prefix))
				}
				for _, ref := range art.Categories {
					if !defined[ref] {
						valid := "(none defined)"
						if len(m.Categories) > 0 {
							valid = strings.Join(m.CategoryNames(), ", ")
						}
						errs = append(errs, fmt.Sprintf("%s: references undefined category '%s' — valid categories: %s", prefix, ref, valid))
					}
				}
			}
		}
	}

	return errs, warnings
}

// parseExternalRepo splits "url@commit" and enforces the exact-commit rule.
func parseExternalRepo(raw string) (*ExternalRepo, []string) {
	at := strings.LastIndex(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return nil, []string{fmt.Sprintf("externalRepository '%s': must be of the form 'url@commit'", raw)}
	}

	url := raw[:at]
	ref := raw[at+1:]

	if !commitRe.MatchString(ref) {
		return nil, []string{fmt.Sprintf("externalRepository ref '%s': must be a full 40-character lowercase hex commit SHA — tags and branches are not allowed", ref)}
	}

	return &ExternalRepo{URL: url, Commit: ref}, nil
}

// checkRelPath rejects absolute paths and paths escaping their root.
// Returns an empty string when the path is acceptable.
func checkRelPath(p string) string {
	if p == "" {
		return "is required"
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return fmt.Sprintf("'%s' must be a relative slash-separated path", p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Sprintf("'%s' escapes the repository root", p)
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

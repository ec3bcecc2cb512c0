package lockfile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Error is a lockfile load or save failure. Reason carries the remediation
// the user should take.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("lockfile %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Store reads and writes the lockfile at a fixed path.
type Store struct {
	Path string
}

// Load reads and validates the lockfile. The error wraps os.ErrNotExist
// when the file is missing.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", s.Path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{
			Path:   s.Path,
			Reason: "corrupt document — delete the lockfile and reinstall your packages",
			Err:    err,
		}
	}

	if doc.SchemaVersion != SupportedSchemaVersion {
		return nil, &Error{
			Path: s.Path,
			Reason: fmt.Sprintf("schemaVersion '%s' is not supported (this build supports '%s') — delete the lockfile and reinstall your packages to regenerate it",
				doc.SchemaVersion, SupportedSchemaVersion),
		}
	}

	return &doc, nil
}

// LoadOrInit is Load, but a missing file yields an empty document.
func (s *Store) LoadOrInit() (*Document, error) {
	doc, err := s.Load()
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Save writes the document atomically: serialize to a temp file in the same
// directory, then rename over the target.
func (s *Store) Save(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return &Error{Path: s.Path, Reason: "marshaling document", Err: err}
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &Error{Path: s.Path, Reason: "writing temp lockfile", Err: err}
	}

	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return &Error{Path: s.Path, Reason: "renaming temp lockfile", Err: err}
	}

	return nil
}

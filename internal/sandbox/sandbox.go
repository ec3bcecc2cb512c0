package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks that targetPath stays within projectRoot after symlink
// resolution and normalization. Returns the resolved absolute path.
func ValidatePath(projectRoot, targetPath string) (string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, targetPath))

	// The path may not exist yet; resolve symlinks for the longest
	// existing prefix.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	// Trailing separator avoids matching "projectroot2" against "projectroot".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the project root '%s'", targetPath, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// the path, then appends the non-existing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}

	return filepath.Join(resolvedDir, base), nil
}

// SafeWrite atomically writes content to a path within the project root.
// The write goes to a temp file in the destination directory followed by a
// rename, so a reader never observes partial content.
func SafeWrite(projectRoot, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}

	if _, err := ValidatePath(projectRoot, filepath.Dir(relPath)); err != nil {
		return fmt.Errorf("parent directory escapes sandbox: %w", err)
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dumpty-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// CopyFile copies srcPath (an absolute path, typically inside a fetched
// working tree) to relDest within the project root and returns the SHA-256
// hex digest of the copied content.
func CopyFile(projectRoot, srcPath, relDest string, perm os.FileMode) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening source %s: %w", srcPath, err)
	}
	defer src.Close()

	h := sha256.New()
	content, err := io.ReadAll(io.TeeReader(src, h))
	if err != nil {
		return "", fmt.Errorf("reading source %s: %w", srcPath, err)
	}

	if err := SafeWrite(projectRoot, relDest, content, perm); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// SafeRemove removes a file within the project root sandbox.
func SafeRemove(projectRoot, relPath string) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// RemoveWithEmptyParents removes relPath and then removes each now-empty
// parent directory, walking up until stopRel (exclusive) or a non-empty
// directory is reached.
func RemoveWithEmptyParents(projectRoot, relPath, stopRel string) error {
	if err := SafeRemove(projectRoot, relPath); err != nil {
		return err
	}

	stop, err := ValidatePath(projectRoot, stopRel)
	if err != nil {
		return err
	}

	dir := filepath.Dir(relPath)
	for dir != "." && dir != string(filepath.Separator) {
		resolved, err := ValidatePath(projectRoot, dir)
		if err != nil || resolved == stop {
			return nil
		}
		entries, readErr := os.ReadDir(resolved)
		if readErr != nil || len(entries) > 0 {
			return nil
		}
		if err := os.Remove(resolved); err != nil {
			return nil
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

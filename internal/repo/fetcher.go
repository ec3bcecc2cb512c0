// Package repo fetches git repositories at specific refs into a local
// worktree cache. A fetched working tree is either fully present at its
// resolved commit or absent — partial clones are removed before an error
// surfaces.
package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/adrg/xdg"
)

// DefaultTimeout bounds a single clone operation when the fetcher is not
// configured otherwise.
const DefaultTimeout = 120 * time.Second

var commitRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsCommitSHA reports whether ref is a full 40-character lowercase hex
// commit SHA.
func IsCommitSHA(ref string) bool {
	return commitRe.MatchString(ref)
}

// Role identifies which of the two repositories of an operation failed.
type Role string

const (
	RoleManifest Role = "manifest"
	RoleExternal Role = "external"
)

// WorkingTree is a fully checked-out repository at an exact commit.
type WorkingTree struct {
	URL    string
	Root   string
	Commit string
	Ref    string // the ref as requested; empty means default branch
}

// FetchError reports a clone, checkout, or timeout failure, attributed to
// the repository it happened on.
type FetchError struct {
	Role Role
	URL  string
	Ref  string
	Hint string
	Err  error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s repository %s", e.Role, e.URL)
	if e.Ref != "" {
		msg += fmt.Sprintf(" (ref %s)", e.Ref)
	}
	msg += ": " + e.Err.Error()
	if e.Hint != "" {
		msg += " — " + e.Hint
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher clones repositories into a cache of working trees keyed by
// (repository, resolved commit).
type Fetcher struct {
	CacheRoot string
	Timeout   time.Duration
}

// New creates a Fetcher rooted at cacheRoot. A zero timeout means
// DefaultTimeout.
func New(cacheRoot string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{CacheRoot: cacheRoot, Timeout: timeout}
}

// DefaultCacheDir returns the default worktree cache location.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "dumpty")
}

// Fetch returns a working tree for url at ref. An empty ref means the
// default branch tip. A 40-hex ref is served from the cache when present;
// otherwise the repository is cloned, the ref resolved to a commit, and the
// tree moved into its cache slot.
func (f *Fetcher) Fetch(ctx context.Context, role Role, url, ref string) (*WorkingTree, error) {
	if url == "" {
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Err: errors.New("repository URL is required")}
	}

	if IsCommitSHA(ref) {
		slot := f.slotPath(url, ref)
		if info, err := os.Stat(slot); err == nil && info.IsDir() {
			return &WorkingTree{URL: url, Root: slot, Commit: ref, Ref: ref}, nil
		}
	}

	if err := os.MkdirAll(f.CacheRoot, 0755); err != nil {
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Err: fmt.Errorf("creating cache directory: %w", err)}
	}

	tmp, err := os.MkdirTemp(f.CacheRoot, ".clone-*")
	if err != nil {
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Err: fmt.Errorf("creating clone directory: %w", err)}
	}

	// Any failure below must leave no partial clone behind.
	done := false
	defer func() {
		if !done {
			_ = os.RemoveAll(tmp)
		}
	}()

	cloneCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	if err := f.clone(cloneCtx, url, ref, tmp); err != nil {
		hint := "check repository URL, ref, and authentication"
		if errors.Is(cloneCtx.Err(), context.DeadlineExceeded) {
			hint = fmt.Sprintf("clone timed out after %s", f.Timeout)
		}
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Hint: hint, Err: err}
	}

	commit, err := runGit(cloneCtx, tmp, "rev-parse", "HEAD")
	if err != nil {
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Err: fmt.Errorf("resolving commit: %w", err)}
	}

	slot := f.slotPath(url, commit)
	if info, statErr := os.Stat(slot); statErr == nil && info.IsDir() {
		// Another fetch of the same commit already populated the slot.
		_ = os.RemoveAll(tmp)
		done = true
		return &WorkingTree{URL: url, Root: slot, Commit: commit, Ref: ref}, nil
	}

	if err := os.MkdirAll(filepath.Dir(slot), 0755); err != nil {
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Err: fmt.Errorf("creating cache slot: %w", err)}
	}
	if err := os.Rename(tmp, slot); err != nil {
		return nil, &FetchError{Role: role, URL: url, Ref: ref, Err: fmt.Errorf("moving clone into cache: %w", err)}
	}

	done = true
	return &WorkingTree{URL: url, Root: slot, Commit: commit, Ref: ref}, nil
}

// Evict removes the cache slot for (url, commit), and the repository's
// cache directory if it is now empty.
func (f *Fetcher) Evict(url, commit string) error {
	slot := f.slotPath(url, commit)
	if err := os.RemoveAll(slot); err != nil {
		return fmt.Errorf("evicting cache slot %s: %w", slot, err)
	}
	repoDir := filepath.Dir(slot)
	if entries, err := os.ReadDir(repoDir); err == nil && len(entries) == 0 {
		_ = os.Remove(repoDir)
	}
	return nil
}

// clone materializes url at ref into dest. Resolution order: default branch
// for an empty ref; direct checkout for a commit SHA; shallow --branch clone
// otherwise, retrying with a conventional v-prefixed tag for semver refs
// before falling back to a full clone plus checkout.
func (f *Fetcher) clone(ctx context.Context, url, ref, dest string) error {
	if ref == "" {
		_, err := runGitClone(ctx, "git", "clone", "--depth", "1", "--single-branch", url, dest)
		return err
	}

	if IsCommitSHA(ref) {
		if _, err := runGitClone(ctx, "git", "clone", "--no-checkout", url, dest); err != nil {
			return err
		}
		if out, err := runGit(ctx, dest, "checkout", ref); err != nil {
			return fmt.Errorf("checkout %s failed: %s: %w", ref, out, err)
		}
		return nil
	}

	branchOut, branchErr := runGitClone(ctx, "git", "clone", "--depth", "1", "--branch", ref, "--single-branch", url, dest)
	if branchErr == nil {
		return nil
	}
	_ = os.RemoveAll(dest)

	if alt := versionTagRef(ref); alt != "" {
		if _, err := runGitClone(ctx, "git", "clone", "--depth", "1", "--branch", alt, "--single-branch", url, dest); err == nil {
			return nil
		}
		_ = os.RemoveAll(dest)
	}

	// Last resort: full clone, then checkout whatever the ref names.
	if _, err := runGitClone(ctx, "git", "clone", "--no-checkout", url, dest); err != nil {
		return fmt.Errorf("clone failed: %s: %w", branchOut, branchErr)
	}
	if out, err := runGit(ctx, dest, "checkout", ref); err != nil {
		return fmt.Errorf("checkout %s failed: %s: %w", ref, out, err)
	}
	return nil
}

// versionTagRef returns the conventional v-prefixed tag for a semver ref,
// or "" when the ref is not semver or already prefixed.
func versionTagRef(ref string) string {
	if strings.HasPrefix(ref, "v") {
		return ""
	}
	if _, err := semver.StrictNewVersion(ref); err != nil {
		return ""
	}
	return "v" + ref
}

// slotPath is the cache directory for (url, commit).
func (f *Fetcher) slotPath(url, commit string) string {
	return filepath.Join(f.CacheRoot, "repos", repoKey(url), commit)
}

// repoKey derives a stable directory name from a repository URL.
func repoKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

func runGitClone(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(output)), fmt.Errorf("git clone failed: %s: %w", strings.TrimSpace(string(output)), err)
	}
	return strings.TrimSpace(string(output)), nil
}

func runGit(ctx context.Context, repoDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoDir}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

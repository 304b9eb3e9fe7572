// Package git implements the transport interface by shelling out to
// the git binary.
//
// Every repository mutation goes through exec.CommandContext so callers
// can bound sync operations with a deadline. Read-only queries (branch
// discovery, divergence checks, file content at a ref) use plain
// commands without a context.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/burrowfeed/burrow/internal/vcs"
)

// remoteName is the only remote the transport talks to.
const remoteName = "origin"

// Git implements vcs.Transport for git repositories.
type Git struct {
	// root is the repository root directory path
	root string
}

// Open returns a transport for the repository containing path.
// vcs.ErrNotInVCS when path is not inside a repository.
func Open(path string) (*Git, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, vcs.ErrVCSNotAvailable
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = path
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vcs.ErrNotInVCS, path)
	}

	return &Git{root: strings.TrimSpace(string(output))}, nil
}

// Init creates a repository at path and returns its transport.
func Init(ctx context.Context, path string) (*Git, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, vcs.ErrVCSNotAvailable
	}

	cmd := exec.CommandContext(ctx, "git", "init", "-q", "-b", "main", path)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git init failed: %w\n%s", err, string(output))
	}

	return Open(path)
}

// OpenOrInit opens the repository at path, initializing one if the
// directory is not version-controlled yet.
func OpenOrInit(ctx context.Context, path string) (*Git, error) {
	g, err := Open(path)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, vcs.ErrNotInVCS) {
		return nil, err
	}
	return Init(ctx, path)
}

// Clone materializes remote into path and returns the transport for the
// fresh working copy. The remote accepts the user/repo shorthand. The
// destination must not exist or must be an empty directory.
func Clone(ctx context.Context, remote, path string) (*Git, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, vcs.ErrVCSNotAvailable
	}

	if entries, err := os.ReadDir(path); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("%w: %s", vcs.ErrTargetExists, path)
	}

	url := vcs.ExpandRemoteURL(remote)
	cmd := exec.CommandContext(ctx, "git", "clone", "-q", url, path)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git clone %s failed: %w\n%s", url, err, string(output))
	}

	return Open(path)
}

// Root returns the repository root directory path.
func (g *Git) Root() string {
	return g.root
}

// HasRemote reports whether the repository has origin configured.
func (g *Git) HasRemote() bool {
	cmd := exec.Command("git", "remote")
	cmd.Dir = g.root
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	for _, name := range strings.Fields(string(output)) {
		if name == remoteName {
			return true
		}
	}
	return false
}

// CurrentBranch returns the checked-out branch name.
// vcs.ErrDetached when HEAD is not on a branch.
func (g *Git) CurrentBranch() (string, error) {
	cmd := exec.Command("git", "symbolic-ref", "--short", "-q", "HEAD")
	cmd.Dir = g.root
	output, err := cmd.Output()
	if err != nil {
		return "", vcs.ErrDetached
	}
	return strings.TrimSpace(string(output)), nil
}

// SetRemote points origin at remote, adding or re-pointing it as
// needed. The remote accepts the user/repo shorthand.
func (g *Git) SetRemote(ctx context.Context, remote string) error {
	url := vcs.ExpandRemoteURL(remote)
	verb := "add"
	if g.HasRemote() {
		verb = "set-url"
	}
	_, err := g.run(ctx, "remote", verb, remoteName, url)
	return err
}

// run executes a git command at the repository root and returns its
// combined output, wrapping failures with the command line for context.
func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.root

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\n%s",
			strings.Join(args, " "), err, string(output))
	}

	return output, nil
}

// query runs a read-only git command at the repository root and returns
// its trimmed stdout.
func (g *Git) query(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.root
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

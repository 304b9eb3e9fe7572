package git

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/burrowfeed/burrow/internal/vcs"
)

// Fetch updates remote-tracking refs for origin.
// vcs.ErrNoRemote when none is configured.
func (g *Git) Fetch(ctx context.Context) error {
	if !g.HasRemote() {
		return vcs.ErrNoRemote
	}
	_, err := g.run(ctx, "fetch", "-q", remoteName)
	return err
}

// RemoteRef returns the remote-tracking ref matching the current
// branch, falling back to the remote's default branch, and whether one
// exists. A fresh remote with no commits yields none.
func (g *Git) RemoteRef() (string, bool) {
	if branch, err := g.CurrentBranch(); err == nil {
		ref := remoteName + "/" + branch
		if g.refExists(ref) {
			return ref, true
		}
	}

	// origin/HEAD names the remote's default branch once set.
	if target, err := g.query("symbolic-ref", "--short", "refs/remotes/"+remoteName+"/HEAD"); err == nil && target != "" {
		if g.refExists(target) {
			return target, true
		}
	}

	for _, name := range []string{"main", "master"} {
		ref := remoteName + "/" + name
		if g.refExists(ref) {
			return ref, true
		}
	}

	return "", false
}

func (g *Git) refExists(ref string) bool {
	cmd := exec.Command("git", "rev-parse", "--verify", "-q", ref+"^{commit}")
	cmd.Dir = g.root
	return cmd.Run() == nil
}

// Ahead reports how many commits ref has that HEAD lacks. Zero means
// the local history already contains everything at ref.
func (g *Git) Ahead(ref string) (int, error) {
	out, err := g.query("rev-list", "--count", "HEAD.."+ref)
	if err != nil {
		// A repository with no commits yet has no HEAD to compare.
		if !g.refExists("HEAD") {
			return g.countRef(ref)
		}
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parsing rev-list count %q: %w", out, err)
	}
	return n, nil
}

func (g *Git) countRef(ref string) (int, error) {
	out, err := g.query("rev-list", "--count", ref)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// ShowFile returns the content of relPath at ref without touching the
// working tree. vcs.ErrNotInRef when the path does not exist there.
func (g *Git) ShowFile(ref, relPath string) ([]byte, error) {
	cmd := exec.Command("git", "show", ref+":"+relPath)
	cmd.Dir = g.root
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %s", vcs.ErrNotInRef, relPath, ref)
	}
	return output, nil
}

// ListFiles returns the paths under relDir at ref, one per tracked
// file. An absent directory yields an empty list.
func (g *Git) ListFiles(ref, relDir string) ([]string, error) {
	out, err := g.query("ls-tree", "-r", "--name-only", ref, relDir)
	if err != nil || out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// MergeOurs records a merge with ref that keeps the local tree exactly
// as-is. The structural merge has already folded the remote records in,
// so the commit only joins the histories. Unrelated histories are
// allowed: a replica initialized independently still converges with the
// shared remote on its first sync.
func (g *Git) MergeOurs(ctx context.Context, ref, message string) error {
	args := g.withIdentity("merge", "-q", "-s", "ours",
		"--allow-unrelated-histories", "-m", message, ref)
	_, err := g.run(ctx, args...)
	return err
}

// Push publishes the current branch to origin, setting upstream on
// first use. vcs.ErrPushRejected when the remote refuses a
// non-fast-forward update.
func (g *Git) Push(ctx context.Context) error {
	if !g.HasRemote() {
		return vcs.ErrNoRemote
	}
	branch, err := g.CurrentBranch()
	if err != nil {
		return err
	}

	output, err := g.run(ctx, "push", "-q", "-u", remoteName, branch)
	if err != nil {
		text := string(output)
		if strings.Contains(text, "rejected") || strings.Contains(text, "non-fast-forward") {
			return fmt.Errorf("%w: %s", vcs.ErrPushRejected, branch)
		}
		return err
	}
	return nil
}

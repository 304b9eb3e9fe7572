package git

import (
	"context"
	"fmt"
	"os/exec"
)

// HasChanges reports whether the working tree differs from HEAD,
// counting untracked files.
func (g *Git) HasChanges() (bool, error) {
	status, err := g.query("status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("checking working tree: %w", err)
	}
	return status != "", nil
}

// CommitIfDirty stages everything and commits with message, but only
// when the working tree actually changed. Reports whether a commit was
// created. A repeated sync with nothing new leaves history untouched.
func (g *Git) CommitIfDirty(ctx context.Context, message string) (bool, error) {
	dirty, err := g.HasChanges()
	if err != nil {
		return false, err
	}
	if !dirty {
		return false, nil
	}

	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return false, err
	}
	if _, err := g.run(ctx, g.withIdentity("commit", "-q", "-m", message)...); err != nil {
		return false, err
	}
	return true, nil
}

// withIdentity prepends a fixed committer identity when the host has no
// git config, so commits work on fresh machines without setup.
func (g *Git) withIdentity(args ...string) []string {
	cmd := exec.Command("git", "config", "user.email")
	cmd.Dir = g.root
	if cmd.Run() == nil {
		return args
	}
	return append([]string{
		"-c", "user.name=burrow",
		"-c", "user.email=burrow@localhost",
	}, args...)
}

// Package vcs defines the remote-transport interface consumed by the
// sync orchestrator.
//
// The database root doubles as a version-controlled working copy. The
// transport materializes it (clone), records local changes (commit, only
// when the tree is dirty), inspects remote divergence and publishes
// (push). Shard files are never merged textually through the transport:
// on divergence the orchestrator reads the remote table content via
// ShowFile, replays a structural merge locally, and seals the result
// with an "ours" merge commit.
//
// The only implementation is internal/vcs/git, which shells out to the
// git binary.
package vcs

import (
	"context"
	"strings"
)

// Transport is the version-control collaborator for one database root.
type Transport interface {
	// Root returns the working-copy root directory.
	Root() string

	// HasRemote reports whether a remote is configured. Without one,
	// sync is local-only and the remote operations are skipped.
	HasRemote() bool

	// CurrentBranch returns the checked-out branch name.
	CurrentBranch() (string, error)

	// Fetch updates remote-tracking refs.
	Fetch(ctx context.Context) error

	// RemoteRef returns the remote-tracking ref matching the current
	// branch, falling back to the remote's default branch, and whether
	// one exists. Branch names are discovered, never assumed.
	RemoteRef() (string, bool)

	// Ahead reports how many commits ref has that HEAD lacks.
	Ahead(ref string) (int, error)

	// ShowFile returns the content of relPath at ref. ErrNotInRef when
	// the path does not exist there.
	ShowFile(ref, relPath string) ([]byte, error)

	// CommitIfDirty stages everything and commits with message, but
	// only if the working tree actually changed. Reports whether a
	// commit was created.
	CommitIfDirty(ctx context.Context, message string) (bool, error)

	// MergeOurs records a merge with ref that keeps the local tree
	// exactly as-is.
	MergeOurs(ctx context.Context, ref, message string) error

	// Push publishes the current branch, setting upstream on first use.
	Push(ctx context.Context) error
}

// ExpandRemoteURL turns the "user/repo" shorthand into an SSH remote
// URL. Full URLs (anything carrying a scheme or host separator) and
// filesystem paths pass through untouched.
func ExpandRemoteURL(remote string) string {
	if strings.Contains(remote, ":") ||
		strings.HasPrefix(remote, "/") ||
		strings.HasPrefix(remote, ".") ||
		strings.HasPrefix(remote, "~") {
		return remote
	}
	parts := strings.Split(remote, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return "git@github.com:" + remote + ".git"
	}
	return remote
}

package vcs

import "errors"

// Common errors returned by transport operations.
//
// Callers match them with errors.Is:
//
//	if errors.Is(err, vcs.ErrNotInVCS) {
//	    // database root is not a repository yet
//	}
var (
	// ErrNotInVCS is returned when the operation requires a repository
	// but none was found at the database root.
	ErrNotInVCS = errors.New("not in a repository")

	// ErrVCSNotAvailable is returned when the git binary is not
	// installed or not in PATH.
	ErrVCSNotAvailable = errors.New("git binary not available")

	// ErrNoRemote is returned when an operation requires a remote
	// but none is configured.
	ErrNoRemote = errors.New("no remote configured")

	// ErrNotInRef is returned by ShowFile when the path does not exist
	// in the requested ref.
	ErrNotInRef = errors.New("path not present in ref")

	// ErrDetached is returned when an operation requires being on a
	// branch but HEAD is detached.
	ErrDetached = errors.New("not on a branch")

	// ErrPushRejected is returned when the remote refuses a push,
	// typically a non-fast-forward update racing another writer.
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrTargetExists is returned by Clone when the destination
	// directory exists and is not empty.
	ErrTargetExists = errors.New("clone target already exists")
)

// IsRetryable reports whether the error is likely to succeed on a
// later sync attempt without user intervention.
func IsRetryable(err error) bool {
	// A rejected push means another replica won the race; the next
	// sync fetches, merges structurally and pushes again.
	return errors.Is(err, ErrPushRejected)
}

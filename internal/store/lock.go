package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// lockFile is the exclusive-writer marker in the database root.
const lockFile = ".burrow.lock"

// staleLockAge is how old a lock must be before it is presumed abandoned
// by a crashed process and taken over.
const staleLockAge = 10 * time.Minute

// ErrLocked is returned when another local process holds the database lock.
var ErrLocked = errors.New("database is locked by another process")

// Lock is an exclusive local write lock on a database root. It serializes
// writers on one machine only; machines never coordinate with each other,
// that is the remote transport's and the merge engine's job. Readers take
// no lock: atomic shard replacement already gives them a consistent
// snapshot.
type Lock struct {
	path string
}

// Acquire takes the exclusive write lock for the database at root.
// A lock older than staleLockAge is presumed left by a crashed process
// and is broken.
func Acquire(root string) (*Lock, error) {
	path := filepath.Join(root, lockFile)
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			f.Close()
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		info, serr := os.Stat(path)
		if serr != nil {
			// Holder released between OpenFile and Stat; retry.
			continue
		}
		if time.Since(info.ModTime()) < staleLockAge {
			return nil, fmt.Errorf("%w (held by pid %s)", ErrLocked, lockHolder(path))
		}
		os.Remove(path)
	}
	return nil, ErrLocked
}

// Release drops the lock. Safe to call once per Acquire.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// lockHolder reads the pid recorded in the lock file, for error messages.
func lockHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "unknown"
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return "unknown"
	}
	return fields[0]
}

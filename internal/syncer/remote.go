package syncer

import (
	"context"
	"fmt"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/burrowfeed/burrow/internal/store"
	"github.com/burrowfeed/burrow/internal/vcs"
)

// publish records local changes and reconciles with the remote replica.
// Divergence is resolved structurally: the remote shard files are
// decoded and replayed through Merge, the result is committed, and an
// "ours" merge commit joins the histories so the push fast-forwards.
func (s *Syncer) publish(ctx context.Context, stats *Stats) error {
	committed, err := s.transport.CommitIfDirty(ctx, "sync: update feeds and posts")
	if err != nil {
		return fmt.Errorf("committing sync results: %w", err)
	}
	stats.Committed = committed

	if !s.transport.HasRemote() {
		return nil
	}

	if err := s.transport.Fetch(ctx); err != nil {
		return fmt.Errorf("fetching remote: %w", err)
	}

	ref, ok := s.transport.RemoteRef()
	if ok {
		ahead, err := s.transport.Ahead(ref)
		if err != nil {
			return fmt.Errorf("checking divergence with %s: %w", ref, err)
		}
		if ahead > 0 {
			log.Printf("[INFO] remote %s is %d commits ahead, merging records", ref, ahead)
			if err := s.mergeRemote(ctx, ref); err != nil {
				return err
			}
		}
	}

	if err := s.transport.Push(ctx); err != nil {
		return err
	}
	stats.Pushed = true
	return nil
}

// mergeRemote folds the remote replica's records into the local tables
// and seals the result with a merge commit.
func (s *Syncer) mergeRemote(ctx context.Context, ref string) error {
	if err := mergeRemoteTable(s.transport, ref, s.db.Feeds); err != nil {
		return err
	}
	if err := mergeRemoteTable(s.transport, ref, s.db.Posts); err != nil {
		return err
	}

	if _, err := s.transport.CommitIfDirty(ctx, "sync: merge remote records"); err != nil {
		return fmt.Errorf("committing remote merge: %w", err)
	}
	if err := s.transport.MergeOurs(ctx, ref, "sync: join remote history"); err != nil {
		return err
	}
	return nil
}

// lister is the optional transport capability for enumerating files at
// a ref. The git implementation provides it.
type lister interface {
	ListFiles(ref, relDir string) ([]string, error)
}

// mergeRemoteTable decodes every shard file of one table at ref and
// replays the records through the table's merge. Merge idempotence
// makes replaying already-known records a no-op.
func mergeRemoteTable[T store.Record[T]](t vcs.Transport, ref string, table *store.Table[T]) error {
	ls, ok := t.(lister)
	if !ok {
		return nil
	}
	files, err := ls.ListFiles(ref, table.Name())
	if err != nil {
		return fmt.Errorf("listing %s at %s: %w", table.Name(), ref, err)
	}

	var batch []T
	for _, f := range files {
		if !strings.HasSuffix(f, ".jsonl") {
			continue
		}
		data, err := t.ShowFile(ref, f)
		if err != nil {
			return fmt.Errorf("reading %s at %s: %w", f, ref, err)
		}
		recs, err := store.DecodeAll[T](data)
		if err != nil {
			return fmt.Errorf("decoding %s at %s: %w", f, ref, err)
		}
		batch = append(batch, recs...)
	}

	if len(batch) == 0 {
		return nil
	}
	st, err := table.Merge(batch)
	if err != nil {
		return fmt.Errorf("merging remote %s: %w", table.Name(), err)
	}
	log.Printf("[DEBUG] remote %s: %d inserted, %d updated, %d unchanged",
		table.Name(), st.Inserted, st.Updated, st.Unchanged)
	return nil
}

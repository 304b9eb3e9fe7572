package store

import (
	"encoding/json"
	"fmt"
)

// MergeStats reports what a merge changed.
type MergeStats struct {
	// Inserted is the number of candidate records whose id was absent.
	Inserted int

	// Updated is the number of existing records that a candidate changed.
	Updated int

	// Unchanged is the number of candidates that merged to an identical
	// record. Re-applying a batch yields all-Unchanged.
	Unchanged int
}

// Merge unions a batch of candidate records into the table.
//
// A candidate whose id is absent is inserted. A candidate whose id exists
// is combined with the stored record through the record's Merge method: a
// field-level, non-destructive union that never moves updated_at backward.
// The operation is commutative and idempotent, which is the whole sync
// protocol: two machines that fetched the same item computed the same id,
// so merging either machine's state into the other is a plain set union
// and there is nothing to resolve by hand.
//
// Affected shards are loaded once, merged in memory and committed through
// a transaction; untouched shards are never rewritten.
func (t *Table[T]) Merge(batch []T) (MergeStats, error) {
	var stats MergeStats
	if len(batch) == 0 {
		return stats, nil
	}

	byShard := make(map[int][]T)
	for _, cand := range batch {
		if cand.ID() == "" {
			return stats, fmt.Errorf("merge table %s: candidate with empty id", t.opts.Name)
		}
		idx := t.shardIndex(cand.ID())
		byShard[idx] = append(byShard[idx], cand)
	}

	tx := t.Begin()
	for idx, cands := range byShard {
		current, err := t.readShard(idx)
		if err != nil {
			return stats, fmt.Errorf("merge table %s: %w", t.opts.Name, err)
		}
		existing := make(map[string]T, len(current))
		for _, rec := range current {
			existing[rec.ID()] = rec
		}

		for _, cand := range cands {
			old, ok := existing[cand.ID()]
			if !ok {
				existing[cand.ID()] = cand
				tx.Upsert(cand)
				stats.Inserted++
				continue
			}
			merged := old.Merge(cand)
			if sameRecord(old, merged) {
				stats.Unchanged++
				continue
			}
			existing[cand.ID()] = merged
			tx.Upsert(merged)
			stats.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}
	return stats, nil
}

// sameRecord compares two records through their serialized form, which is
// also the form equality matters for: identical lines produce identical
// shard files and an empty diff for the remote transport.
func sameRecord[T any](a, b T) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

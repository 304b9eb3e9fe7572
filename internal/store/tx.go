package store

import "fmt"

// Tx is an ordered batch of upserts and deletes against one table.
// Transactions are ephemeral: built, committed, discarded. The store
// persists only the resulting shard contents, never the transaction
// itself.
//
// Commit is all-or-nothing per shard. A crash between two shard
// replacements leaves the earlier shards committed and the later ones
// untouched; merge idempotence makes that self-healing on the next sync.
type Tx[T Record[T]] struct {
	table   *Table[T]
	upserts map[string]T
	deletes map[string]bool
}

// Begin starts an empty transaction. The caller is expected to hold the
// database lock (see Acquire) if other local writers may exist.
func (t *Table[T]) Begin() *Tx[T] {
	return &Tx[T]{
		table:   t,
		upserts: make(map[string]T),
		deletes: make(map[string]bool),
	}
}

// Upsert stages a record. A later Upsert or Delete of the same id within
// the transaction wins.
func (tx *Tx[T]) Upsert(rec T) {
	id := rec.ID()
	delete(tx.deletes, id)
	tx.upserts[id] = rec
}

// Delete stages removal of a record by id.
func (tx *Tx[T]) Delete(id string) {
	delete(tx.upserts, id)
	tx.deletes[id] = true
}

// Empty reports whether the transaction stages no operations.
func (tx *Tx[T]) Empty() bool {
	return tx.Pending() == 0
}

// Pending returns the number of staged operations.
func (tx *Tx[T]) Pending() int {
	return len(tx.upserts) + len(tx.deletes)
}

// Commit applies the staged operations, rewriting each touched shard
// atomically. On error the failing shard keeps its old content; shards
// already rewritten stay rewritten and are not rolled back.
func (tx *Tx[T]) Commit() error {
	if tx.Empty() {
		return nil
	}
	t := tx.table
	t.sweepStaleTemps()

	touched := make(map[int]bool)
	for id := range tx.upserts {
		touched[t.shardIndex(id)] = true
	}
	for id := range tx.deletes {
		touched[t.shardIndex(id)] = true
	}

	for idx := 0; idx < t.opts.Shards; idx++ {
		if !touched[idx] {
			continue
		}
		if err := tx.commitShard(idx); err != nil {
			return fmt.Errorf("commit table %s: %w", t.opts.Name, err)
		}
	}

	tx.upserts = make(map[string]T)
	tx.deletes = make(map[string]bool)
	return nil
}

// commitShard rewrites a single shard with the staged operations applied.
func (tx *Tx[T]) commitShard(idx int) error {
	t := tx.table
	current, err := t.readShard(idx)
	if err != nil {
		return err
	}

	byID := make(map[string]T, len(current))
	for _, rec := range current {
		byID[rec.ID()] = rec
	}
	for id, rec := range tx.upserts {
		if t.shardIndex(id) == idx {
			byID[id] = rec
		}
	}
	for id := range tx.deletes {
		if t.shardIndex(id) == idx {
			delete(byID, id)
		}
	}

	recs := make([]T, 0, len(byID))
	for _, rec := range byID {
		recs = append(recs, rec)
	}
	return t.writeShard(idx, recs)
}

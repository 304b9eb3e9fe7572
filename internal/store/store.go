// Package store implements burrow's sharded, id-keyed document store.
//
// A Table holds records of one kind as line-delimited JSON, physically
// partitioned into a fixed number of shard files under the database root:
//
//	<root>/<table>/00.jsonl
//	<root>/<table>/01.jsonl
//	...
//
// A record's shard is a pure function of its id (the leading byte of the
// hex id scaled to the shard count), so a given id can be located without
// scanning other shards, and no rebalancing is ever needed. The mapping is
// order-preserving: scanning shard files in index order yields records in
// globally ascending id order.
//
// # Crash safety
//
// Every shard rewrite stages the new content in a temporary file and
// atomically renames it over the old shard, so a reader observes either
// the fully old or fully new content, never a partial write. A transaction
// touching several shards can still be interrupted between two renames;
// that is an accepted outcome, because table merges are idempotent and the
// next sync converges to the same state. There is no repair step and no
// transaction log.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNotFound is returned when a record id is absent from its table.
// It is always wrapped with the table name and the id searched for.
var ErrNotFound = errors.New("record not found")

// Record is the capability a type must provide to live in a Table.
//
// ID returns the record's hex identifier. Merge combines the receiver with
// a candidate carrying the same id and returns the result; it must be
// commutative and idempotent at the field level so that replaying the same
// batch, in any order, converges.
type Record[T any] interface {
	ID() string
	Merge(other T) T
}

// Options describes the physical layout of one table. Shard count and id
// length are fixed per table: small tables get few shards and short ids,
// tables expected to scale get more of both.
type Options struct {
	// Name is the table directory name under the database root.
	Name string

	// Shards is the number of shard files. Must be between 1 and 256.
	Shards int

	// IDLen is the hex id length generated for this table's records.
	// The store itself only requires ids to be non-empty hex strings;
	// IDLen is advisory for id generators.
	IDLen int
}

// Table is a sharded collection of records of one kind.
type Table[T Record[T]] struct {
	dir  string
	opts Options
}

// Open prepares the table directory under root and returns the table.
// Shard files are created lazily on first write.
func Open[T Record[T]](root string, opts Options) (*Table[T], error) {
	if opts.Name == "" {
		return nil, errors.New("store: table name required")
	}
	if opts.Shards < 1 || opts.Shards > 256 {
		return nil, fmt.Errorf("store: table %s: shard count %d out of range", opts.Name, opts.Shards)
	}
	dir := filepath.Join(root, opts.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create table %s: %w", opts.Name, err)
	}
	return &Table[T]{dir: dir, opts: opts}, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.opts.Name }

// Dir returns the table directory.
func (t *Table[T]) Dir() string { return t.dir }

// Options returns the table layout options.
func (t *Table[T]) Options() Options { return t.opts }

// Get returns the record with the given id, or a wrapped ErrNotFound.
// Only the shard the id routes to is read.
func (t *Table[T]) Get(id string) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("table %s: empty id: %w", t.opts.Name, ErrNotFound)
	}
	recs, err := t.readShard(t.shardIndex(id))
	if err != nil {
		return zero, err
	}
	i := sort.Search(len(recs), func(i int) bool { return recs[i].ID() >= id })
	if i < len(recs) && recs[i].ID() == id {
		return recs[i], nil
	}
	return zero, fmt.Errorf("table %s: record %s: %w", t.opts.Name, id, ErrNotFound)
}

// Scan calls fn for every record in ascending id order, reading one shard
// at a time. Returning an error from fn stops the scan and the error is
// returned unchanged.
func (t *Table[T]) Scan(fn func(rec T) error) error {
	for idx := 0; idx < t.opts.Shards; idx++ {
		recs, err := t.readShard(idx)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Items returns all records in ascending id order.
func (t *Table[T]) Items() ([]T, error) {
	var out []T
	err := t.Scan(func(rec T) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Len returns the number of records in the table.
func (t *Table[T]) Len() (int, error) {
	n := 0
	err := t.Scan(func(T) error { n++; return nil })
	return n, err
}

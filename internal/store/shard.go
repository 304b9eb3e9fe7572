package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxLineBytes bounds a single serialized record. Feed descriptions can get
// large but nowhere near this.
const maxLineBytes = 1 << 20

// tmpPrefix marks staging files for atomic shard replacement. Readers never
// look at them; stale ones from a crashed writer are swept on the next
// commit.
const tmpPrefix = ".tmp-"

// staleTempAge is how old a staging file must be before a commit sweeps it.
const staleTempAge = time.Hour

// shardIndex routes an id to its shard: the leading byte of the hex id
// scaled to the shard count. Monotone in the id, so shard order preserves
// id order across the table.
func (t *Table[T]) shardIndex(id string) int {
	b := hexByte(id)
	return int(b) * t.opts.Shards / 256
}

// hexByte decodes the first two hex characters of id. Short or malformed
// ids route to byte 0 rather than failing: routing must stay total.
func hexByte(id string) byte {
	var b byte
	for i := 0; i < 2 && i < len(id); i++ {
		b <<= 4
		b |= hexNibble(id[i])
	}
	if len(id) == 1 {
		b <<= 4
	}
	return b
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// shardPath returns the shard file path for the given shard index.
func (t *Table[T]) shardPath(idx int) string {
	return filepath.Join(t.dir, fmt.Sprintf("%02d.jsonl", idx))
}

// readShard loads one shard file. A missing file is an empty shard. Records
// come back sorted ascending by id even if the file was edited by hand.
func (t *Table[T]) readShard(idx int) ([]T, error) {
	path := t.shardPath(idx)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("table %s: open shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	defer f.Close()

	var recs []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("table %s: shard %s line %d: %w", t.opts.Name, filepath.Base(path), line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("table %s: read shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	if !sort.SliceIsSorted(recs, func(i, j int) bool { return recs[i].ID() < recs[j].ID() }) {
		sort.Slice(recs, func(i, j int) bool { return recs[i].ID() < recs[j].ID() })
	}
	return recs, nil
}

// writeShard atomically replaces one shard file with the given records.
// The content is staged in a temporary file in the same directory, synced,
// and renamed over the shard, so a concurrent reader sees either the old
// or the new content in full. The staging file is removed on every error
// path.
func (t *Table[T]) writeShard(idx int, recs []T) (err error) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID() < recs[j].ID() })

	path := t.shardPath(idx)
	tmp, err := os.CreateTemp(t.dir, tmpPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("table %s: stage shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range recs {
		data, merr := json.Marshal(rec)
		if merr != nil {
			return fmt.Errorf("table %s: encode record %s: %w", t.opts.Name, rec.ID(), merr)
		}
		if _, werr := w.Write(data); werr != nil {
			return fmt.Errorf("table %s: write shard %s: %w", t.opts.Name, filepath.Base(path), werr)
		}
		if werr := w.WriteByte('\n'); werr != nil {
			return fmt.Errorf("table %s: write shard %s: %w", t.opts.Name, filepath.Base(path), werr)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("table %s: flush shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("table %s: sync shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("table %s: chmod shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("table %s: close shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("table %s: replace shard %s: %w", t.opts.Name, filepath.Base(path), err)
	}
	renamed = true
	syncDir(t.dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Best effort: some
// filesystems don't support fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}

// sweepStaleTemps removes staging files left behind by a crashed writer.
// Called at the start of a commit, under the caller's database lock, so it
// cannot race a live writer. Recent temps are left alone.
func (t *Table[T]) sweepStaleTemps() {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-staleTempAge)
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		os.Remove(filepath.Join(t.dir, e.Name()))
	}
}

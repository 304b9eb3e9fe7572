package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeAll parses shard-file content (one JSON record per line) into
// records, skipping blank lines. Used when replaying a remote replica's
// shard files through Merge, where the bytes come from version control
// rather than the local table directory.
func DecodeAll[T any](data []byte) ([]T, error) {
	var out []T
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decoding line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

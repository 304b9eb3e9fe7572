// Package daemon keeps a database root fresh: it syncs on an interval
// and watches the table directories so externally written shard files
// (a git pull, another tool, a hand edit) trigger a sync ahead of
// schedule.
package daemon

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new shard file appeared.
	OpCreate EventOp = iota
	// OpModify indicates an existing shard file was rewritten.
	OpModify
	// OpDelete indicates a shard file was removed.
	OpDelete
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// TableEvent is a change to one shard file of a watched table.
type TableEvent struct {
	// Table is the table directory name, e.g. "feeds" or "posts".
	Table string
	// Path is the absolute path of the shard file that changed.
	Path string
	// Op is the operation that occurred.
	Op EventOp
}

// TableWatcher emits TableEvents for shard-file changes under the
// watched table directories. Temp staging files are ignored, so only
// completed shard renames and external writes come through.
type TableWatcher struct {
	watcher *fsnotify.Watcher
	events  chan TableEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	dirs    map[string]string // absolute dir -> table name
}

// NewTableWatcher creates a watcher. It must be started with Start()
// before it emits events.
func NewTableWatcher() (*TableWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &TableWatcher{
		watcher: watcher,
		events:  make(chan TableEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		dirs:    make(map[string]string),
	}, nil
}

// Start begins watching the given table directories.
func (tw *TableWatcher) Start(dirs ...string) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.running {
		return fmt.Errorf("watcher already running")
	}

	var added []string
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", dir, err)
		}
		if err := tw.watcher.Add(abs); err != nil {
			for _, a := range added {
				tw.watcher.Remove(a)
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		added = append(added, abs)
		tw.dirs[abs] = filepath.Base(abs)
	}

	tw.running = true
	tw.wg.Add(1)
	go tw.processEvents()

	return nil
}

// Stop stops watching and blocks until the event loop has exited.
func (tw *TableWatcher) Stop() error {
	tw.mu.Lock()
	if !tw.running {
		tw.mu.Unlock()
		return nil
	}
	tw.running = false
	tw.mu.Unlock()

	close(tw.done)

	if err := tw.watcher.Close(); err != nil {
		return fmt.Errorf("closing watcher: %w", err)
	}

	tw.wg.Wait()
	close(tw.events)
	close(tw.errors)

	return nil
}

// Events returns the channel emitting shard-file changes. Closed when
// the watcher stops.
func (tw *TableWatcher) Events() <-chan TableEvent {
	return tw.events
}

// Errors returns the channel emitting watcher errors. Closed when the
// watcher stops.
func (tw *TableWatcher) Errors() <-chan error {
	return tw.errors
}

func (tw *TableWatcher) processEvents() {
	defer tw.wg.Done()

	for {
		select {
		case <-tw.done:
			return

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if te, ok := tw.convertEvent(event); ok {
				select {
				case tw.events <- te:
				case <-tw.done:
					return
				}
			}

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case tw.errors <- err:
			case <-tw.done:
				return
			}
		}
	}
}

// convertEvent filters and translates an fsnotify event. Only completed
// shard files count; the writer's dot-prefixed temp files are staging
// noise.
func (tw *TableWatcher) convertEvent(event fsnotify.Event) (TableEvent, bool) {
	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".jsonl") || strings.HasPrefix(base, ".") {
		return TableEvent{}, false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return TableEvent{}, false
	}
	table, ok := tw.dirs[filepath.Dir(abs)]
	if !ok {
		return TableEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// The new name arrives as a separate create.
		op = OpDelete
	default:
		return TableEvent{}, false
	}

	return TableEvent{Table: table, Path: abs, Op: op}, true
}

// IsRunning reports whether the watcher is active.
func (tw *TableWatcher) IsRunning() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.running
}

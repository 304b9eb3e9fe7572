package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
)

// SyncFunc runs one sync pass. The daemon treats a returned error as
// transient and keeps running.
type SyncFunc func(ctx context.Context) error

// Config holds daemon timing knobs.
type Config struct {
	// SyncInterval is the cadence of scheduled syncs.
	SyncInterval time.Duration

	// DebounceInterval batches rapid external shard changes into one
	// early sync instead of one per file.
	DebounceInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SyncInterval:     15 * time.Minute,
		DebounceInterval: 500 * time.Millisecond,
	}
}

// Daemon syncs on an interval and reacts to external table changes.
type Daemon struct {
	sync SyncFunc
	dirs []string
	cfg  Config

	mu      sync.Mutex
	pending map[string]time.Time // path -> first seen
	syncing bool
}

// New creates a daemon watching the given table directories. Zero
// config fields select the defaults.
func New(syncFn SyncFunc, dirs []string, cfg Config) (*Daemon, error) {
	if syncFn == nil {
		return nil, fmt.Errorf("sync function cannot be nil")
	}
	def := DefaultConfig()
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = def.SyncInterval
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = def.DebounceInterval
	}

	return &Daemon{
		sync:    syncFn,
		dirs:    dirs,
		cfg:     cfg,
		pending: make(map[string]time.Time),
	}, nil
}

// Run blocks until ctx is cancelled. It performs an initial sync, then
// syncs on every interval tick and whenever external shard changes
// settle past the debounce window.
func (d *Daemon) Run(ctx context.Context) error {
	watcher, err := NewTableWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Start(d.dirs...); err != nil {
		return err
	}
	defer watcher.Stop()

	log.Printf("[INFO] daemon started, sync interval %s", d.cfg.SyncInterval)
	d.doSync(ctx, "startup")

	interval := time.NewTicker(d.cfg.SyncInterval)
	defer interval.Stop()
	debounce := time.NewTicker(d.cfg.DebounceInterval)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] daemon stopping")
			return ctx.Err()

		case <-interval.C:
			d.doSync(ctx, "interval")

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			d.queueChange(ev)

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", err)

		case <-debounce.C:
			if n := d.settledChanges(); n > 0 {
				log.Printf("[INFO] %d external shard changes detected", n)
				d.doSync(ctx, "external change")
			}
		}
	}
}

// queueChange records an external shard change. Changes arriving while
// a sync is writing are the daemon's own output and are dropped.
func (d *Daemon) queueChange(ev TableEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.syncing {
		return
	}
	if _, ok := d.pending[ev.Path]; !ok {
		d.pending[ev.Path] = time.Now()
		log.Printf("[DEBUG] %s %s shard %s", ev.Op, ev.Table, ev.Path)
	}
}

// settledChanges counts and clears the queue once every entry has aged
// past the debounce window. It returns 0 while changes are still
// arriving.
func (d *Daemon) settledChanges() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return 0
	}
	cutoff := time.Now().Add(-d.cfg.DebounceInterval)
	for _, seen := range d.pending {
		if seen.After(cutoff) {
			return 0
		}
	}
	n := len(d.pending)
	d.pending = make(map[string]time.Time)
	return n
}

// doSync runs one sync pass, suppressing the watcher events it causes.
func (d *Daemon) doSync(ctx context.Context, reason string) {
	d.mu.Lock()
	d.syncing = true
	d.mu.Unlock()

	if err := d.sync(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[WARN] sync (%s) failed: %v", reason, err)
	} else if ctx.Err() == nil {
		log.Printf("[DEBUG] sync (%s) complete", reason)
	}

	d.mu.Lock()
	d.syncing = false
	d.pending = make(map[string]time.Time)
	d.mu.Unlock()
}

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherEmitsShardEvents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "feeds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	tw, err := NewTableWatcher()
	if err != nil {
		t.Fatalf("NewTableWatcher() failed: %v", err)
	}
	if err := tw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer tw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "00.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-tw.Events():
		if ev.Table != "feeds" {
			t.Errorf("Table = %q, want feeds", ev.Table)
		}
		if ev.Op != OpCreate {
			t.Errorf("Op = %v, want create", ev.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event within 2s")
	}
}

func TestWatcherIgnoresTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	tw, err := NewTableWatcher()
	if err != nil {
		t.Fatal(err)
	}
	if err := tw.Start(dir); err != nil {
		t.Fatal(err)
	}
	defer tw.Stop()

	// Staging temp files and non-shard files never surface.
	if err := os.WriteFile(filepath.Join(dir, ".tmp-00.jsonl"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-tw.Events():
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	tw, err := NewTableWatcher()
	if err != nil {
		t.Fatal(err)
	}
	if err := tw.Start(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if !tw.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := tw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if err := tw.Stop(); err != nil {
		t.Fatalf("second Stop() failed: %v", err)
	}
	if tw.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestDaemonSyncsOnExternalChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "feeds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	var syncs atomic.Int32
	d, err := New(func(ctx context.Context) error {
		syncs.Add(1)
		return nil
	}, []string{dir}, Config{
		SyncInterval:     time.Hour, // interval out of the picture
		DebounceInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	// Wait for the startup sync before planting the external change.
	deadline := time.Now().Add(2 * time.Second)
	for syncs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if syncs.Load() < 1 {
		t.Fatal("startup sync never ran")
	}

	if err := os.WriteFile(filepath.Join(dir, "03.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for syncs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if syncs.Load() < 2 {
		t.Error("external change did not trigger a sync")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestDaemonRequiresSyncFunc(t *testing.T) {
	if _, err := New(nil, nil, Config{}); err == nil {
		t.Error("New() accepted a nil sync function")
	}
}

package templates

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_NewTemplatePickedUp(t *testing.T) {
	root := t.TempDir()
	r, err := NewRegistry(root)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notified atomic.Int32
	go func() {
		_ = r.Watch(ctx, testLogger(), func() { notified.Add(1) })
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "new.md"), []byte("---\ntags:\n  - x\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := r.Get("new")
		return ok
	}, "new template not picked up by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return notified.Load() > 0
	}, "expected refresh callback")
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	r, err := NewRegistry(root)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = r.Watch(ctx, testLogger(), nil)
	}()

	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "daily")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "journal.md"), []byte("J\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := r.Get("daily/journal")
		return ok
	}, "template in new directory not picked up")
}

func TestWatch_RemovedTemplateDropped(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.md")
	if err := os.WriteFile(path, []byte("O\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewRegistry(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get("old"); !ok {
		t.Fatal("initial scan missed template")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = r.Watch(ctx, testLogger(), nil)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := r.Get("old")
		return !ok
	}, "removed template still in registry")
}

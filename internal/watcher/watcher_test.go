package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/relink/internal/relink"
	"github.com/starford/relink/internal/testutil"
)

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

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestWatcher_NewDocumentRelinked(t *testing.T) {
	root, store := testutil.TestCorpus(t, map[string]string{"target.md": "# Target"})
	cfg := Config{Extension: "md", Debounce: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, store, cfg, quietLogger(), func(ctx context.Context) error {
			runs.Add(1)
			_, err := relink.Run(ctx, store, relink.Options{})
			return err
		})
	}()
	time.Sleep(100 * time.Millisecond)

	testutil.WriteFile(t, root, "New Doc.md", "see [[Target]]")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		data, err := os.ReadFile(filepath.Join(root, "new_doc.md"))
		return err == nil && string(data) == "see [target](target.md)"
	}, "new document was not renamed and relinked")

	// The run's own rename and write must not keep the watcher busy.
	settled := runs.Load()
	time.Sleep(300 * time.Millisecond)
	if extra := runs.Load() - settled; extra > 1 {
		t.Errorf("watcher kept running after its own changes: %d extra runs", extra)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root, store := testutil.TestCorpus(t, nil)
	cfg := Config{Extension: "md", Debounce: 20 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	go Watch(ctx, store, cfg, quietLogger(), func(context.Context) error {
		runs.Add(1)
		return nil
	})
	time.Sleep(100 * time.Millisecond)

	testutil.WriteFile(t, root, "image.png", "binary")
	time.Sleep(200 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("runs = %d, want 0", n)
	}
}

func TestWatcher_RunErrorStops(t *testing.T) {
	root, store := testutil.TestCorpus(t, nil)
	cfg := Config{Extension: "md", Debounce: 20 * time.Millisecond}

	done := make(chan error, 1)
	go func() {
		done <- Watch(context.Background(), store, cfg, quietLogger(), func(context.Context) error {
			return os.ErrPermission
		})
	}()
	time.Sleep(100 * time.Millisecond)
	testutil.WriteFile(t, root, "a.md", "x")

	select {
	case err := <-done:
		if err != os.ErrPermission {
			t.Errorf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not return the run error")
	}
}

func TestChanged(t *testing.T) {
	root, store := testutil.TestCorpus(t, map[string]string{"a.md": "same"})
	seen, err := snapshot(store, Config{Extension: "md"})
	if err != nil {
		t.Fatal(err)
	}
	if changed(store, seen, "a.md", 0) {
		t.Error("identical content reported as changed")
	}
	testutil.WriteFile(t, root, "a.md", "different")
	if !changed(store, seen, "a.md", 0) {
		t.Error("edited content not reported")
	}
	if err := os.Remove(filepath.Join(root, "a.md")); err != nil {
		t.Fatal(err)
	}
	if !changed(store, seen, "a.md", fsnotify.Remove) {
		t.Error("removal of a known document not reported")
	}
	if changed(store, seen, "ghost.md", fsnotify.Remove) {
		t.Error("removal of an unknown document reported")
	}
}

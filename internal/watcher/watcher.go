// Package watcher re-runs the relink pipeline when documents in the corpus change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/relink/internal/checksum"
	"github.com/starford/relink/internal/storage"
)

// RunFunc performs one pipeline run.
type RunFunc func(ctx context.Context) error

// Config selects the documents whose changes trigger a run.
type Config struct {
	Extension string
	Exclude   []string
	Debounce  time.Duration
}

// Watch starts an fsnotify watcher on the corpus root and calls run after
// each debounced burst of document changes until ctx is cancelled. A run
// error stops the watcher and is returned.
//
// After every run the watcher records a checksum per document; events whose
// file content still matches that snapshot, such as the ones caused by the
// run's own renames and writes, do not schedule another run.
func Watch(ctx context.Context, store storage.Provider, cfg Config, logger *slog.Logger, run RunFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}

	seen, err := snapshot(store, cfg)
	if err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// debounceTimer coalesces bursts of events into a single run.
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounceTimer == nil {
			debounceTimer = time.NewTimer(cfg.Debounce)
			debounceCh = debounceTimer.C
		} else {
			debounceTimer.Reset(cfg.Debounce)
		}
	}

	suffix := "." + cfg.Extension

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			debounceTimer = nil
			debounceCh = nil
			if err := run(ctx); err != nil {
				return err
			}
			if seen, err = snapshot(store, cfg); err != nil {
				return err
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}

			if !strings.HasSuffix(absPath, suffix) {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if changed(store, seen, rel, ev.Op) {
				logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// changed reports whether an event on rel differs from the last snapshot.
func changed(store storage.Provider, seen map[string]string, rel string, op fsnotify.Op) bool {
	prev, known := seen[rel]
	if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if exists, err := store.Exists(rel); err == nil && !exists {
			return known
		}
	}
	sum, err := checksum.Document(store, rel)
	if err != nil {
		return known
	}
	return !known || prev != sum
}

// snapshot maps every document to the checksum of its content.
func snapshot(store storage.Provider, cfg Config) (map[string]string, error) {
	docs, err := store.List(cfg.Extension, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(docs))
	for _, rel := range docs {
		sum, err := checksum.Document(store, rel)
		if err != nil {
			continue
		}
		out[rel] = sum
	}
	return out, nil
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

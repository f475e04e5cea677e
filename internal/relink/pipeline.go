package relink

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/relink/internal/storage"
)

// Stats is what a full run reports to the presentation layer.
type Stats struct {
	FileCount    int
	FilesChanged int
	LinksChanged int
	Renamed      int
	Collisions   int
	Unresolved   int
}

// Run builds the index to completion and then rewrites links against it.
// The two passes walk the tree independently so the rewrite observes every
// rename made by the first pass.
func Run(ctx context.Context, store storage.Provider, opts Options) (Stats, error) {
	opts = opts.withDefaults()
	start := time.Now()

	idx, built, err := BuildIndex(ctx, store, opts)
	if err != nil {
		return Stats{}, err
	}
	rewritten, err := Rewrite(ctx, store, idx, opts)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		FileCount:    built.FileCount,
		FilesChanged: rewritten.FilesChanged,
		LinksChanged: rewritten.LinksChanged,
		Renamed:      built.Renamed,
		Collisions:   built.Collisions,
		Unresolved:   rewritten.Unresolved,
	}
	opts.Logger.Info("run complete",
		slog.String("root", store.Root()),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("files", stats.FileCount),
		slog.Int("scanned", rewritten.Scanned),
		slog.Int("renamed", stats.Renamed),
		slog.Int("files_changed", stats.FilesChanged),
		slog.Int("links_changed", stats.LinksChanged),
		slog.Int("unresolved", stats.Unresolved),
		slog.Int("collisions", stats.Collisions),
		slog.Duration("elapsed", time.Since(start)))
	return stats, nil
}

// Plan builds the index a run would produce without renaming anything.
func Plan(ctx context.Context, store storage.Provider, opts Options) (*Index, BuildStats, error) {
	opts.DryRun = true
	opts.Recorder = nil
	return BuildIndex(ctx, store, opts)
}

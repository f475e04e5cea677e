package relink

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/relink/internal/apperr"
	"github.com/starford/relink/internal/models"
	"github.com/starford/relink/internal/slug"
	"github.com/starford/relink/internal/storage"
)

// BuildStats summarizes the index pass.
type BuildStats struct {
	FileCount  int
	Renamed    int
	Collisions int
	Renames    []models.Rename
}

// builder carries the state of one index pass. claimed and vacated track
// moves that a dry run planned but did not perform; layout maps each
// planned path to the file whose content will end up there.
type builder struct {
	store   storage.Provider
	opts    Options
	idx     *Index
	stats   BuildStats
	claimed map[string]bool
	vacated map[string]bool
	layout  map[string]string
}

// BuildIndex walks the corpus, renames every document whose stem is not in
// canonical form and indexes each document under the key derived from its
// final path. Renames are complete when BuildIndex returns.
func BuildIndex(ctx context.Context, store storage.Provider, opts Options) (*Index, BuildStats, error) {
	opts = opts.withDefaults()
	docs, err := store.List(opts.Extension, opts.Exclude)
	if err != nil {
		return nil, BuildStats{}, err
	}

	b := &builder{
		store:   store,
		opts:    opts,
		idx:     newIndex(),
		claimed: make(map[string]bool),
		vacated: make(map[string]bool),
		layout:  make(map[string]string, len(docs)),
	}
	b.stats.FileCount = len(docs)
	for _, rel := range docs {
		b.layout[rel] = rel
	}

	for _, rel := range docs {
		if err := ctx.Err(); err != nil {
			return nil, b.stats, err
		}
		opts.Progress.Step(PhaseIndex, rel)

		final, err := b.canonicalize(rel)
		if err != nil {
			return nil, b.stats, err
		}
		if err := b.insert(final); err != nil {
			return nil, b.stats, err
		}
	}

	if opts.DryRun {
		b.idx.layout = b.layout
	}

	if opts.Recorder != nil {
		for _, d := range b.idx.Entries() {
			if err := opts.Recorder.RecordEntry(d); err != nil {
				return nil, b.stats, fmt.Errorf("relink: record entry: %w", err)
			}
		}
	}

	opts.Logger.Debug("index built",
		slog.Int("documents", b.stats.FileCount),
		slog.Int("keys", b.idx.Len()),
		slog.Int("renamed", b.stats.Renamed))
	return b.idx, b.stats, nil
}

// canonicalize renames rel to its normalized name when needed and returns
// the path the document lives at afterwards. Unlike a plain "rename when the
// name differs" rule, a stem that normalizes to nothing keeps its name
// rather than becoming a bare ".ext" file.
func (b *builder) canonicalize(rel string) (string, error) {
	dir, base := path.Split(rel)
	suffix := "." + b.opts.Extension
	stem := strings.TrimSuffix(base, suffix)

	norm := slug.Normalize(stem)
	if norm == "" {
		b.opts.Logger.Warn("document name has no canonical form, keeping it",
			slog.String("path", rel))
		return rel, nil
	}
	target := dir + norm + suffix
	if target == rel {
		return rel, nil
	}

	taken, err := b.occupied(rel, target)
	if err != nil {
		return "", err
	}
	if taken {
		b.stats.Collisions++
		switch b.opts.Collision {
		case CollisionFail:
			return "", fmt.Errorf("relink: rename %s -> %s: destination exists: %w", rel, target, apperr.ErrCollision)
		case CollisionWarn:
			b.opts.Logger.Warn("rename destination exists, keeping original name",
				slog.String("path", rel),
				slog.String("destination", target))
			return rel, nil
		default:
			b.opts.Logger.Debug("rename replaces existing file",
				slog.String("path", rel),
				slog.String("destination", target))
		}
	}

	if !b.opts.DryRun {
		if err := b.store.Rename(rel, target); err != nil {
			return "", fmt.Errorf("relink: %w: %s -> %s: %w", apperr.ErrRename, rel, target, err)
		}
	}
	src := b.layout[rel]
	delete(b.layout, rel)
	b.layout[target] = src
	b.vacated[rel] = true
	delete(b.claimed, rel)
	b.claimed[target] = true
	delete(b.vacated, target)

	r := models.Rename{From: rel, To: target}
	b.stats.Renamed++
	b.stats.Renames = append(b.stats.Renames, r)
	if b.opts.Recorder != nil {
		if err := b.opts.Recorder.RecordRename(r); err != nil {
			return "", fmt.Errorf("relink: record rename: %w", err)
		}
	}
	b.opts.Logger.Debug("renamed", slog.String("from", rel), slog.String("to", target))
	return target, nil
}

// occupied reports whether target is held by a file other than rel. A
// destination that is the same file (case-only rename on a case-insensitive
// file system) is not occupied.
func (b *builder) occupied(rel, target string) (bool, error) {
	if b.claimed[target] {
		return true, nil
	}
	if b.vacated[target] {
		return false, nil
	}
	exists, err := b.store.Exists(target)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	same, err := b.store.SameFile(rel, target)
	if err != nil {
		return false, err
	}
	return !same, nil
}

// insert indexes the document at rel. A key already held by another path is
// replaced by the later document.
func (b *builder) insert(rel string) error {
	key := slug.PathKey(rel, b.opts.Extension)
	prev, dup := b.idx.Lookup(key)
	if dup && prev != rel {
		b.stats.Collisions++
		switch b.opts.Collision {
		case CollisionFail:
			return fmt.Errorf("relink: key %q claimed by %s and %s: %w", key, prev, rel, apperr.ErrCollision)
		case CollisionWarn:
			b.opts.Logger.Warn("index key collision, later document wins",
				slog.String("key", key),
				slog.String("previous", prev),
				slog.String("path", rel))
		}
	}
	b.idx.put(key, rel)
	return nil
}

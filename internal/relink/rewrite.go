package relink

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/starford/relink/internal/apperr"
	"github.com/starford/relink/internal/models"
	"github.com/starford/relink/internal/parser"
	"github.com/starford/relink/internal/slug"
	"github.com/starford/relink/internal/storage"
)

// RewriteStats summarizes the link pass.
type RewriteStats struct {
	Scanned      int
	FilesChanged int
	LinksChanged int
	Unresolved   int
}

type rewriteCounters struct {
	files      atomic.Int64
	links      atomic.Int64
	unresolved atomic.Int64
}

// Rewrite walks the current state of the corpus and replaces every
// [[target|label]] link with [label](destination). Documents without links
// are not written. In a dry run against a planned index, the corpus is the
// one the planned renames would have produced.
func Rewrite(ctx context.Context, store storage.Provider, idx *Index, opts Options) (RewriteStats, error) {
	opts = opts.withDefaults()

	var docs []string
	var sources map[string]string
	if opts.DryRun && idx.layout != nil {
		docs, sources = idx.planned(opts.Exclude)
	} else {
		var err error
		if docs, err = store.List(opts.Extension, opts.Exclude); err != nil {
			return RewriteStats{}, err
		}
	}

	var c rewriteCounters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, rel := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opts.Progress.Step(PhaseRewrite, rel)
			src := rel
			if s, ok := sources[rel]; ok {
				src = s
			}
			return rewriteDocument(store, idx, opts, rel, src, &c)
		})
	}
	if err := g.Wait(); err != nil {
		return RewriteStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return RewriteStats{}, err
	}

	return RewriteStats{
		Scanned:      len(docs),
		FilesChanged: int(c.files.Load()),
		LinksChanged: int(c.links.Load()),
		Unresolved:   int(c.unresolved.Load()),
	}, nil
}

// rewriteDocument rewrites the document at rel, reading its content from
// src. The two differ only for planned renames in a dry run.
func rewriteDocument(store storage.Provider, idx *Index, opts Options, rel, src string, c *rewriteCounters) error {
	data, err := store.Read(src)
	if err != nil {
		return fmt.Errorf("relink: %w", err)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("relink: %s: %w", src, apperr.ErrEncoding)
	}

	var links []models.Link
	out, n := parser.Rewrite(string(data), func(ref models.LinkRef) string {
		dest, label, resolved := Resolve(idx, ref)
		links = append(links, models.Link{Source: rel, Key: slug.TargetKey(ref.Target), Destination: dest, Resolved: resolved})
		return parser.Render(label, dest)
	})
	if n == 0 {
		return nil
	}

	if !opts.DryRun {
		if err := store.Write(rel, []byte(out)); err != nil {
			return fmt.Errorf("relink: %w", err)
		}
	}

	unresolved := 0
	for _, l := range links {
		if !l.Resolved {
			unresolved++
		}
		if opts.Recorder != nil {
			if err := opts.Recorder.RecordLink(l); err != nil {
				return fmt.Errorf("relink: record link: %w", err)
			}
		}
	}
	c.files.Add(1)
	c.links.Add(int64(n))
	c.unresolved.Add(int64(unresolved))

	opts.Logger.Debug("links rewritten",
		slog.String("path", rel),
		slog.Int("links", n),
		slog.Int("unresolved", unresolved))
	return nil
}

// Resolve maps a link to its destination and display label. A target that
// is not indexed degrades to its lookup key, and the key doubles as the
// label when the link has none.
func Resolve(idx *Index, ref models.LinkRef) (dest, label string, resolved bool) {
	key := slug.TargetKey(ref.Target)
	dest, resolved = idx.Lookup(key)
	if !resolved {
		dest = key
	}
	label = key
	if ref.HasLabel {
		label = ref.Label
	}
	return dest, label, resolved
}

// RewriteText rewrites the links in body against idx without touching disk.
// It returns the new body and the number of links found.
func RewriteText(idx *Index, body string) (string, int) {
	return parser.Rewrite(body, func(ref models.LinkRef) string {
		dest, label, _ := Resolve(idx, ref)
		return parser.Render(label, dest)
	})
}

// Package relink implements the two-pass corpus rewrite: build an index of
// canonical document keys (renaming files on the way), then rewrite every
// wiki-style link against that index.
package relink

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/relink/internal/models"
)

// Index maps canonical keys to slash-separated paths relative to the corpus
// root. It is populated only by BuildIndex and is read-only afterwards, so it
// may be shared by concurrent rewriters.
type Index struct {
	entries map[string]string
	// layout is set by a dry run: planned path -> path the content is read
	// from, since the planned renames never happened.
	layout map[string]string
}

func newIndex() *Index {
	return &Index{entries: make(map[string]string)}
}

// NewIndex builds an index from a fixed key → path mapping.
func NewIndex(entries map[string]string) *Index {
	idx := newIndex()
	for k, v := range entries {
		idx.entries[k] = v
	}
	return idx
}

func (i *Index) put(key, path string) {
	i.entries[key] = path
}

// Lookup returns the indexed path for key.
func (i *Index) Lookup(key string) (string, bool) {
	p, ok := i.entries[key]
	return p, ok
}

// Len returns the number of keys.
func (i *Index) Len() int {
	return len(i.entries)
}

// Entries returns the documents in key order.
func (i *Index) Entries() []models.Document {
	out := make([]models.Document, 0, len(i.entries))
	for k, p := range i.entries {
		out = append(out, models.Document{Path: p, Key: k})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key < out[b].Key })
	return out
}

// planned returns the document paths a dry run expects after its renames,
// minus those matching exclude, and where to read each one from.
func (i *Index) planned(exclude []string) ([]string, map[string]string) {
	paths := make([]string, 0, len(i.layout))
	for p := range i.layout {
		skip := false
		for _, pattern := range exclude {
			if ok, _ := doublestar.Match(pattern, p); ok {
				skip = true
				break
			}
		}
		if !skip {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, i.layout
}

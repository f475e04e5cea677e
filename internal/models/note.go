// Package models defines the domain types for relink.
package models

// Document is a file in the corpus, identified by its slash-separated path
// relative to the corpus root.
type Document struct {
	Path string `json:"path"`
	Key  string `json:"key"`
}

// Rename records a document moved to its canonical name.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LinkRef is one parsed [[target|label]] occurrence in a document body.
// Start and End are byte offsets of the whole match.
type LinkRef struct {
	Target   string `json:"target"`
	Label    string `json:"label,omitempty"`
	HasLabel bool   `json:"has_label"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Link represents a rewritten reference from one document to a destination.
type Link struct {
	Source      string `json:"source"`
	Key         string `json:"key"`
	Destination string `json:"destination"`
	Resolved    bool   `json:"resolved"`
}

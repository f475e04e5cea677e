// Package parser scans wiki-style [[target|label]] links and renders them as
// standard Markdown links.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/relink/internal/models"
)

// wikilinkRe matches [[target]] and [[target|label]]. The target excludes
// '|' and ']', the label excludes ']', and the first "]]" closes the link.
var wikilinkRe = regexp.MustCompile(`\[\[([^|\]]+)(?:\|([^\]]+))?\]\]`)

// Scan returns every link occurrence in body, in order of appearance.
func Scan(body string) []models.LinkRef {
	matches := wikilinkRe.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]models.LinkRef, 0, len(matches))
	for _, m := range matches {
		out = append(out, toRef(body, m))
	}
	return out
}

// Render formats a standard Markdown link.
func Render(label, dest string) string {
	return "[" + label + "](" + dest + ")"
}

// Rewrite replaces every link in body with the string returned by replace.
// The returned count is taken from the original body, before substitution.
func Rewrite(body string, replace func(models.LinkRef) string) (string, int) {
	matches := wikilinkRe.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, 0
	}

	var b strings.Builder
	b.Grow(len(body))
	last := 0
	for _, m := range matches {
		b.WriteString(body[last:m[0]])
		b.WriteString(replace(toRef(body, m)))
		last = m[1]
	}
	b.WriteString(body[last:])
	return b.String(), len(matches)
}

func toRef(body string, m []int) models.LinkRef {
	ref := models.LinkRef{
		Target: body[m[2]:m[3]],
		Start:  m[0],
		End:    m[1],
	}
	if m[4] >= 0 {
		ref.Label = body[m[4]:m[5]]
		ref.HasLabel = true
	}
	return ref
}

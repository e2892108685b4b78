// Package dedup maintains the identity sets that keep generated documentation
// entries from repeating themselves or pre-existing records. Two keys identify
// an entry: its normalized title and the normalized prefix of its text.
// Either colliding is enough to reject
package dedup

import (
	"strings"

	str "cpoflow/internal/platform/strings"
)

// DefaultSnippetTokens is how many leading whitespace tokens of the text form
// the snippet key. Carried from the source workflow; configurable because the
// right value is a judgment call, not arithmetic
const DefaultSnippetTokens = 10

// Index holds the two identity sets for one patient's run
type Index struct {
	titles        map[string]struct{}
	snippets      map[string]struct{}
	snippetTokens int
}

// New returns an empty Index using n leading tokens for the snippet key.
// n <= 0 falls back to DefaultSnippetTokens
func New(n int) *Index {
	if n <= 0 {
		n = DefaultSnippetTokens
	}
	return &Index{
		titles:        map[string]struct{}{},
		snippets:      map[string]struct{}{},
		snippetTokens: n,
	}
}

// TitleKey returns the identity key for a title: lowercase with collapsed
// whitespace, so case and spacing differences cannot smuggle a duplicate in
func (x *Index) TitleKey(title string) string {
	return strings.ToLower(str.CollapseSpaces(title))
}

// SnippetKey returns the identity key for a text body: its first N tokens,
// lowercased and single-spaced
func (x *Index) SnippetKey(text string) string {
	return strings.ToLower(str.FirstTokens(text, x.snippetTokens))
}

// Seed records the identity of every pre-existing entry so new generations
// cannot collide with what is already on file
func (x *Index) Seed(title, text string) { x.add(title, text) }

// Seen reports whether an entry collides with anything recorded so far,
// by title OR by snippet
func (x *Index) Seen(title, text string) bool {
	if _, ok := x.titles[x.TitleKey(title)]; ok {
		return true
	}
	if _, ok := x.snippets[x.SnippetKey(text)]; ok {
		return true
	}
	return false
}

// Add records an accepted entry's identity. Only accepted entries are added;
// recording rejected candidates would poison future dedup state
func (x *Index) Add(title, text string) { x.add(title, text) }

func (x *Index) add(title, text string) {
	x.titles[x.TitleKey(title)] = struct{}{}
	x.snippets[x.SnippetKey(text)] = struct{}{}
}

// Len returns the number of distinct title keys held (diagnostics only)
func (x *Index) Len() int { return len(x.titles) }

// Package noteparse turns the generative backend's free-text completion into
// structured (title, text) documentation entries. The prompt asks for
// NoteTitle/NoteText blocks; backends mostly comply, and the fallback treats
// blank-line paragraphs as untitled entries
package noteparse

import (
	"strings"
)

const (
	titleMarker = "NoteTitle:"
	textMarker  = "NoteText:"
)

// Entry is one parsed documentation candidate
type Entry struct {
	Title string
	Text  string
}

// Parse extracts at most max entries from a completion, preserving backend
// order. Unparseable blocks are skipped silently; overlap with earlier output
// is the deduplicator's problem, not ours
func Parse(raw string, max int) []Entry {
	if max <= 0 {
		return nil
	}
	blocks := splitBlocks(raw)

	entries := parseMarked(blocks)
	if len(entries) == 0 {
		entries = parseParagraphs(blocks)
	}

	if len(entries) > max {
		entries = entries[:max]
	}
	return entries
}

// splitBlocks splits on blank lines and trims each block
func splitBlocks(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var out []string
	for _, b := range strings.Split(raw, "\n\n") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// parseMarked handles the structured NoteTitle/NoteText grammar
func parseMarked(blocks []string) []Entry {
	var out []Entry
	for _, block := range blocks {
		if !strings.HasPrefix(block, titleMarker) {
			continue
		}
		lines := strings.SplitN(block, "\n", 2)
		title := strings.TrimSpace(strings.TrimPrefix(lines[0], titleMarker))
		text := ""
		if len(lines) > 1 {
			rest := strings.TrimSpace(lines[1])
			if i := strings.Index(rest, textMarker); i >= 0 {
				text = strings.TrimSpace(rest[i+len(textMarker):])
			} else {
				text = rest
			}
		}
		if title == "" || text == "" {
			continue
		}
		out = append(out, Entry{Title: title, Text: normalizeBody(text)})
	}
	return out
}

// parseParagraphs is the fallback for completions that ignored the grammar:
// each paragraph becomes an entry titled by its leading sentence fragment
func parseParagraphs(blocks []string) []Entry {
	var out []Entry
	for _, block := range blocks {
		body := normalizeBody(block)
		if body == "" {
			continue
		}
		out = append(out, Entry{Title: leadingFragment(body), Text: body})
	}
	return out
}

// normalizeBody joins the block's lines into a single narrative string
func normalizeBody(block string) string {
	return strings.Join(strings.Fields(block), " ")
}

// leadingFragment returns the text up to the first sentence break, capped at
// a handful of words, for use as a derived title
func leadingFragment(body string) string {
	for _, stop := range []string{". ", "! ", "? "} {
		if i := strings.Index(body, stop); i > 0 {
			body = body[:i]
			break
		}
	}
	fields := strings.Fields(body)
	if len(fields) > 8 {
		fields = fields[:8]
	}
	return strings.TrimSuffix(strings.Join(fields, " "), ".")
}

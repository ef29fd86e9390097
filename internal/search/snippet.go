package search

import "unicode/utf8"

// Snippet rendering constants. The matched term is wrapped in an emphasis
// marker; a fixed window of surrounding characters gives context, clipped
// at the field boundary with an ellipsis marker when text was cut off.
const (
	snippetWindow = 40
	emphasisOpen  = "<b>"
	emphasisClose = "</b>"
	ellipsis      = "..."
)

// buildSnippet renders the context snippet for a match at byte offset pos
// with length n inside text. Window edges that land inside a multi-byte
// rune are pulled in to the nearest rune boundary so the snippet stays
// valid UTF-8.
func buildSnippet(text string, pos, n int) string {
	start := pos - snippetWindow
	if start < 0 {
		start = 0
	}
	for start < pos && !utf8.RuneStart(text[start]) {
		start++
	}
	prefix := ""
	if start > 0 {
		prefix = ellipsis
	}

	end := pos + n + snippetWindow
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	suffix := ""
	if end < len(text) {
		suffix = ellipsis
	}

	return prefix +
		text[start:pos] +
		emphasisOpen + text[pos:pos+n] + emphasisClose +
		text[pos+n:end] +
		suffix
}

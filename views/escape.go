package views

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape makes s safe for HTML text and double- or single-quoted
// attribute values.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// ScriptJSON encodes v for inlining inside a <script> element. encoding/json
// already rewrites <, >, &, U+2028 and U+2029 as \u escapes, so the result
// cannot close the script element or break a JavaScript string literal.
func ScriptJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Content bodies are authored internally, so a pattern strip is enough.
// This is not a sanitizer for untrusted markup.
var (
	reScript   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	reStyle    = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	reHandlers = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	reTags     = regexp.MustCompile(`(?s)<[^>]*>`)
)

// StripUnsafe removes script and style elements and inline event handler
// attributes from markup.
func StripUnsafe(markup string) string {
	s := reScript.ReplaceAllString(markup, "")
	s = reStyle.ReplaceAllString(s, "")
	return reHandlers.ReplaceAllString(s, "")
}

// PlainText drops every tag, decodes entities and collapses whitespace.
func PlainText(markup string) string {
	s := reTags.ReplaceAllString(StripUnsafe(markup), " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most n runes, preferring a word boundary, and
// appends an ellipsis when anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)*4/5 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

// ContentExcerpt turns an article body into a plain-text excerpt of at most
// budget characters (plus ellipsis).
func ContentExcerpt(markup string, budget int) string {
	return Truncate(PlainText(markup), budget)
}

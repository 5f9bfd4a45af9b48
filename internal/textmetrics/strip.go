package textmetrics

import (
	"regexp"
	"strings"
)

var (
	fenceRe    = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`[^`]*`")
	imageRe    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	emphasisRe = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	listRe     = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	quoteRe    = regexp.MustCompile(`(?m)^>\s?`)
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	spaceRe    = regexp.MustCompile(`[ \t]+`)
)

// stripMarkdown removes markdown syntax and returns plain text. Link and
// emphasis text is kept; fenced code bodies are dropped entirely because
// code does not contribute to prose metrics.
func stripMarkdown(md string) string {
	text := fenceRe.ReplaceAllString(md, " ")
	text = inlineCode.ReplaceAllString(text, " ")
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "$2")
	text = listRe.ReplaceAllString(text, "")
	text = quoteRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitSentences segments plain text on terminal punctuation.
func splitSentences(text string) []string {
	raw := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// tokenize lowercases and splits plain text into alphanumeric tokens.
func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

var tokenRe = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

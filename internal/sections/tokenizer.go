package sections

import (
	"regexp"
	"strings"
)

type tokenKind int

const (
	tokenHeading tokenKind = iota
	tokenList
	tokenCode
	tokenQuote
	tokenParagraph
)

// token is one line-level markdown construct. Fenced code collapses into a
// single opaque token spanning the fence.
type token struct {
	kind  tokenKind
	level int // heading level, if kind == tokenHeading
	line  int // zero-based line index in the document
	text  string
}

var (
	headingTokenRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	listTokenRe    = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s+(.*)$`)
	quoteTokenRe   = regexp.MustCompile(`^>\s?(.*)$`)
)

// tokenize parses markdown into a flat token stream. It never fails:
// unterminated fences and other malformed constructs degrade to plain
// paragraph text.
func tokenize(markdown string) []token {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}
	lines := strings.Split(markdown, "\n")
	var tokens []token

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "```"):
			end := findFenceEnd(lines, i+1)
			if end < 0 {
				// Unterminated fence: treat the marker as plain text.
				tokens = append(tokens, token{kind: tokenParagraph, line: i, text: trimmed})
				continue
			}
			tokens = append(tokens, token{
				kind: tokenCode,
				line: i,
				text: strings.Join(lines[i+1:end], "\n"),
			})
			i = end
		case headingTokenRe.MatchString(trimmed):
			m := headingTokenRe.FindStringSubmatch(trimmed)
			tokens = append(tokens, token{
				kind:  tokenHeading,
				level: len(m[1]),
				line:  i,
				text:  strings.TrimSpace(m[2]),
			})
		case listTokenRe.MatchString(line):
			m := listTokenRe.FindStringSubmatch(line)
			tokens = append(tokens, token{kind: tokenList, line: i, text: m[2]})
		case quoteTokenRe.MatchString(trimmed):
			m := quoteTokenRe.FindStringSubmatch(trimmed)
			tokens = append(tokens, token{kind: tokenQuote, line: i, text: m[1]})
		default:
			tokens = append(tokens, token{kind: tokenParagraph, line: i, text: trimmed})
		}
	}
	return tokens
}

func findFenceEnd(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			return i
		}
	}
	return -1
}

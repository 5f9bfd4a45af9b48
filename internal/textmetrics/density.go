package textmetrics

import (
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/internal/analysis"
)

var (
	headingLineRe = regexp.MustCompile(`^#{1,6}\s`)
	listLineRe    = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s`)
	linkCountRe   = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	imageCountRe  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

// computeDensity counts structural elements from the raw markdown and the
// stripped plain text.
func computeDensity(markdown, text string) analysis.DensityMetrics {
	m := analysis.DensityMetrics{
		Sentences:  len(splitSentences(text)),
		Characters: len(text),
	}

	inFence := false
	inParagraph := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				m.CodeBlocks++
			}
			inFence = !inFence
			inParagraph = false
			continue
		}
		if inFence {
			continue
		}
		switch {
		case trimmed == "":
			inParagraph = false
		case headingLineRe.MatchString(trimmed):
			m.Headings++
			inParagraph = false
		case listLineRe.MatchString(line):
			m.Lists++
			inParagraph = false
		default:
			if !inParagraph {
				m.Paragraphs++
				inParagraph = true
			}
		}
	}

	m.Images = len(imageCountRe.FindAllString(markdown, -1))
	// Image syntax also matches the link pattern; subtract to avoid
	// double counting.
	m.Links = len(linkCountRe.FindAllString(markdown, -1)) - m.Images
	if m.Links < 0 {
		m.Links = 0
	}

	words := strings.Fields(text)
	m.Words = len(words)
	if m.Words > 0 {
		informative := 0
		for _, w := range words {
			lw := strings.ToLower(strings.Trim(w, ".,!?;:\"'()"))
			if len(lw) > 3 && !isStopword(lw) {
				informative++
			}
		}
		m.InformationDensity = float64(informative) / float64(m.Words)
	}
	return m
}

// Package sections segments markdown pages into typed sections with
// confidence scores. Parsing is best-effort: malformed markdown degrades
// to plain text and never aborts detection.
package sections

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/analysis"
)

const (
	// Sections scored at or below retainThreshold are dropped unless the
	// content fallback applies.
	retainThreshold = 0.5
	// Candidates whose best score is below fallbackThreshold become
	// plain content sections when they look like ordinary prose.
	fallbackThreshold = 0.3
	fallbackMinWords  = 20
	fallbackMaxWords  = 2000
)

// Detector implements analysis.SectionDetector.
type Detector struct {
	idgen  analysis.IDGenerator
	logger *zap.Logger
}

// New constructs a Detector. A nil idgen produces positional IDs.
func New(idgen analysis.IDGenerator, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{idgen: idgen, logger: logger}
}

// candidate is one heading-delimited run of tokens under consideration.
type candidate struct {
	heading      string
	headingLevel int
	position     int // line index of the first token
	docLines     int
	content      string
	wordCount    int
	paragraphs   int
	listItems    int
	links        int
	quotes       int
	code         int
}

// relPosition maps the candidate's first line into [0,1] over the document.
func (c candidate) relPosition() float64 {
	if c.docLines <= 1 {
		return 0
	}
	return float64(c.position) / float64(c.docLines-1)
}

// Detect tokenizes the page, splits candidates at heading boundaries, and
// scores each candidate against every section type's indicator set.
// Returned sections are sorted ascending by document position.
func (d *Detector) Detect(_ context.Context, page analysis.Page) []analysis.Section {
	tokens := tokenize(page.Markdown)
	if len(tokens) == 0 {
		return nil
	}
	docLines := strings.Count(page.Markdown, "\n") + 1

	var sections []analysis.Section
	for _, c := range splitCandidates(tokens, docLines) {
		sectionType, confidence, fromFallback := d.bestType(c)
		if confidence <= retainThreshold && !fromFallback {
			continue
		}
		sections = append(sections, analysis.Section{
			ID:           d.sectionID(len(sections)),
			Type:         sectionType,
			Confidence:   confidence,
			HeadingLevel: c.headingLevel,
			WordCount:    c.wordCount,
			Position:     c.position,
			Content:      c.content,
			Metrics: analysis.SectionMetrics{
				Lists:  c.listItems,
				Links:  c.links,
				Quotes: c.quotes,
			},
		})
	}
	// Candidates are built in document order, so the slice is already
	// ascending by position.
	return sections
}

// bestType scores the candidate against every type. Ties resolve to the
// earlier SectionType. A weak best score falls back to content for
// ordinary prose; the fallback keeps its own computed confidence even
// below the retain threshold.
func (d *Detector) bestType(c candidate) (analysis.SectionType, float64, bool) {
	best := analysis.SectionContent
	bestScore := 0.0
	for _, st := range analysis.SectionTypes {
		score := scoreType(c, indicatorSets[st])
		if score > bestScore {
			best = st
			bestScore = score
		}
	}
	if bestScore < fallbackThreshold &&
		c.wordCount >= fallbackMinWords && c.wordCount <= fallbackMaxWords && c.paragraphs > 0 {
		return analysis.SectionContent, scoreType(c, indicatorSets[analysis.SectionContent]), true
	}
	return best, bestScore, false
}

func (d *Detector) sectionID(index int) string {
	if d.idgen != nil {
		if id, err := d.idgen.NewID(); err == nil {
			return id
		}
	}
	return fmt.Sprintf("section-%d", index)
}

// splitCandidates groups tokens into heading-delimited runs. A standalone
// run before the first heading forms its own candidate.
func splitCandidates(tokens []token, docLines int) []candidate {
	var candidates []candidate
	var current *candidate

	for _, tok := range tokens {
		if tok.kind == tokenHeading {
			if current != nil {
				candidates = append(candidates, *current)
			}
			current = &candidate{
				heading:      tok.text,
				headingLevel: tok.level,
				position:     tok.line,
				docLines:     docLines,
				content:      tok.text,
			}
			continue
		}
		if current == nil {
			current = &candidate{position: tok.line, docLines: docLines}
		}
		current.absorb(tok)
	}
	if current != nil {
		candidates = append(candidates, *current)
	}
	return candidates
}

func (c *candidate) absorb(tok token) {
	switch tok.kind {
	case tokenCode:
		// Fenced code is opaque: it counts as a block but contributes no
		// words or links.
		c.code++
		return
	case tokenList:
		c.listItems++
	case tokenQuote:
		c.quotes++
	case tokenParagraph:
		c.paragraphs++
	}
	if c.content != "" {
		c.content += "\n"
	}
	c.content += tok.text
	c.wordCount += len(strings.Fields(tok.text))
	c.links += strings.Count(tok.text, "](")
}

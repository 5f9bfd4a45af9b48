package textmetrics

import (
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/internal/analysis"
)

var headingLevelRe = regexp.MustCompile(`^(#{1,6})\s`)

// computeStructure scores document shape from the raw markdown.
func computeStructure(markdown string, density analysis.DensityMetrics) analysis.StructureMetrics {
	s := analysis.StructureMetrics{
		HeadingHierarchy: computeHeadingHierarchy(markdown),
		MaxListDepth:     computeMaxListDepth(markdown),
	}

	if density.Words > 0 {
		s.LinkRatio = float64(density.Links) / float64(density.Words)
		s.ImageRatio = float64(density.Images) / float64(density.Words)
	}

	for _, para := range paragraphWordCounts(markdown) {
		switch {
		case para < 10:
			s.ParagraphBuckets[0]++
		case para <= 25:
			s.ParagraphBuckets[1]++
		case para <= 50:
			s.ParagraphBuckets[2]++
		case para <= 100:
			s.ParagraphBuckets[3]++
		default:
			s.ParagraphBuckets[4]++
		}
	}
	return s
}

// computeHeadingHierarchy starts at 1.0 and deducts 0.1 for every skipped
// heading level (h1 followed by h3 skips one level), flooring at 0.
func computeHeadingHierarchy(markdown string) float64 {
	score := 1.0
	prev := 0
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingLevelRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		level := len(m[1])
		if prev > 0 && level > prev+1 {
			score -= 0.1 * float64(level-prev-1)
		}
		prev = level
	}
	if score < 0 {
		return 0
	}
	return score
}

// computeMaxListDepth measures nesting by 2-space indent increments.
func computeMaxListDepth(markdown string) int {
	maxDepth := 0
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence || !listLineRe.MatchString(line) {
			continue
		}
		indent := 0
		for _, r := range line {
			if r == ' ' {
				indent++
			} else if r == '\t' {
				indent += 2
			} else {
				break
			}
		}
		depth := indent/2 + 1
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

func paragraphWordCounts(markdown string) []int {
	var counts []int
	var current int
	inFence := false
	flush := func() {
		if current > 0 {
			counts = append(counts, current)
			current = 0
		}
	}
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			flush()
			continue
		}
		if inFence {
			continue
		}
		if trimmed == "" || headingLineRe.MatchString(trimmed) || listLineRe.MatchString(line) {
			flush()
			continue
		}
		current += len(strings.Fields(stripMarkdown(trimmed)))
	}
	flush()
	return counts
}

package textmetrics

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
)

// TestAnalyzeEmptyMarkdown ensures empty input degrades to zeroed metrics
// instead of failing.
func TestAnalyzeEmptyMarkdown(t *testing.T) {
	t.Parallel()

	a := New()
	m := a.Analyze(context.Background(), analysis.Page{URL: "https://ex.com/empty"})

	require.Equal(t, 0, m.Density.Words)
	require.Equal(t, analysis.SentimentNeutral, m.Sentiment.Overall)
	require.GreaterOrEqual(t, m.Quality, 0.0)
	require.LessOrEqual(t, m.Quality, 1.0)
}

func TestAnalyzeProsePage(t *testing.T) {
	t.Parallel()

	md := `# Getting Started

Our platform makes analysis simple and fast. The tooling is reliable and
the results are excellent. Teams love the clear reports.

## Features

- [Dashboards](https://ex.com/dash) for every team
- Fast exports
- Reliable alerts

Visit the [docs](https://ex.com/docs) to learn more.
`
	a := New()
	m := a.Analyze(context.Background(), analysis.Page{
		URL:      "https://ex.com/start",
		Title:    "Getting Started",
		Markdown: md,
	})

	require.Greater(t, m.Density.Words, 20)
	require.Equal(t, 2, m.Density.Headings)
	require.Equal(t, 3, m.Density.Lists)
	require.GreaterOrEqual(t, m.Density.Links, 2)
	require.Equal(t, analysis.SentimentPositive, m.Sentiment.Overall)
	require.Greater(t, m.Sentiment.Compound, 0.0)
	require.Greater(t, m.Quality, 0.3)
	require.LessOrEqual(t, m.Quality, 1.0)
	require.Equal(t, 1.0, m.Structure.HeadingHierarchy)
	require.Equal(t, 1, m.Readability.ReadingTimeMinutes)
	require.NotEmpty(t, m.Keywords.MainKeywords)
}

func TestReadabilityClamps(t *testing.T) {
	t.Parallel()

	// Short simple sentences score high; dense jargon scores low, but
	// both stay inside the documented bounds.
	simple := computeReadability("The cat sat. The dog ran. We had fun.")
	require.GreaterOrEqual(t, simple.FleschReadingEase, 0.0)
	require.LessOrEqual(t, simple.FleschReadingEase, 100.0)
	require.Greater(t, simple.FleschReadingEase, 80.0)

	dense := computeReadability(strings.Repeat("Institutionalization of incomprehensibility necessitates observability considerations ", 10))
	require.GreaterOrEqual(t, dense.FleschReadingEase, 0.0)
	require.Greater(t, dense.ComplexWordRatio, 0.5)
	require.Greater(t, dense.GunningFog, 10.0)
}

func TestCountSyllables(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"cat":       1,
		"table":     2,
		"analysis":  4,
		"syllable":  3,
		"free":      1,
		"x":         1,
		"beautiful": 3,
	}
	for word, want := range cases {
		require.Equal(t, want, countSyllables(word), "word %q", word)
	}
}

func TestSentimentMajority(t *testing.T) {
	t.Parallel()

	neg := computeSentiment("This is terrible. Everything is broken. The worst problem ever.")
	require.Equal(t, analysis.SentimentNegative, neg.Overall)
	require.Less(t, neg.Compound, 0.0)

	neu := computeSentiment("The report covers the quarter. Tables follow below.")
	require.Equal(t, analysis.SentimentNeutral, neu.Overall)
}

func TestDensityCountsCodeAndImages(t *testing.T) {
	t.Parallel()

	md := "# Title\n\nIntro paragraph here.\n\n```go\nfmt.Println(\"hi\")\n```\n\n![logo](https://ex.com/logo.png)\n[home](https://ex.com/)\n"
	text := stripMarkdown(md)
	m := computeDensity(md, text)

	require.Equal(t, 1, m.CodeBlocks)
	require.Equal(t, 1, m.Images)
	require.Equal(t, 1, m.Links)
	require.Equal(t, 1, m.Headings)
}

func TestHeadingHierarchyPenalizesSkips(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1.0, computeHeadingHierarchy("# a\n## b\n### c"))
	require.InDelta(t, 0.9, computeHeadingHierarchy("# a\n### c"), 1e-9)
	require.InDelta(t, 0.8, computeHeadingHierarchy("# a\n#### d"), 1e-9)
}

func TestMaxListDepth(t *testing.T) {
	t.Parallel()

	md := "- top\n  - nested\n    - deeper\n"
	require.Equal(t, 3, computeMaxListDepth(md))
	require.Equal(t, 0, computeMaxListDepth("no lists here"))
}

func TestKeywordsTopTenAndClusters(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("analytics analytic dashboard dashboards reporting ", 4) +
		"alpha beta gamma delta epsilon zeta eta theta iota kappa"
	m := computeKeywords(text)

	require.LessOrEqual(t, len(m.MainKeywords), 10)
	require.NotEmpty(t, m.MainKeywords)
	// Near-identical terms must cluster together.
	found := false
	for _, cluster := range m.TopicClusters {
		joined := strings.Join(cluster, " ")
		if strings.Contains(joined, "analytics") && strings.Contains(joined, "analytic") {
			found = true
		}
	}
	require.True(t, found, "expected analytics/analytic cluster, got %v", m.TopicClusters)
}

func TestKeywordsDropStopwordsAndShortTokens(t *testing.T) {
	t.Parallel()

	m := computeKeywords("the a an and or of to in on at")
	require.Empty(t, m.MainKeywords)
}

func TestTermSimilarity(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1.0, termSimilarity("cache", "cache"))
	require.Greater(t, termSimilarity("dashboard", "dashboards"), 0.8)
	require.Less(t, termSimilarity("alpha", "zebra"), 0.3)
}

func TestStripMarkdownKeepsLinkText(t *testing.T) {
	t.Parallel()

	got := stripMarkdown("## Hello\n\nSee **bold** and [the docs](https://ex.com).")
	require.NotContains(t, got, "#")
	require.NotContains(t, got, "**")
	require.NotContains(t, got, "https://ex.com")
	require.Contains(t, got, "bold")
	require.Contains(t, got, "the docs")
}

package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
)

func newTestClassifier() *Classifier {
	return New(Config{}, nil)
}

// TestClassifyPricingPage covers the canonical pricing scenario.
func TestClassifyPricingPage(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	res := c.Classify(context.Background(), analysis.Page{
		URL:      "https://ex.com/pricing",
		Title:    "Pricing Plans",
		Markdown: "Starting at $29/month per user with a free trial for every plan.",
	})

	require.Equal(t, analysis.PageTypePricing, res.PageType)
	require.Greater(t, res.Confidence, 0.4)
}

// TestClassifyConfidenceBounds checks the invariant on arbitrary inputs.
func TestClassifyConfidenceBounds(t *testing.T) {
	t.Parallel()

	pages := []analysis.Page{
		{URL: "https://ex.com/", Title: "Welcome"},
		{URL: "https://ex.com/docs/install", Title: "Installation Guide", Markdown: "## Getting Started\n\nRun the installer.\n\n```sh\ninstall\n```"},
		{URL: "not a url", Title: "", Markdown: ""},
		{URL: "https://ex.com/xyzzy", Title: "zzz", Markdown: "plugh"},
	}

	c := newTestClassifier()
	for _, page := range pages {
		res := c.Classify(context.Background(), page)
		require.GreaterOrEqual(t, res.Confidence, 0.0)
		require.LessOrEqual(t, res.Confidence, 1.0)
		require.Contains(t, analysis.PageTypes, res.PageType)
		for pt, score := range res.Scores {
			require.GreaterOrEqual(t, score, 0.0, "type %s", pt)
			require.LessOrEqual(t, score, 1.0, "type %s", pt)
		}
	}
}

// TestClassifyFallsBackToOther ensures unmatched pages classify as other.
func TestClassifyFallsBackToOther(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	res := c.Classify(context.Background(), analysis.Page{})

	require.Equal(t, analysis.PageTypeOther, res.PageType)
	require.InDelta(t, otherFallbackScore, res.Confidence, 1e-9)
}

func TestClassifyDocumentationPage(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	res := c.Classify(context.Background(), analysis.Page{
		URL:   "https://ex.com/docs/configuration",
		Title: "Configuration Guide",
		Markdown: "# Configuration\n\n## Installation\n\nGetting started takes one command.\n\n" +
			"```sh\npagelens serve\n```\n\n## Usage\n\nSee the options below.\n",
	})

	require.Equal(t, analysis.PageTypeDocumentation, res.PageType)
	require.Greater(t, res.Confidence, 0.3)
}

func TestExtractFeatures(t *testing.T) {
	t.Parallel()

	f := ExtractFeatures(analysis.Page{
		URL:   "https://ex.com/blog/2024/launch",
		Title: "Launch Day",
		Markdown: "# Launch Day\n\nWe shipped. Costs $5/month now.\n\n- one\n- two\n\n" +
			"[home](https://ex.com)\n\n```go\ncode\n```\n",
		Frontmatter: map[string]any{"author": "sam", "date": "2024-06-01"},
	})

	require.Equal(t, 3, f.URLDepth)
	require.Equal(t, 1, f.HeadingCount)
	require.Equal(t, 2, f.ListCount)
	require.Equal(t, 1, f.LinkCount)
	require.Equal(t, 1, f.CodeBlockCount)
	require.GreaterOrEqual(t, f.PriceTokens, 1)
	require.True(t, f.HasFrontmatter)
	require.True(t, f.HasDate)
	require.True(t, f.HasAuthor)
}

// TestClassifyDeterministicTieBreak feeds an empty rule/feature situation
// twice and requires identical outcomes.
func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	page := analysis.Page{
		URL:      "https://ex.com/services/consulting",
		Title:    "Consulting Services",
		Markdown: "We offer consulting.\n\n- audits\n- reviews\n",
	}
	c := newTestClassifier()
	first := c.Classify(context.Background(), page)
	second := c.Classify(context.Background(), page)
	require.Equal(t, first.PageType, second.PageType)
	require.Equal(t, first.Confidence, second.Confidence)
}

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/analysis"
)

func TestSimilarityPrefersEmbeddings(t *testing.T) {
	t.Parallel()

	a := &analysis.Result{URL: "a", PageType: analysis.PageTypeBlogPost, Embeddings: []float64{1, 0, 0}}
	b := &analysis.Result{URL: "b", PageType: analysis.PageTypePricing, Embeddings: []float64{1, 0, 0}}
	require.InDelta(t, 1.0, similarity(a, b), 1e-9)

	orthogonal := &analysis.Result{URL: "c", PageType: analysis.PageTypeBlogPost, Embeddings: []float64{0, 1, 0}}
	require.InDelta(t, 0.0, similarity(a, orthogonal), 1e-9)
}

func TestSimilarityFallsBackToPageType(t *testing.T) {
	t.Parallel()

	a := &analysis.Result{URL: "a", PageType: analysis.PageTypeBlogPost}
	b := &analysis.Result{URL: "b", PageType: analysis.PageTypeBlogPost}
	require.InDelta(t, 0.5, similarity(a, b), 1e-9)

	// Mismatched embedding lengths also fall back.
	c := &analysis.Result{URL: "c", PageType: analysis.PageTypePricing, Embeddings: []float64{1, 0}}
	d := &analysis.Result{URL: "d", PageType: analysis.PageTypeBlogPost, Embeddings: []float64{1, 0, 0}}
	require.InDelta(t, 0.1, similarity(c, d), 1e-9)
}

func TestCrossAnalyzeSkipsSinglePage(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, Config{}, Deps{})
	only := &analysis.Result{URL: "a", PageType: analysis.PageTypeHome}
	o.crossAnalyze([]*analysis.Result{only})
	require.Empty(t, only.CrossReferences)
}

func TestRelatedPagesDeduplicates(t *testing.T) {
	t.Parallel()

	result := &analysis.Result{
		URL: "a",
		CrossReferences: []analysis.CrossReference{
			{SourceURL: "a", TargetURL: "b"},
			{SourceURL: "a", TargetURL: "c"},
			{SourceURL: "a", TargetURL: "b"},
		},
	}
	require.Equal(t, []string{"b", "c"}, relatedPages(result))
}

func TestBuildEmbeddingIsDeterministic(t *testing.T) {
	t.Parallel()

	m := analysis.ContentMetrics{Quality: 0.7}
	m.Density.Words = 120
	m.Readability.FleschReadingEase = 65

	first := buildEmbedding(m)
	second := buildEmbedding(m)
	require.Equal(t, first, second)
	require.Len(t, first, 8)
	for _, v := range first {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

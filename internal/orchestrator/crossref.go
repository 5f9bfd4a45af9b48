package orchestrator

import (
	"math"

	"github.com/pagelens/pagelens/internal/analysis"
	"github.com/pagelens/pagelens/internal/metrics"
)

// crossAnalyze runs the pairwise similarity pass over the completed
// result set, appending symmetric references to both sides of every
// pair above the threshold. The pass is sequential and deterministic
// for a given result order.
func (o *Orchestrator) crossAnalyze(results []*analysis.Result) {
	if len(results) < 2 {
		return
	}
	pairs := 0
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			sim := similarity(results[i], results[j])
			if sim <= similarityThreshold {
				continue
			}
			appendReference(results[i], results[j].URL, sim)
			appendReference(results[j], results[i].URL, sim)
			pairs++
		}
	}
	for _, result := range results {
		result.RelatedPages = relatedPages(result)
	}
	metrics.ObserveCrossReferences(pairs)
}

// similarity scores a result pair: cosine over equal-length embeddings
// when both carry them, otherwise a fixed score by page-type match.
func similarity(a, b *analysis.Result) float64 {
	if len(a.Embeddings) > 0 && len(a.Embeddings) == len(b.Embeddings) {
		return cosine(a.Embeddings, b.Embeddings)
	}
	if a.PageType == b.PageType {
		return sameTypeSimilarity
	}
	return baseSimilarity
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func appendReference(result *analysis.Result, targetURL string, confidence float64) {
	result.CrossReferences = append(result.CrossReferences, analysis.CrossReference{
		SourceURL:      result.URL,
		TargetURL:      targetURL,
		Type:           crossRefType,
		Confidence:     confidence,
		SharedSections: []string{sharedSectionLabel},
	})
}

// relatedPages derives the unique target URLs from a result's
// references, preserving reference order.
func relatedPages(result *analysis.Result) []string {
	seen := make(map[string]struct{}, len(result.CrossReferences))
	out := make([]string, 0, len(result.CrossReferences))
	for _, ref := range result.CrossReferences {
		if _, ok := seen[ref.TargetURL]; ok {
			continue
		}
		seen[ref.TargetURL] = struct{}{}
		out = append(out, ref.TargetURL)
	}
	return out
}

// buildEmbedding derives a small deterministic feature vector from the
// content metrics so the cross-page pass can use cosine similarity
// without an external model.
func buildEmbedding(m analysis.ContentMetrics) []float64 {
	words := float64(m.Density.Words)
	return []float64{
		m.Readability.FleschReadingEase / 100,
		(m.Sentiment.Compound + 1) / 2,
		m.Density.InformationDensity,
		m.Structure.HeadingHierarchy,
		m.Structure.LinkRatio,
		m.Quality,
		math.Log1p(words) / 10,
		m.Readability.ComplexWordRatio,
	}
}

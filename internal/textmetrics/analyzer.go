// Package textmetrics computes readability, sentiment, density, structure,
// and keyword metrics for one page. The analyzer is pure: it never fails
// and returns zeroed metrics for empty input.
package textmetrics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pagelens/pagelens/internal/analysis"
)

// Analyzer implements analysis.MetricsAnalyzer.
type Analyzer struct{}

// New creates a metrics Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze computes all metric families for the page. The families are
// independent, so they run concurrently.
func (a *Analyzer) Analyze(ctx context.Context, page analysis.Page) analysis.ContentMetrics {
	text := stripMarkdown(page.Markdown)
	if text == "" {
		return analysis.ContentMetrics{
			Sentiment: analysis.SentimentMetrics{Overall: analysis.SentimentNeutral},
		}
	}

	var m analysis.ContentMetrics
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.Readability = computeReadability(text)
		return nil
	})
	g.Go(func() error {
		m.Sentiment = computeSentiment(text)
		return nil
	})
	g.Go(func() error {
		m.Density = computeDensity(page.Markdown, text)
		m.Structure = computeStructure(page.Markdown, m.Density)
		return nil
	})
	g.Go(func() error {
		m.Keywords = computeKeywords(text)
		return nil
	})
	_ = g.Wait() // the family computations never error

	m.Quality = computeQuality(m)
	return m
}

// computeQuality combines the metric families into an additive [0,1] score.
func computeQuality(m analysis.ContentMetrics) float64 {
	score := 0.0
	if ease := m.Readability.FleschReadingEase; ease >= 40 && ease <= 100 {
		score += 0.25
		if ease >= 60 && ease <= 80 {
			score += 0.1
		}
	}
	if m.Sentiment.Compound >= -0.2 {
		score += 0.2
		if m.Sentiment.Compound > 0 {
			score += 0.1
		}
	}
	if d := m.Density.InformationDensity; d >= 0.2 {
		score += 0.15
		if d >= 0.4 && d <= 0.7 {
			score += 0.1
		}
	}
	if m.Structure.HeadingHierarchy > 0.5 {
		score += 0.1
	}
	if m.Density.Links > 0 {
		score += 0.05
	}
	if m.Density.Words > 10 {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}

// Package classifier assigns page types with a blended rule and
// heuristic-feature scorer. It never fails: every page classifies to at
// least the "other" fallback.
package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/analysis"
)

// Fallback score assigned when nothing matches.
const otherFallbackScore = 0.05

// Scorer produces a per-type score from a page and its derived features.
// RuleScorer and FeatureScorer are the built-in variants; a trained model
// can replace FeatureScorer without touching the orchestrator.
type Scorer interface {
	Score(page analysis.Page, features analysis.FeatureVector) map[analysis.PageType]float64
}

// Config controls the scorer blend.
type Config struct {
	RuleWeight    float64
	FeatureWeight float64
}

// Classifier blends scorer passes by weighted average.
type Classifier struct {
	rules  Scorer
	heur   Scorer
	cfg    Config
	logger *zap.Logger
}

// New constructs a Classifier with the default rule and feature scorers.
// Zero weights fall back to the 0.4/0.6 blend.
func New(cfg Config, logger *zap.Logger) *Classifier {
	if cfg.RuleWeight <= 0 && cfg.FeatureWeight <= 0 {
		cfg.RuleWeight = 0.4
		cfg.FeatureWeight = 0.6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		rules:  NewRuleScorer(),
		heur:   NewFeatureScorer(),
		cfg:    cfg,
		logger: logger,
	}
}

// Classify scores the page with both passes and returns the best type.
// Ties break by PageType declaration order.
func (c *Classifier) Classify(_ context.Context, page analysis.Page) analysis.ClassificationResult {
	features := ExtractFeatures(page)
	ruleScores := c.rules.Score(page, features)
	heurScores := c.heur.Score(page, features)

	total := c.cfg.RuleWeight + c.cfg.FeatureWeight
	combined := make(map[analysis.PageType]float64, len(analysis.PageTypes))
	for _, pt := range analysis.PageTypes {
		score := (c.cfg.RuleWeight*ruleScores[pt] + c.cfg.FeatureWeight*heurScores[pt]) / total
		combined[pt] = clamp01(score)
	}

	best := analysis.PageTypeOther
	bestScore := 0.0
	for _, pt := range analysis.PageTypes {
		if combined[pt] > bestScore {
			best = pt
			bestScore = combined[pt]
		}
	}
	if bestScore <= 0 {
		best = analysis.PageTypeOther
		bestScore = otherFallbackScore
		combined[analysis.PageTypeOther] = otherFallbackScore
	}

	c.logger.Debug("page classified",
		zap.String("url", page.URL),
		zap.String("page_type", string(best)),
		zap.Float64("confidence", bestScore),
	)

	return analysis.ClassificationResult{
		PageType:   best,
		Confidence: bestScore,
		Scores:     combined,
		Features:   features,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

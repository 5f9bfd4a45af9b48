package textmetrics

import "github.com/pagelens/pagelens/internal/analysis"

// Fixed sentiment lexicons. These are intentionally small: sentiment here
// is a coarse per-sentence signal, not a trained model.
var positiveWords = map[string]struct{}{
	"amazing": {}, "awesome": {}, "beautiful": {}, "best": {}, "better": {},
	"brilliant": {}, "easy": {}, "effective": {}, "efficient": {},
	"excellent": {}, "fantastic": {}, "fast": {}, "free": {}, "good": {},
	"great": {}, "happy": {}, "helpful": {}, "improve": {}, "improved": {},
	"innovative": {}, "love": {}, "loved": {}, "perfect": {}, "powerful": {},
	"quality": {}, "recommend": {}, "reliable": {}, "robust": {}, "secure": {},
	"seamless": {}, "simple": {}, "smart": {}, "strong": {}, "success": {},
	"successful": {}, "superb": {}, "top": {}, "trusted": {}, "useful": {},
	"valuable": {}, "win": {}, "wonderful": {},
}

var negativeWords = map[string]struct{}{
	"awful": {}, "bad": {}, "broken": {}, "bug": {}, "complex": {},
	"confusing": {}, "costly": {}, "difficult": {}, "disappointing": {},
	"error": {}, "expensive": {}, "fail": {}, "failed": {}, "failure": {},
	"hard": {}, "hate": {}, "horrible": {}, "issue": {}, "lose": {},
	"loss": {}, "poor": {}, "problem": {}, "risk": {}, "slow": {},
	"terrible": {}, "unreliable": {}, "useless": {}, "weak": {},
	"worst": {}, "wrong": {},
}

// computeSentiment scores each sentence against the fixed lexicons.
// A sentence is positive above +0.1, negative below -0.1, else neutral.
// Compound is (positive-negative)/totalSentences.
func computeSentiment(text string) analysis.SentimentMetrics {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return analysis.SentimentMetrics{Overall: analysis.SentimentNeutral}
	}

	var pos, neg, neu int
	for _, sentence := range sentences {
		score := scoreSentence(sentence)
		switch {
		case score > 0.1:
			pos++
		case score < -0.1:
			neg++
		default:
			neu++
		}
	}

	compound := float64(pos-neg) / float64(len(sentences))
	overall := analysis.SentimentNeutral
	switch {
	case pos > neg && pos > neu:
		overall = analysis.SentimentPositive
	case neg > pos && neg > neu:
		overall = analysis.SentimentNegative
	}

	return analysis.SentimentMetrics{
		Overall:           overall,
		Compound:          compound,
		PositiveSentences: pos,
		NegativeSentences: neg,
		NeutralSentences:  neu,
	}
}

func scoreSentence(sentence string) float64 {
	tokens := tokenize(sentence)
	if len(tokens) == 0 {
		return 0
	}
	var score float64
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			score++
		}
		if _, ok := negativeWords[tok]; ok {
			score--
		}
	}
	return score / float64(len(tokens))
}

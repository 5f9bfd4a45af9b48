package textmetrics

import (
	"math"
	"strings"

	"github.com/pagelens/pagelens/internal/analysis"
)

const wordsPerMinute = 200

// computeReadability derives Flesch-family scores from plain text.
func computeReadability(text string) analysis.ReadabilityMetrics {
	sentences := splitSentences(text)
	words := strings.Fields(text)
	if len(sentences) == 0 || len(words) == 0 {
		return analysis.ReadabilityMetrics{}
	}

	totalSyllables := 0
	complexWords := 0
	totalChars := 0
	for _, w := range words {
		syl := countSyllables(w)
		totalSyllables += syl
		if syl >= 3 {
			complexWords++
		}
		totalChars += len(w)
	}

	wordCount := float64(len(words))
	sentenceCount := float64(len(sentences))
	wordsPerSentence := wordCount / sentenceCount
	syllablesPerWord := float64(totalSyllables) / wordCount
	complexRatio := float64(complexWords) / wordCount

	flesch := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	fkGrade := 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59
	fog := 0.4 * (wordsPerSentence + 100*complexRatio)
	smog := 1.043*math.Sqrt(float64(complexWords)*30/sentenceCount) + 3.1291

	return analysis.ReadabilityMetrics{
		FleschReadingEase:  clamp(flesch, 0, 100),
		FleschKincaidGrade: math.Max(0, fkGrade),
		GunningFog:         math.Max(0, fog),
		SMOG:               math.Max(0, smog),
		AvgSentenceLength:  wordsPerSentence,
		AvgWordLength:      float64(totalChars) / wordCount,
		ComplexWordRatio:   complexRatio,
		ReadingTimeMinutes: int(math.Ceil(wordCount / wordsPerMinute)),
	}
}

// countSyllables estimates syllables by counting vowel groups. A trailing
// silent "e" is discounted when the word has more than one group.
func countSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !isLetter(r)
	}))
	if word == "" {
		return 1
	}
	groups := 0
	prevVowel := false
	for _, r := range word {
		vowel := isVowel(r)
		if vowel && !prevVowel {
			groups++
		}
		prevVowel = vowel
	}
	if groups > 1 && strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") {
		groups--
	}
	if groups < 1 {
		groups = 1
	}
	return groups
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

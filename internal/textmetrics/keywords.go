package textmetrics

import (
	"sort"

	"github.com/xrash/smetrics"

	"github.com/pagelens/pagelens/internal/analysis"
)

const (
	maxMainKeywords   = 10
	maxClusterSeeds   = 20
	clusterSimilarity = 0.3
	lengthBonusChars  = 6
	lengthBonus       = 1.2
	freqBonusCount    = 5
	freqBonus         = 1.5
)

// computeKeywords extracts weighted terms and clusters the top terms by
// string similarity. Clustering is lexical only, not semantic.
func computeKeywords(text string) analysis.KeywordMetrics {
	tokens := tokenize(text)
	counts := make(map[string]int)
	total := 0
	for _, tok := range tokens {
		if len(tok) <= 1 || isStopword(tok) {
			continue
		}
		counts[tok]++
		total++
	}
	if total == 0 {
		return analysis.KeywordMetrics{}
	}

	keywords := make([]analysis.Keyword, 0, len(counts))
	for term, count := range counts {
		importance := float64(count) / float64(total)
		if len(term) > lengthBonusChars {
			importance *= lengthBonus
		}
		if count > freqBonusCount {
			importance *= freqBonus
		}
		keywords = append(keywords, analysis.Keyword{
			Term:       term,
			Count:      count,
			Importance: importance,
		})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Importance != keywords[j].Importance {
			return keywords[i].Importance > keywords[j].Importance
		}
		return keywords[i].Term < keywords[j].Term
	})

	main := keywords
	if len(main) > maxMainKeywords {
		main = main[:maxMainKeywords]
	}

	return analysis.KeywordMetrics{
		MainKeywords:  append([]analysis.Keyword(nil), main...),
		TopicClusters: clusterKeywords(keywords),
	}
}

// clusterKeywords greedily groups the top terms: each ungrouped term seeds
// a cluster and absorbs every later ungrouped term whose normalized edit
// distance similarity exceeds the threshold. Singleton groups are dropped.
func clusterKeywords(keywords []analysis.Keyword) [][]string {
	seeds := keywords
	if len(seeds) > maxClusterSeeds {
		seeds = seeds[:maxClusterSeeds]
	}

	used := make([]bool, len(seeds))
	var clusters [][]string
	for i := range seeds {
		if used[i] {
			continue
		}
		cluster := []string{seeds[i].Term}
		used[i] = true
		for j := i + 1; j < len(seeds); j++ {
			if used[j] {
				continue
			}
			if termSimilarity(seeds[i].Term, seeds[j].Term) > clusterSimilarity {
				cluster = append(cluster, seeds[j].Term)
				used[j] = true
			}
		}
		if len(cluster) > 1 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// termSimilarity converts Wagner-Fischer edit distance into a [0,1]
// similarity normalized by the longer term.
func termSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(dist)/float64(longest)
}

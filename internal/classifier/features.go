package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/internal/analysis"
)

var (
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+(.*)$`)
	listItemRe   = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s`)
	linkRe       = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	fenceRe      = regexp.MustCompile("(?m)^```")
	priceTokenRe = regexp.MustCompile(`\$\d+|\d+\s*/\s*(month|mo|year|yr|user|seat)`)
)

// ExtractFeatures derives the deterministic numeric feature vector used by
// the heuristic pass.
func ExtractFeatures(page analysis.Page) analysis.FeatureVector {
	f := analysis.FeatureVector{
		URLLength:   len(page.URL),
		TitleLength: len(page.Title),
	}

	if u, err := url.Parse(page.URL); err == nil {
		path := strings.Trim(u.Path, "/")
		if path != "" {
			f.URLDepth = len(strings.Split(path, "/"))
		}
	}

	f.WordCount = len(strings.Fields(page.Markdown))
	headings := headingRe.FindAllStringSubmatch(page.Markdown, -1)
	f.HeadingCount = len(headings)
	if len(headings) > 0 {
		total := 0
		for _, h := range headings {
			total += len(strings.Fields(h[1]))
		}
		f.AvgHeadingWords = float64(total) / float64(len(headings))
	}
	f.ListCount = len(listItemRe.FindAllString(page.Markdown, -1))
	f.LinkCount = len(linkRe.FindAllString(page.Markdown, -1))
	f.CodeBlockCount = len(fenceRe.FindAllString(page.Markdown, -1)) / 2
	f.PriceTokens = len(priceTokenRe.FindAllString(strings.ToLower(page.Markdown), -1))
	f.QuestionMarks = strings.Count(page.Markdown, "?")

	f.HasFrontmatter = len(page.Frontmatter) > 0
	for key := range page.Frontmatter {
		switch strings.ToLower(key) {
		case "date", "published", "publishdate", "created":
			f.HasDate = true
		case "author", "authors", "by":
			f.HasAuthor = true
		}
	}
	return f
}

// FeatureScorer applies fixed linear weights to the feature vector. It is
// a deterministic stand-in for a trainable model and shares the Scorer
// contract with RuleScorer so one can replace the other.
type FeatureScorer struct{}

// NewFeatureScorer creates the heuristic scorer.
func NewFeatureScorer() *FeatureScorer {
	return &FeatureScorer{}
}

// Score converts the feature vector into a per-type score in [0,1].
func (s *FeatureScorer) Score(_ analysis.Page, f analysis.FeatureVector) map[analysis.PageType]float64 {
	shortURL := boolSignal(f.URLDepth <= 1)
	rootURL := boolSignal(f.URLDepth == 0)
	longBody := ratio(f.WordCount, 600)
	shortBody := boolSignal(f.WordCount > 0 && f.WordCount < 150)
	headingHeavy := ratio(f.HeadingCount, 8)
	listHeavy := ratio(f.ListCount, 12)
	linkHeavy := ratio(f.LinkCount, 20)
	codeHeavy := ratio(f.CodeBlockCount, 4)
	priceHeavy := ratio(f.PriceTokens, 3)
	questionHeavy := ratio(f.QuestionMarks, 6)
	authored := boolSignal(f.HasDate && f.HasAuthor)

	scores := map[analysis.PageType]float64{
		analysis.PageTypeHome:          0.6*rootURL + 0.2*linkHeavy + 0.2*shortBody,
		analysis.PageTypeAbout:         0.3*shortURL + 0.3*longBody + 0.1*linkHeavy,
		analysis.PageTypePricing:       0.7*priceHeavy + 0.2*listHeavy,
		analysis.PageTypeContact:       0.4*shortBody + 0.2*shortURL,
		analysis.PageTypeBlogPost:      0.5*authored + 0.4*longBody,
		analysis.PageTypeDocumentation: 0.4*codeHeavy + 0.3*headingHeavy + 0.2*longBody,
		analysis.PageTypeAPIReference:  0.5*codeHeavy + 0.3*headingHeavy + 0.1*listHeavy,
		analysis.PageTypeProduct:       0.3*priceHeavy + 0.3*listHeavy + 0.1*shortURL,
		analysis.PageTypeService:       0.3*listHeavy + 0.2*longBody,
		analysis.PageTypeCaseStudy:     0.4*longBody + 0.2*headingHeavy,
		analysis.PageTypeTestimonial:   0.3*shortBody + 0.1*listHeavy,
		analysis.PageTypeLanding:       0.3*shortBody + 0.2*priceHeavy + 0.1*headingHeavy,
		analysis.PageTypeError:         0.5 * boolSignal(f.WordCount > 0 && f.WordCount < 40),
	}

	for pt, v := range scores {
		scores[pt] = clamp01(v)
	}
	// FAQ-flavored documentation: heavy question marks bias docs slightly.
	scores[analysis.PageTypeDocumentation] = clamp01(scores[analysis.PageTypeDocumentation] + 0.1*questionHeavy)
	return scores
}

func boolSignal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ratio maps count/scale into [0,1].
func ratio(count, scale int) float64 {
	if count <= 0 || scale <= 0 {
		return 0
	}
	v := float64(count) / float64(scale)
	if v > 1 {
		return 1
	}
	return v
}

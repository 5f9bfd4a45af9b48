package classifier

import (
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/internal/analysis"
)

// Surface multipliers: URL matches carry the strongest signal, body
// matches the weakest.
const (
	urlMultiplier     = 1.2
	titleMultiplier   = 1.1
	contentMultiplier = 0.8
	multiHitBonus     = 1.3
)

// rule is one pattern triple with a base weight. Nil patterns are skipped.
type rule struct {
	urlPattern     *regexp.Regexp
	titlePattern   *regexp.Regexp
	contentPattern *regexp.Regexp
	weight         float64
}

// RuleScorer scores pages against per-type pattern tables.
type RuleScorer struct {
	rules map[analysis.PageType][]rule
}

// NewRuleScorer builds the fixed rule tables.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{rules: defaultRules()}
}

// Score evaluates every type's rules. Each surface hit contributes
// weight x multiplier; two or more hits in one type apply a bonus; the
// per-type score clamps to [0,1].
func (s *RuleScorer) Score(page analysis.Page, _ analysis.FeatureVector) map[analysis.PageType]float64 {
	url := strings.ToLower(page.URL)
	title := strings.ToLower(page.Title)
	content := strings.ToLower(page.Markdown)

	scores := make(map[analysis.PageType]float64, len(s.rules))
	for pt, rules := range s.rules {
		var score float64
		hits := 0
		for _, r := range rules {
			if r.urlPattern != nil && r.urlPattern.MatchString(url) {
				score += r.weight * urlMultiplier
				hits++
			}
			if r.titlePattern != nil && r.titlePattern.MatchString(title) {
				score += r.weight * titleMultiplier
				hits++
			}
			if r.contentPattern != nil && r.contentPattern.MatchString(content) {
				score += r.weight * contentMultiplier
				hits++
			}
		}
		if hits >= 2 {
			score *= multiHitBonus
		}
		scores[pt] = clamp01(score)
	}
	return scores
}

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}

func defaultRules() map[analysis.PageType][]rule {
	return map[analysis.PageType][]rule{
		analysis.PageTypeHome: {
			{urlPattern: re(`^https?://[^/]+/?$`), weight: 0.6},
			{titlePattern: re(`\b(home|welcome)\b`), contentPattern: re(`welcome to`), weight: 0.3},
		},
		analysis.PageTypeAbout: {
			{urlPattern: re(`/about`), titlePattern: re(`\babout\b|our (team|story|company)`), weight: 0.5},
			{contentPattern: re(`\b(founded|our mission|our team|who we are)\b`), weight: 0.3},
		},
		analysis.PageTypePricing: {
			{urlPattern: re(`/(pricing|plans)`), titlePattern: re(`\b(pricing|plans?)\b`), weight: 0.5},
			{contentPattern: re(`\$\d+|per (month|user|seat)|/(month|mo|year|yr)\b|free (trial|tier)`), weight: 0.4},
		},
		analysis.PageTypeContact: {
			{urlPattern: re(`/contact`), titlePattern: re(`\bcontact\b|get in touch`), weight: 0.5},
			{contentPattern: re(`\b(email us|phone|address|reach (out|us))\b`), weight: 0.3},
		},
		analysis.PageTypeBlogPost: {
			{urlPattern: re(`/(blog|posts?|articles?)/|/\d{4}/\d{2}/`), weight: 0.5},
			{contentPattern: re(`\b(posted|published) (on|by)\b|\bmin read\b`), weight: 0.3},
		},
		analysis.PageTypeDocumentation: {
			{urlPattern: re(`/(docs?|documentation|guides?|manual)`), titlePattern: re(`\b(docs|documentation|guide|tutorial)\b`), weight: 0.5},
			{contentPattern: re("\\b(installation|getting started|usage|prerequisites)\\b|```"), weight: 0.3},
		},
		analysis.PageTypeAPIReference: {
			{urlPattern: re(`/(api|reference)`), titlePattern: re(`\bapi\b|reference`), weight: 0.5},
			{contentPattern: re(`\b(endpoint|get|post|put|delete) /|\b(request body|response body|status code|parameters)\b`), weight: 0.4},
		},
		analysis.PageTypeProduct: {
			{urlPattern: re(`/products?/`), titlePattern: re(`\bbuy\b`), weight: 0.5},
			{contentPattern: re(`\b(add to cart|buy now|in stock|specifications)\b`), weight: 0.4},
		},
		analysis.PageTypeService: {
			{urlPattern: re(`/services?`), titlePattern: re(`\bservices?\b`), weight: 0.5},
			{contentPattern: re(`\b(we (offer|provide)|consulting|our services)\b`), weight: 0.3},
		},
		analysis.PageTypeCaseStudy: {
			{urlPattern: re(`/(case-stud|customers?/|success-stor)`), titlePattern: re(`case study|success story`), weight: 0.5},
			{contentPattern: re(`\b(challenge|solution|results)\b.*\b(challenge|solution|results)\b`), weight: 0.3},
		},
		analysis.PageTypeTestimonial: {
			{urlPattern: re(`/(testimonials?|reviews?)`), titlePattern: re(`testimonials?|what .* say`), weight: 0.5},
			{contentPattern: re(`\b(says|said|recommend(s|ed)?)\b|[“"].+[”"]\s*[-—]`), weight: 0.3},
		},
		analysis.PageTypeLanding: {
			{urlPattern: re(`/(lp|landing)/|[?&]utm_`), titlePattern: re(`\b(get started|sign up|try) (free|now|today)\b`), weight: 0.5},
			{contentPattern: re(`\b(sign up|start (your )?free|limited time|no credit card)\b`), weight: 0.3},
		},
		analysis.PageTypeError: {
			{urlPattern: re(`/(404|error)`), titlePattern: re(`\b404\b|not found|error`), weight: 0.6},
			{contentPattern: re(`page (not found|doesn.t exist)|went wrong`), weight: 0.4},
		},
	}
}

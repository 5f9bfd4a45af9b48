package sections

import (
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/internal/analysis"
)

// indicator is one weighted predicate contributing to a type's pattern
// score. The per-type score is the weighted average of matches.
type indicator struct {
	weight float64
	match  func(c candidate) bool
}

var (
	featuresHeadingRe     = regexp.MustCompile(`(?i)\b(features?|capabilit|what you get|why |benefits?)`)
	testimonialHeadingRe  = regexp.MustCompile(`(?i)\b(testimonials?|reviews?|customers? say|loved by|what .* say)`)
	pricingHeadingRe      = regexp.MustCompile(`(?i)\b(pricing|plans?|tiers?)\b`)
	ctaHeadingRe          = regexp.MustCompile(`(?i)\b(get started|start now|try it|sign ?up|join|contact us|ready to)`)
	footerTextRe          = regexp.MustCompile(`(?i)(©|copyright|all rights reserved|privacy policy|terms of)`)
	formHeadingRe         = regexp.MustCompile(`(?i)\b(contact|subscribe|sign ?up|register|newsletter)\b`)
	formFieldRe           = regexp.MustCompile(`(?i)\b(your (name|email)|email address|required|submit|message)\b`)
	comparisonHeadingRe   = regexp.MustCompile(`(?i)\b(vs\.?|versus|compar(e|ison))\b`)
	faqHeadingRe          = regexp.MustCompile(`(?i)\b(faq|frequently asked|questions)\b`)
	priceTextRe           = regexp.MustCompile(`\$\d+|per (month|user|seat)|/(month|mo|year|yr)\b`)
	attributedQuoteRe     = regexp.MustCompile(`(?m)[-—–]\s*[A-Z][a-z]+( [A-Z][a-z]+)?\s*$`)
	tableRowRe            = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)
	navHeadingRe          = regexp.MustCompile(`(?i)\b(menu|navigation|links)\b`)
)

func headingMatches(re *regexp.Regexp) func(candidate) bool {
	return func(c candidate) bool { return c.heading != "" && re.MatchString(c.heading) }
}

func contentMatches(re *regexp.Regexp) func(candidate) bool {
	return func(c candidate) bool { return re.MatchString(c.content) }
}

func wordCountIn(lo, hi int) func(candidate) bool {
	return func(c candidate) bool { return c.wordCount >= lo && c.wordCount <= hi }
}

func positionBefore(frac float64) func(candidate) bool {
	return func(c candidate) bool { return c.relPosition() <= frac }
}

func positionAfter(frac float64) func(candidate) bool {
	return func(c candidate) bool { return c.relPosition() >= frac }
}

func listItemsAtLeast(n int) func(candidate) bool {
	return func(c candidate) bool { return c.listItems >= n }
}

func linkDominant(c candidate) bool {
	return c.links >= 3 && c.wordCount <= c.links*6
}

// indicatorSets maps every section type to its weighted predicates.
var indicatorSets = map[analysis.SectionType][]indicator{
	analysis.SectionHero: {
		{0.35, positionBefore(0.15)},
		{0.35, func(c candidate) bool { return c.headingLevel == 1 }},
		{0.2, wordCountIn(0, 150)},
		{0.1, func(c candidate) bool { return c.listItems == 0 }},
	},
	analysis.SectionFeatures: {
		{0.4, headingMatches(featuresHeadingRe)},
		{0.3, listItemsAtLeast(3)},
		{0.2, wordCountIn(15, 600)},
		{0.1, func(c candidate) bool { return c.headingLevel >= 2 }},
	},
	analysis.SectionTestimonials: {
		{0.4, headingMatches(testimonialHeadingRe)},
		{0.3, func(c candidate) bool { return c.quotes > 0 }},
		{0.2, contentMatches(attributedQuoteRe)},
		{0.1, wordCountIn(10, 400)},
	},
	analysis.SectionPricing: {
		{0.4, headingMatches(pricingHeadingRe)},
		{0.3, contentMatches(priceTextRe)},
		{0.2, func(c candidate) bool { return c.listItems >= 2 || tableRowRe.MatchString(c.content) }},
		{0.1, wordCountIn(10, 500)},
	},
	analysis.SectionCTA: {
		{0.4, headingMatches(ctaHeadingRe)},
		{0.25, wordCountIn(0, 60)},
		{0.2, positionAfter(0.7)},
		{0.15, func(c candidate) bool { return c.links > 0 }},
	},
	analysis.SectionContent: {
		{0.45, func(c candidate) bool { return c.paragraphs > 0 }},
		{0.25, wordCountIn(20, 2000)},
		{0.15, func(c candidate) bool { return c.code == 0 && c.listItems == 0 }},
		{0.15, func(c candidate) bool { return c.heading == "" || c.headingLevel >= 2 }},
	},
	analysis.SectionSidebar: {
		{0.5, linkDominant},
		{0.3, wordCountIn(0, 80)},
		{0.2, listItemsAtLeast(3)},
	},
	analysis.SectionFooter: {
		{0.45, positionAfter(0.85)},
		{0.35, contentMatches(footerTextRe)},
		{0.2, wordCountIn(0, 80)},
	},
	analysis.SectionNavigation: {
		{0.35, positionBefore(0.1)},
		{0.3, linkDominant},
		{0.2, headingMatches(navHeadingRe)},
		{0.15, wordCountIn(0, 40)},
	},
	analysis.SectionHeader: {
		{0.4, positionBefore(0.05)},
		{0.3, func(c candidate) bool { return c.headingLevel == 1 && c.wordCount <= 10 }},
		{0.3, func(c candidate) bool { return c.paragraphs == 0 && c.listItems == 0 }},
	},
	analysis.SectionForm: {
		{0.4, headingMatches(formHeadingRe)},
		{0.4, contentMatches(formFieldRe)},
		{0.2, wordCountIn(5, 150)},
	},
	analysis.SectionComparison: {
		{0.45, headingMatches(comparisonHeadingRe)},
		{0.35, func(c candidate) bool { return len(tableRowRe.FindAllString(c.content, -1)) >= 2 }},
		{0.2, wordCountIn(20, 800)},
	},
	analysis.SectionFAQ: {
		{0.45, headingMatches(faqHeadingRe)},
		{0.35, func(c candidate) bool { return strings.Count(c.content, "?") >= 2 }},
		{0.2, wordCountIn(20, 1500)},
	},
}

// scoreType computes the weighted average match for one type.
func scoreType(c candidate, indicators []indicator) float64 {
	var total, matched float64
	for _, ind := range indicators {
		total += ind.weight
		if ind.match(c) {
			matched += ind.weight
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

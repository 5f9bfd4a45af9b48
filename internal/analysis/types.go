// Package analysis defines the core domain types and interfaces shared by
// the analyzers, the worker pool, the cache, and the orchestrator.
package analysis

import "time"

// Page is the upstream unit of work: one extracted web page. Pages are
// produced by an upstream extractor and treated as read-only here.
type Page struct {
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Markdown    string         `json:"markdown"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// PageType is the fixed classification vocabulary. Declaration order is
// significant: score ties resolve to the earlier type.
type PageType string

// Supported page types.
const (
	PageTypeHome          PageType = "home"
	PageTypeAbout         PageType = "about"
	PageTypePricing       PageType = "pricing"
	PageTypeContact       PageType = "contact"
	PageTypeBlogPost      PageType = "blog-post"
	PageTypeDocumentation PageType = "documentation"
	PageTypeAPIReference  PageType = "api-reference"
	PageTypeProduct       PageType = "product"
	PageTypeService       PageType = "service"
	PageTypeCaseStudy     PageType = "case-study"
	PageTypeTestimonial   PageType = "testimonial"
	PageTypeLanding       PageType = "landing"
	PageTypeError         PageType = "error"
	PageTypeOther         PageType = "other"
)

// PageTypes lists every PageType in declaration order.
var PageTypes = []PageType{
	PageTypeHome,
	PageTypeAbout,
	PageTypePricing,
	PageTypeContact,
	PageTypeBlogPost,
	PageTypeDocumentation,
	PageTypeAPIReference,
	PageTypeProduct,
	PageTypeService,
	PageTypeCaseStudy,
	PageTypeTestimonial,
	PageTypeLanding,
	PageTypeError,
	PageTypeOther,
}

// SectionType labels a detected structural region of a page.
type SectionType string

// Supported section types.
const (
	SectionHero         SectionType = "hero"
	SectionFeatures     SectionType = "features"
	SectionTestimonials SectionType = "testimonials"
	SectionPricing      SectionType = "pricing"
	SectionCTA          SectionType = "cta"
	SectionContent      SectionType = "content"
	SectionSidebar      SectionType = "sidebar"
	SectionFooter       SectionType = "footer"
	SectionNavigation   SectionType = "navigation"
	SectionHeader       SectionType = "header"
	SectionForm         SectionType = "form"
	SectionComparison   SectionType = "comparison"
	SectionFAQ          SectionType = "faq"
)

// SectionTypes lists every SectionType in declaration order.
var SectionTypes = []SectionType{
	SectionHero,
	SectionFeatures,
	SectionTestimonials,
	SectionPricing,
	SectionCTA,
	SectionContent,
	SectionSidebar,
	SectionFooter,
	SectionNavigation,
	SectionHeader,
	SectionForm,
	SectionComparison,
	SectionFAQ,
}

// ReadabilityMetrics captures sentence-level readability scores. All values
// except FleschReadingEase floor at zero; the ease score is clamped [0,100].
type ReadabilityMetrics struct {
	FleschReadingEase  float64 `json:"fleschReadingEase"`
	FleschKincaidGrade float64 `json:"fleschKincaidGrade"`
	GunningFog         float64 `json:"gunningFog"`
	SMOG               float64 `json:"smog"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	AvgWordLength      float64 `json:"avgWordLength"`
	ComplexWordRatio   float64 `json:"complexWordRatio"`
	ReadingTimeMinutes int     `json:"readingTimeMinutes"`
}

// SentimentLabel is a coarse sentiment grouping.
type SentimentLabel string

// Sentiment labels.
const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentMetrics summarizes lexicon-based sentiment per page.
type SentimentMetrics struct {
	Overall           SentimentLabel `json:"overall"`
	Compound          float64        `json:"compound"`
	PositiveSentences int            `json:"positiveSentences"`
	NegativeSentences int            `json:"negativeSentences"`
	NeutralSentences  int            `json:"neutralSentences"`
}

// DensityMetrics counts structural elements of the raw markdown.
type DensityMetrics struct {
	Paragraphs         int     `json:"paragraphs"`
	Sentences          int     `json:"sentences"`
	Words              int     `json:"words"`
	Characters         int     `json:"characters"`
	Headings           int     `json:"headings"`
	Lists              int     `json:"lists"`
	Links              int     `json:"links"`
	Images             int     `json:"images"`
	CodeBlocks         int     `json:"codeBlocks"`
	InformationDensity float64 `json:"informationDensity"`
}

// StructureMetrics scores document shape.
type StructureMetrics struct {
	HeadingHierarchy float64 `json:"headingHierarchy"`
	MaxListDepth     int     `json:"maxListDepth"`
	LinkRatio        float64 `json:"linkRatio"`
	ImageRatio       float64 `json:"imageRatio"`
	// ParagraphBuckets counts paragraphs by length: <10, 10-25, 26-50,
	// 51-100, >100 words.
	ParagraphBuckets [5]int `json:"paragraphBuckets"`
}

// Keyword pairs a term with its computed importance.
type Keyword struct {
	Term       string  `json:"term"`
	Count      int     `json:"count"`
	Importance float64 `json:"importance"`
}

// KeywordMetrics holds extracted terms and string-similarity clusters.
type KeywordMetrics struct {
	MainKeywords  []Keyword  `json:"mainKeywords"`
	TopicClusters [][]string `json:"topicClusters"`
}

// ContentMetrics bundles the per-page metric families plus the composite
// quality score in [0,1].
type ContentMetrics struct {
	Readability ReadabilityMetrics `json:"readability"`
	Sentiment   SentimentMetrics   `json:"sentiment"`
	Density     DensityMetrics     `json:"density"`
	Structure   StructureMetrics   `json:"structure"`
	Keywords    KeywordMetrics     `json:"keywords"`
	Quality     float64            `json:"quality"`
}

// Section is one detected region of a page, ordered by Position.
type Section struct {
	ID           string         `json:"id"`
	Type         SectionType    `json:"type"`
	Confidence   float64        `json:"confidence"`
	HeadingLevel int            `json:"headingLevel"`
	WordCount    int            `json:"wordCount"`
	Position     int            `json:"position"`
	Content      string         `json:"content"`
	Metrics      SectionMetrics `json:"metrics"`
}

// SectionMetrics carries lightweight per-section counts.
type SectionMetrics struct {
	Lists  int `json:"lists"`
	Links  int `json:"links"`
	Quotes int `json:"quotes"`
}

// ClassificationResult is the classifier output for one page.
type ClassificationResult struct {
	PageType   PageType             `json:"pageType"`
	Confidence float64              `json:"confidence"`
	Scores     map[PageType]float64 `json:"scores"`
	Features   FeatureVector        `json:"features"`
}

// FeatureVector is the deterministic numeric feature set derived from a
// page for the heuristic scoring pass.
type FeatureVector struct {
	URLDepth        int     `json:"urlDepth"`
	URLLength       int     `json:"urlLength"`
	TitleLength     int     `json:"titleLength"`
	WordCount       int     `json:"wordCount"`
	HeadingCount    int     `json:"headingCount"`
	ListCount       int     `json:"listCount"`
	LinkCount       int     `json:"linkCount"`
	CodeBlockCount  int     `json:"codeBlockCount"`
	PriceTokens     int     `json:"priceTokens"`
	QuestionMarks   int     `json:"questionMarks"`
	HasFrontmatter  bool    `json:"hasFrontmatter"`
	HasDate         bool    `json:"hasDate"`
	HasAuthor       bool    `json:"hasAuthor"`
	AvgHeadingWords float64 `json:"avgHeadingWords"`
}

// CrossReference links two analyzed pages. References are always created
// in symmetric pairs with equal confidence and swapped endpoints.
type CrossReference struct {
	SourceURL      string   `json:"sourceUrl"`
	TargetURL      string   `json:"targetUrl"`
	Type           string   `json:"type"`
	Confidence     float64  `json:"confidence"`
	SharedSections []string `json:"sharedSections"`
}

// Result is the per-page analysis output. Identity key is URL.
type Result struct {
	URL             string           `json:"url"`
	PageType        PageType         `json:"pageType"`
	Confidence      float64          `json:"confidence"`
	ContentMetrics  ContentMetrics   `json:"contentMetrics"`
	Sections        []Section        `json:"sections"`
	CrossReferences []CrossReference `json:"crossReferences"`
	RelatedPages    []string         `json:"relatedPages"`
	AnalysisTime    time.Duration    `json:"analysisTime"`
	Embeddings      []float64        `json:"embeddings,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// Clone returns a deep copy whose cross-reference and related-page slices
// are fresh, so callers can never mutate a cached result through the copy.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Sections = append([]Section(nil), r.Sections...)
	out.CrossReferences = append([]CrossReference(nil), r.CrossReferences...)
	out.RelatedPages = append([]string(nil), r.RelatedPages...)
	if r.Embeddings != nil {
		out.Embeddings = append([]float64(nil), r.Embeddings...)
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

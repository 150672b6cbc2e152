package news

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Keywords holds the substring patterns for each section.
type Keywords struct {
	Trends      []string `yaml:"trends" json:"trends"`
	NewProducts []string `yaml:"new_products" json:"new_products"`
	Brands      []string `yaml:"brands" json:"brands"`
}

// keywordSet is a case-insensitive substring matcher over one pattern list.
type keywordSet struct {
	matcher *ahocorasick.Matcher
}

func newKeywordSet(patterns []string) keywordSet {
	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		normalized = append(normalized, p)
	}
	if len(normalized) == 0 {
		return keywordSet{}
	}
	return keywordSet{matcher: ahocorasick.NewStringMatcher(normalized)}
}

func (k keywordSet) matches(haystack []byte) bool {
	if k.matcher == nil {
		return false
	}
	return len(k.matcher.Match(haystack)) > 0
}

// Buckets holds the classified items of one publication.
type Buckets map[Section][]Item

// Len returns the total number of items over all sections.
func (b Buckets) Len() int {
	n := 0
	for _, s := range Sections {
		n += len(b[s])
	}
	return n
}

// Classified is the bucketed result for one publication.
type Classified struct {
	Publication string
	Buckets     Buckets
}

// Classifier assigns items to sections and caps each section.
type Classifier struct {
	newProducts   keywordSet
	trends        keywordSet
	brands        keywordSet
	maxPerSection int
}

// NewClassifier builds the keyword matchers once for a run. A maxPerSection
// of zero or less disables truncation.
func NewClassifier(kw Keywords, maxPerSection int) *Classifier {
	return &Classifier{
		newProducts:   newKeywordSet(kw.NewProducts),
		trends:        newKeywordSet(kw.Trends),
		brands:        newKeywordSet(kw.Brands),
		maxPerSection: maxPerSection,
	}
}

// Classify returns the section of a single item. A valid section hint always
// wins; otherwise keyword sets are tried in the order New Products, Trends,
// Brands, and Trends is the default.
func (c *Classifier) Classify(it Item) Section {
	if it.SectionHint.Valid() {
		return it.SectionHint
	}

	haystack := []byte(strings.ToLower(it.Title + " " + it.Snippet))
	switch {
	case c.newProducts.matches(haystack):
		return SectionNewProducts
	case c.trends.matches(haystack):
		return SectionTrends
	case c.brands.matches(haystack):
		return SectionBrands
	}
	return SectionTrends
}

// Bucket classifies every publication of reg. Each publication gets all three
// sections, truncated to the first maxPerSection items in arrival order.
func (c *Classifier) Bucket(reg *Registry) []Classified {
	out := make([]Classified, 0, len(reg.Publications()))
	for _, p := range reg.Publications() {
		buckets := Buckets{}
		for _, s := range Sections {
			buckets[s] = []Item{}
		}
		for _, it := range reg.Items(p) {
			s := c.Classify(it)
			buckets[s] = append(buckets[s], it)
		}
		if c.maxPerSection > 0 {
			for _, s := range Sections {
				if len(buckets[s]) > c.maxPerSection {
					buckets[s] = buckets[s][:c.maxPerSection]
				}
			}
		}
		out = append(out, Classified{Publication: p, Buckets: buckets})
	}
	return out
}

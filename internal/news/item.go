package news

import (
	"strings"
	"time"
)

// Section is one of the thematic buckets of the monthly digest.
type Section string

const (
	SectionTrends      Section = "Trends"
	SectionNewProducts Section = "New Products"
	SectionBrands      Section = "Brands"
)

// Sections lists every section in report order.
var Sections = []Section{SectionTrends, SectionNewProducts, SectionBrands}

// Valid reports whether s names one of the known sections.
func (s Section) Valid() bool {
	switch s {
	case SectionTrends, SectionNewProducts, SectionBrands:
		return true
	}
	return false
}

// Source tags
const (
	SourceRSS = "rss"
)

// Item is one discovered article.
type Item struct {
	Title       string
	Link        string
	Snippet     string
	Source      string
	SectionHint Section // empty when the feed address implies nothing
	Published   time.Time

	// Summary is only meaningful once Enriched is set.
	Summary  string
	Enriched bool
}

// Retainable reports whether the item carries the fields every kept item needs.
func (it Item) Retainable() bool {
	return strings.TrimSpace(it.Title) != "" && strings.TrimSpace(it.Link) != ""
}

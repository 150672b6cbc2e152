package rss

import (
	"strings"

	"github.com/deusflow/eyewear-digest/internal/news"
)

// sectionHints maps feed address segments to the section their entries
// belong to. First match wins.
var sectionHints = []struct {
	segment string
	section news.Section
}{
	{"/frame-collections/", news.SectionNewProducts},
	{"/sunwear-collections/", news.SectionNewProducts},
	{"/brands-and-designers/", news.SectionBrands},
	{"/high-visibility/", news.SectionTrends},
}

// HintFromFeedURL derives a section from the feed address itself. Unknown
// address shapes give no hint.
func HintFromFeedURL(feedURL string) news.Section {
	s := strings.ToLower(feedURL)
	for _, h := range sectionHints {
		if strings.Contains(s, h.segment) {
			return h.section
		}
	}
	return ""
}

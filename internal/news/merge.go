package news

// Merge combines feed and search results into one registry. Feed items come
// first, search items are appended after them.
//
// Overlap between the two sources is not checked: each collector already
// dedups its own output, and a story found both in a feed and through search
// is passed through twice.
func Merge(feed, search *Registry) *Registry {
	merged := NewRegistry()
	for _, src := range []*Registry{feed, search} {
		for _, p := range src.Publications() {
			merged.Add(p, src.Items(p)...)
		}
	}
	return merged
}

package news

// Registry maps publication names to their items, remembering the order in
// which publications were first added.
type Registry struct {
	order []string
	items map[string][]Item
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string][]Item)}
}

// Ensure registers a publication without adding items.
func (r *Registry) Ensure(publication string) {
	if _, ok := r.items[publication]; ok {
		return
	}
	r.order = append(r.order, publication)
	r.items[publication] = []Item{}
}

// Add appends items to a publication, registering it if needed.
func (r *Registry) Add(publication string, items ...Item) {
	r.Ensure(publication)
	r.items[publication] = append(r.items[publication], items...)
}

// Publications returns publication names in insertion order.
func (r *Registry) Publications() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Items returns the items of one publication. The slice must not be modified.
func (r *Registry) Items(publication string) []Item {
	if r == nil {
		return nil
	}
	return r.items[publication]
}

// Count returns how many items a publication holds.
func (r *Registry) Count(publication string) int {
	return len(r.Items(publication))
}

// Counts returns per-publication item counts.
func (r *Registry) Counts() map[string]int {
	counts := make(map[string]int, len(r.Publications()))
	for _, p := range r.Publications() {
		counts[p] = r.Count(p)
	}
	return counts
}

// Total returns the number of items across all publications.
func (r *Registry) Total() int {
	total := 0
	for _, p := range r.Publications() {
		total += r.Count(p)
	}
	return total
}

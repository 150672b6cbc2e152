package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/eyewear-digest/internal/config"
	"github.com/deusflow/eyewear-digest/internal/logger"
	"github.com/deusflow/eyewear-digest/internal/news"
	"github.com/deusflow/eyewear-digest/internal/ratelimit"
)

type fakeProvider struct {
	name    string
	queries []string
	answer  func(query string) ([]Result, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, query string) ([]Result, error) {
	f.queries = append(f.queries, query)
	return f.answer(query)
}

var september = news.MonthWindow(2025, time.September, time.UTC)

func distinctResults(prefix string, n int) []Result {
	out := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Result{
			Title:  fmt.Sprintf("%s story %d", prefix, i),
			URL:    fmt.Sprintf("https://%s.example.com/%d", prefix, i),
			Engine: "fake",
		})
	}
	return out
}

func TestBuildQueries(t *testing.T) {
	got := BuildQueries(DefaultQueryTemplates, "2025-09")
	assert.Equal(t, []string{
		"eyewear trends 2025-09",
		"new collection 2025-09",
		"launch eyewear 2025-09",
		"brand collaboration eyewear 2025-09",
	}, got)
}

func TestCollect_SkipsCoveredPublications(t *testing.T) {
	p := &fakeProvider{name: "fake", answer: func(string) ([]Result, error) { return nil, nil }}
	c := NewCollector(p, nil, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "Vision Monday", Values: []string{"visionmonday.com"}}}
	reg := c.Collect(context.Background(), september, sites, map[string]int{"Vision Monday": 10})

	assert.Empty(t, p.queries)
	assert.Empty(t, reg.Publications())
}

func TestCollect_QueriesPerDomainAndTemplate(t *testing.T) {
	p := &fakeProvider{name: "fake", answer: func(q string) ([]Result, error) {
		return []Result{{Title: q, URL: "https://eyestylist.com/" + strings.ReplaceAll(q, " ", "-"), Snippet: "  a\n b ", Engine: "fake"}}, nil
	}}
	c := NewCollector(p, nil, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "Eyestylist", Values: []string{"eyestylist.com", "eyebook.com"}}}
	reg := c.Collect(context.Background(), september, sites, map[string]int{"Eyestylist": 2})

	require.Len(t, p.queries, 8)
	assert.Equal(t, "site:eyestylist.com eyewear trends 2025-09", p.queries[0])
	assert.Equal(t, "site:eyebook.com brand collaboration eyewear 2025-09", p.queries[7])

	items := reg.Items("Eyestylist")
	require.Len(t, items, 8)
	assert.Equal(t, "a b", items[0].Snippet)
	assert.Equal(t, "fake", items[0].Source)
	assert.Equal(t, news.Section(""), items[0].SectionHint)
}

func TestCollect_DedupKeepsFirst(t *testing.T) {
	p := &fakeProvider{name: "fake", answer: func(q string) ([]Result, error) {
		return []Result{
			{Title: "Spring  Frames", URL: "https://eyebook.com/a", Snippet: "first"},
			{Title: "spring frames", URL: "https://eyebook.com/b", Snippet: "second"},
			{Title: "Spring Frames", URL: "https://other.com/a", Snippet: "other host"},
			{Title: "", URL: "https://eyebook.com/empty"},
			{Title: "Relative", URL: "/relative/link"},
		}, nil
	}}
	c := NewCollector(p, nil, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "Eyebook", Values: []string{"eyebook.com"}}}
	reg := c.Collect(context.Background(), september, sites, nil)

	items := reg.Items("Eyebook")
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Snippet)
	assert.Equal(t, "other host", items[1].Snippet)
}

func TestCollect_StopsAtMaxResults(t *testing.T) {
	calls := 0
	p := &fakeProvider{name: "fake", answer: func(string) ([]Result, error) {
		calls++
		return distinctResults(fmt.Sprintf("q%d", calls), 10), nil
	}}
	c := NewCollector(p, nil, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "Spectr", Values: []string{"spectr.com", "spectr.de"}}}
	reg := c.Collect(context.Background(), september, sites, nil)

	assert.Len(t, reg.Items("Spectr"), 12)
	assert.Len(t, p.queries, 2)
}

func TestCollect_NoProviderYieldsEmpty(t *testing.T) {
	c := NewCollector(nil, nil, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "GQ", Values: []string{"gq.com"}}}
	reg := c.Collect(context.Background(), september, sites, nil)

	assert.Equal(t, []string{"GQ"}, reg.Publications())
	assert.Empty(t, reg.Items("GQ"))
}

func TestCollect_FailingBackendReadsAsZero(t *testing.T) {
	p := &fakeProvider{name: "fake", answer: func(q string) ([]Result, error) {
		if strings.Contains(q, "trends") {
			return nil, errors.New("status 500")
		}
		return []Result{{Title: q, URL: "https://vogue.com/" + strings.ReplaceAll(q, " ", "-")}}, nil
	}}
	c := NewCollector(p, nil, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "Vogue", Values: []string{"vogue.com"}}}
	reg := c.Collect(context.Background(), september, sites, nil)

	assert.Len(t, p.queries, 4)
	assert.Len(t, reg.Items("Vogue"), 3)
}

func TestCollect_BudgetCapsQueries(t *testing.T) {
	p := &fakeProvider{name: "fake", answer: func(string) ([]Result, error) { return nil, nil }}
	budget := ratelimit.NewBudget(map[string]int{"search": 3}, 0, 1, logger.Discard())
	c := NewCollector(p, budget, DefaultOptions(), nil, logger.Discard())

	sites := config.PublicationList{{Name: "TEF", Values: []string{"tef.com", "tef.org"}}}
	c.Collect(context.Background(), september, sites, nil)

	assert.Len(t, p.queries, 3)
}

func TestCollect_DedupIdempotent(t *testing.T) {
	first := &fakeProvider{name: "fake", answer: func(string) ([]Result, error) {
		return []Result{
			{Title: "Spring Frames", URL: "https://eyebook.com/a", Snippet: "one"},
			{Title: "spring  frames", URL: "https://eyebook.com/b", Snippet: "two"},
			{Title: "Autumn", URL: "https://eyebook.com/c", Snippet: "three"},
		}, nil
	}}
	sites := config.PublicationList{{Name: "Eyebook", Values: []string{"eyebook.com"}}}
	opts := DefaultOptions()
	opts.QueryTemplates = []string{"eyewear {month}"}

	once := NewCollector(first, nil, opts, nil, logger.Discard()).Collect(context.Background(), september, sites, nil).Items("Eyebook")
	require.Len(t, once, 2)
	assert.Equal(t, "https://eyebook.com/a", once[0].Link)

	replay := &fakeProvider{name: "fake", answer: func(string) ([]Result, error) {
		out := make([]Result, 0, len(once))
		for _, it := range once {
			out = append(out, Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet, Engine: it.Source})
		}
		return out, nil
	}}
	twice := NewCollector(replay, nil, opts, nil, logger.Discard()).Collect(context.Background(), september, sites, nil).Items("Eyebook")
	assert.Equal(t, once, twice)
}

func TestChain_FallsThroughOnError(t *testing.T) {
	primary := &fakeProvider{name: "serpapi", answer: func(string) ([]Result, error) { return nil, errors.New("quota") }}
	secondary := &fakeProvider{name: "google-cse", answer: func(string) ([]Result, error) {
		return []Result{{Title: "t", URL: "https://x.com", Engine: "google-cse"}}, nil
	}}

	chain := NewChain(logger.Discard(), primary, secondary)
	results, err := chain.Search(context.Background(), "q")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "google-cse", results[0].Engine)
}

func TestChain_EmptySuccessStops(t *testing.T) {
	primary := &fakeProvider{name: "serpapi", answer: func(string) ([]Result, error) { return []Result{}, nil }}
	secondary := &fakeProvider{name: "google-cse", answer: func(string) ([]Result, error) { return nil, nil }}

	_, err := NewChain(logger.Discard(), primary, secondary).Search(context.Background(), "q")

	require.NoError(t, err)
	assert.Empty(t, secondary.queries)
}

func TestChain_Unconfigured(t *testing.T) {
	chain := NewChain(logger.Discard())
	assert.False(t, chain.Configured())

	_, err := chain.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoProvider)
}

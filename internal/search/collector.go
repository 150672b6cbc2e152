package search

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/deusflow/eyewear-digest/internal/config"
	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/news"
	"github.com/deusflow/eyewear-digest/internal/ratelimit"
)

// MonthPlaceholder is replaced by the reporting month (YYYY-MM) in query templates.
const MonthPlaceholder = "{month}"

// DefaultQueryTemplates are the queries issued per site domain.
var DefaultQueryTemplates = []string{
	"eyewear trends {month}",
	"new collection {month}",
	"launch eyewear {month}",
	"brand collaboration eyewear {month}",
}

type Options struct {
	CoverageThreshold int // publications with at least this many feed items are skipped
	MaxResults        int // per publication
	QueryTemplates    []string
}

func DefaultOptions() Options {
	return Options{
		CoverageThreshold: 6,
		MaxResults:        12,
		QueryTemplates:    DefaultQueryTemplates,
	}
}

// Collector tops up publications whose feeds came back thin with
// domain-restricted web search results.
type Collector struct {
	provider Provider
	budget   *ratelimit.Budget
	opts     Options
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewCollector wires a collector. provider may be nil (search disabled);
// budget may be nil (no pacing, no cap).
func NewCollector(provider Provider, budget *ratelimit.Budget, opts Options, m *metrics.Metrics, log *slog.Logger) *Collector {
	if len(opts.QueryTemplates) == 0 {
		opts.QueryTemplates = DefaultQueryTemplates
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{provider: provider, budget: budget, opts: opts, metrics: m, log: log}
}

// BuildQueries renders the query templates for a reporting month.
func BuildQueries(templates []string, month string) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, strings.ReplaceAll(t, MonthPlaceholder, month))
	}
	return out
}

// Collect searches every under-covered publication of sites. feedCounts holds
// how many items the feeds already produced per publication. Search problems
// never fail the run: they just mean fewer items.
func (c *Collector) Collect(ctx context.Context, w news.Window, sites config.PublicationList, feedCounts map[string]int) *news.Registry {
	out := news.NewRegistry()
	queries := BuildQueries(c.opts.QueryTemplates, w.Month())

	for _, pub := range sites {
		if have := feedCounts[pub.Name]; have >= c.opts.CoverageThreshold {
			c.log.Debug("search skipped: feed coverage sufficient", "publication", pub.Name, "feed_items", have)
			c.metrics.IncrementSearchSkipped()
			continue
		}

		items := c.collectPublication(ctx, pub, queries)
		out.Add(pub.Name, items...)
		c.metrics.AddSearchResults(len(items))
		c.log.Info("publication searched", "publication", pub.Name, "items", len(items))
	}

	return out
}

func (c *Collector) collectPublication(ctx context.Context, pub config.Publication, queries []string) []news.Item {
	acc := newAccumulator(c.opts.MaxResults)
	if c.provider == nil {
		return acc.items
	}

	for _, domain := range pub.Values {
		for _, q := range queries {
			if acc.full() || ctx.Err() != nil {
				return acc.items
			}
			for _, r := range c.query(ctx, "site:"+domain+" "+q) {
				acc.add(r)
				if acc.full() {
					break
				}
			}
		}
	}
	return acc.items
}

// query runs one search. Every failure is logged and reads as zero results.
func (c *Collector) query(ctx context.Context, term string) []Result {
	if c.budget != nil {
		if err := c.budget.Use(ctx, "search"); err != nil {
			c.log.Warn("search query skipped", "query", term, "error", err)
			return nil
		}
	}

	c.metrics.IncrementSearchQueries()
	results, err := c.provider.Search(ctx, term)
	if err != nil {
		c.log.Warn("search query failed", "query", term, "error", err)
		c.metrics.IncrementSearchFailures()
		return nil
	}
	c.log.Debug("search query", "query", term, "results", len(results))
	return results
}

// accumulator collects results for one publication, keeping the first of
// each host + normalized title pair and stopping at max.
type accumulator struct {
	items []news.Item
	seen  dedupSet
	max   int
}

func newAccumulator(max int) *accumulator {
	return &accumulator{items: []news.Item{}, seen: dedupSet{}, max: max}
}

func (a *accumulator) full() bool {
	return a.max > 0 && len(a.items) >= a.max
}

func (a *accumulator) add(r Result) {
	it := news.Item{
		Title:   strings.TrimSpace(r.Title),
		Link:    strings.TrimSpace(r.URL),
		Snippet: news.CollapseSpace(r.Snippet),
		Source:  r.Engine,
	}
	if a.seen.admit(it) {
		a.items = append(a.items, it)
	}
}

// dedupSet remembers search hits by URL host and normalized title.
type dedupSet map[string]struct{}

// admit reports whether it is retainable, has an absolute URL and was not
// seen before, and records it.
func (s dedupSet) admit(it news.Item) bool {
	if !it.Retainable() {
		return false
	}
	u, err := url.Parse(it.Link)
	if err != nil || u.Host == "" {
		return false
	}
	sig := u.Host + "|" + news.CollapseSpace(strings.ToLower(it.Title))
	if _, dup := s[sig]; dup {
		return false
	}
	s[sig] = struct{}{}
	return true
}

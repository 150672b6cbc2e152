package news

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deusflow/eyewear-digest/internal/cache"
	"github.com/deusflow/eyewear-digest/internal/metrics"
)

// Page is the text an article page offers for a summary.
type Page struct {
	Description string // page-level description metadata
	MainText    string // extracted main content
}

// PageFetcher loads an article page.
type PageFetcher interface {
	FetchPage(ctx context.Context, link string) (Page, error)
}

// Condenser rewrites extracted text into a short summary (e.g. an LLM).
type Condenser interface {
	Condense(ctx context.Context, title, text string) (string, error)
}

type EnrichConfig struct {
	MaxItems      int // page fetches per run
	FallbackChars int // snippet budget when the page is unavailable
	MaxChars      int // summary budget
	Sentences     int
}

func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		MaxItems:      18,
		FallbackChars: 180,
		MaxChars:      260,
		Sentences:     2,
	}
}

// Enricher fills Item.Summary for a bounded number of classified items.
type Enricher struct {
	fetcher   PageFetcher
	condenser Condenser
	cache     *cache.Cache[string]
	metrics   *metrics.Metrics
	log       *slog.Logger
	cfg       EnrichConfig
}

// NewEnricher wires an enricher. condenser may be nil.
func NewEnricher(fetcher PageFetcher, condenser Condenser, cfg EnrichConfig, m *metrics.Metrics, log *slog.Logger) *Enricher {
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{
		fetcher:   fetcher,
		condenser: condenser,
		cache:     cache.New[string](0),
		metrics:   m,
		log:       log,
		cfg:       cfg,
	}
}

// Enrich walks publications, sections and items in report order and sets a
// summary on items that lack one, fetching at most cfg.MaxItems pages. Items
// are updated in place. Failures only ever degrade one item to its fallback;
// once ctx is done no further pages are fetched.
func (e *Enricher) Enrich(ctx context.Context, classified []Classified) {
	fetched := 0
	for _, c := range classified {
		for _, s := range Sections {
			items := c.Buckets[s]
			for i := range items {
				if items[i].Enriched {
					continue
				}
				key := cache.Key(items[i].Link)
				if summary, ok := e.cache.Get(key); ok {
					items[i].Summary = summary
					items[i].Enriched = true
					e.metrics.IncrementSummariesCached()
					continue
				}
				if fetched >= e.cfg.MaxItems {
					continue
				}
				if err := ctx.Err(); err != nil {
					e.log.Warn("enrichment cancelled", "fetched", fetched, "error", err)
					return
				}
				fetched++

				summary := e.summarize(ctx, items[i])
				items[i].Summary = summary
				items[i].Enriched = true
				e.cache.Set(key, summary)
			}
		}
	}
	e.log.Info("enrichment done", "fetched", fetched, "limit", e.cfg.MaxItems)
}

// summarize never fails: any error turns into the snippet fallback.
func (e *Enricher) summarize(ctx context.Context, it Item) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("summary extraction panicked", "link", it.Link, "panic", fmt.Sprint(r))
			e.metrics.IncrementSummariesFallback()
			summary = e.fallback(it)
		}
	}()

	page, err := e.fetcher.FetchPage(ctx, it.Link)
	if err != nil {
		e.log.Warn("summary fetch failed", "link", it.Link, "error", err)
		e.metrics.IncrementSummariesFallback()
		return e.fallback(it)
	}
	e.metrics.IncrementSummariesFetched()

	text := firstNonEmpty(CollapseSpace(page.Description), CollapseSpace(page.MainText), it.Snippet)
	if text == "" {
		return ""
	}

	if e.condenser != nil {
		condensed, err := e.condenser.Condense(ctx, it.Title, text)
		if err != nil {
			e.log.Debug("condense skipped", "link", it.Link, "error", err)
		} else if condensed = CollapseSpace(condensed); condensed != "" {
			text = condensed
		}
	}

	return Shape(text, e.cfg.Sentences, e.cfg.MaxChars)
}

func (e *Enricher) fallback(it Item) string {
	return TruncateRunes(it.Snippet, e.cfg.FallbackChars)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

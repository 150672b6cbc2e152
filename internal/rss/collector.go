package rss

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/eyewear-digest/internal/config"
	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/news"
)

// Collector fetches the configured feeds of every publication and keeps the
// entries published inside the reporting window.
type Collector struct {
	parser  *gofeed.Parser
	buffer  time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewCollector builds a collector. buffer widens the window on both sides to
// absorb publication-time skew. A nil client uses gofeed's default.
func NewCollector(client *http.Client, userAgent string, buffer time.Duration, m *metrics.Metrics, log *slog.Logger) *Collector {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Collector{parser: parser, buffer: buffer, metrics: m, log: log}
}

// Collect walks publications and their feeds in order. A feed that cannot be
// fetched or parsed is logged and skipped. Entries repeated across feeds
// (same host and title) are kept once.
func (c *Collector) Collect(ctx context.Context, feeds config.PublicationList, w news.Window) *news.Registry {
	out := news.NewRegistry()
	seen := make(map[string]struct{})
	loc := w.Location()

	for _, pub := range feeds {
		out.Ensure(pub.Name)

		for _, feedURL := range pub.Values {
			if ctx.Err() != nil {
				c.log.Warn("feed collection cancelled", "error", ctx.Err())
				return out
			}

			hint := HintFromFeedURL(feedURL)
			feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
			if err != nil {
				c.log.Warn("feed unavailable", "publication", pub.Name, "url", feedURL, "error", err)
				c.metrics.IncrementFeedsFailed()
				continue
			}
			c.metrics.IncrementFeedsOK()
			c.log.Debug("feed ok", "publication", pub.Name, "url", feedURL, "items", len(feed.Items))

			for _, entry := range feed.Items {
				if entry == nil {
					continue
				}
				if it, ok := c.accept(entry, pub.Name, hint, w, loc, seen); ok {
					out.Add(pub.Name, it)
				}
			}
		}

		c.log.Info("publication feeds collected", "publication", pub.Name, "feeds", len(pub.Values), "items", out.Count(pub.Name))
	}

	return out
}

func (c *Collector) accept(entry *gofeed.Item, publication string, hint news.Section, w news.Window, loc *time.Location, seen map[string]struct{}) (news.Item, bool) {
	c.metrics.IncrementEntriesSeen()

	title := strings.TrimSpace(entry.Title)
	published, ok := entryTimestamp(entry, loc)
	c.log.Debug("raw entry", "publication", publication, "title", title, "published", published, "dated", ok)

	if !ok || !w.Contains(published, c.buffer) {
		c.log.Debug("skip entry: date", "title", title)
		c.metrics.IncrementEntriesOutOfDate()
		return news.Item{}, false
	}

	it := news.Item{
		Title:       title,
		Link:        strings.TrimSpace(entry.Link),
		Source:      news.SourceRSS,
		SectionHint: hint,
		Published:   published,
	}
	if !it.Retainable() {
		c.log.Debug("skip entry: title/link missing", "publication", publication)
		c.metrics.IncrementEntriesMalformed()
		return news.Item{}, false
	}

	sig := signature(it.Link, it.Title)
	if _, dup := seen[sig]; dup {
		c.log.Debug("skip entry: duplicate", "title", title)
		c.metrics.IncrementDuplicates()
		return news.Item{}, false
	}
	seen[sig] = struct{}{}

	it.Snippet = snippet(entry)
	c.metrics.IncrementEntriesKept()
	c.log.Debug("keep entry", "publication", publication, "title", title, "section_hint", string(hint))
	return it, true
}

// signature identifies an entry across feeds by host and lowercase title.
func signature(link, title string) string {
	host := ""
	if u, err := url.Parse(link); err == nil {
		host = u.Hostname()
	}
	return host + "|" + strings.ToLower(title)
}

// snippet prefers the entry description over its full content and reduces
// either to plain, single-spaced text.
func snippet(entry *gofeed.Item) string {
	raw := entry.Description
	if strings.TrimSpace(raw) == "" {
		raw = entry.Content
	}
	return news.CollapseSpace(stripHTML(raw))
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	// keep words from adjacent elements apart once tags are gone
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(strings.ReplaceAll(s, "<", " <")))
	if err != nil {
		return s
	}
	return doc.Text()
}

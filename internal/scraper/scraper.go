package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/deusflow/eyewear-digest/internal/news"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; eyewear-digest/1.0; +https://github.com/deusflow/eyewear-digest)"
	maxBodyBytes     = 5 << 20
	minParagraphLen  = 20
)

// Fetcher downloads article pages and pulls out summary candidates.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher makes a Fetcher. A nil client gets one with a 15s timeout.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

var _ news.PageFetcher = (*Fetcher)(nil)

// FetchPage loads link and returns its description metadata and main text.
func (f *Fetcher) FetchPage(ctx context.Context, link string) (news.Page, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return news.Page{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return news.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return news.Page{}, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return news.Page{}, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return news.Page{}, fmt.Errorf("read body: %w", err)
	}

	return Extract(body, pageURL)
}

// Extract pulls the description and main text out of an HTML document.
func Extract(body []byte, pageURL *url.URL) (news.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return news.Page{}, fmt.Errorf("error parsing HTML: %w", err)
	}

	page := news.Page{Description: extractDescription(doc)}

	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		page.MainText = news.CollapseSpace(article.TextContent)
	}
	if page.MainText == "" {
		page.MainText = extractGenericContent(doc)
	}

	return page, nil
}

// extractDescription returns the first non-empty description meta tag.
func extractDescription(doc *goquery.Document) string {
	selectors := []string{
		`meta[name="description"]`,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
		`meta[name="Description"]`,
	}

	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if content = news.CollapseSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// extractGenericContent is the selector-based parser used when readability
// finds nothing.
func extractGenericContent(doc *goquery.Document) string {
	var paragraphs []string

	selectors := []string{
		"article p",
		".article-body p",
		".article p",
		".entry-content p",
		".post-content p",
		".content p",
		"main p",
		"#content p",
		"p",
	}

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := news.CollapseSpace(s.Text())
			if len(text) > minParagraphLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
	}

	return strings.Join(paragraphs, " ")
}

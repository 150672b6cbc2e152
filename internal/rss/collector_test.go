package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/eyewear-digest/internal/config"
	"github.com/deusflow/eyewear-digest/internal/logger"
	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/news"
)

var kst = time.FixedZone("KST", 9*60*60)

const collectionsFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Frame Collections</title>
    <item>
      <title>  New Frame Launch </title>
      <link>https://www.visionmonday.com/frames/launch</link>
      <description>&lt;p&gt;Acetate   frames&lt;/p&gt;&lt;p&gt;for spring&lt;/p&gt;</description>
      <pubDate>Mon, 15 Sep 2025 10:00:00 +0900</pubDate>
    </item>
    <item>
      <title>Old story</title>
      <link>https://www.visionmonday.com/frames/old</link>
      <pubDate>Fri, 01 Aug 2025 10:00:00 +0900</pubDate>
    </item>
    <item>
      <title>Undated story</title>
      <link>https://www.visionmonday.com/frames/undated</link>
    </item>
    <item>
      <title>No link</title>
      <pubDate>Tue, 16 Sep 2025 10:00:00 +0900</pubDate>
    </item>
    <item>
      <title>Buffer story</title>
      <link>https://www.visionmonday.com/frames/buffer</link>
      <pubDate>Wed, 01 Oct 2025 12:00:00 +0900</pubDate>
    </item>
  </channel>
</rss>`

const generalFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>General</title>
    <item>
      <title>new frame launch</title>
      <link>https://www.visionmonday.com/general/launch-copy</link>
      <pubDate>Mon, 15 Sep 2025 11:00:00 +0900</pubDate>
    </item>
    <item>
      <title>Market report</title>
      <link>https://www.visionmonday.com/general/market</link>
      <pubDate>2025-09-20T08:00:00Z</pubDate>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Eyestylist</title>
  <entry>
    <title>Colour trends for autumn</title>
    <link href="https://eyestylist.com/colour-trends"/>
    <id>urn:1</id>
    <updated>2025-09-03T09:30:00+02:00</updated>
    <summary>Warm tones are back.</summary>
  </entry>
</feed>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/rss/frame-collections/", serve(collectionsFeed))
	mux.HandleFunc("/rss/general/", serve(generalFeed))
	mux.HandleFunc("/atom/", serve(atomFeed))
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCollect(t *testing.T) {
	srv := feedServer(t)
	m := metrics.New()
	c := NewCollector(srv.Client(), "", 48*time.Hour, m, logger.Discard())

	feeds := config.PublicationList{
		{Name: "Vision Monday", Values: []string{
			srv.URL + "/broken/",
			srv.URL + "/rss/frame-collections/",
			srv.URL + "/rss/general/",
		}},
		{Name: "Eyestylist", Values: []string{srv.URL + "/atom/"}},
		{Name: "Quiet", Values: nil},
	}
	w := news.MonthWindow(2025, time.September, kst)

	reg := c.Collect(context.Background(), feeds, w)

	assert.Equal(t, []string{"Vision Monday", "Eyestylist", "Quiet"}, reg.Publications())

	vm := reg.Items("Vision Monday")
	require.Len(t, vm, 3)

	assert.Equal(t, "New Frame Launch", vm[0].Title)
	assert.Equal(t, "Acetate frames for spring", vm[0].Snippet)
	assert.Equal(t, news.SectionNewProducts, vm[0].SectionHint)
	assert.Equal(t, news.SourceRSS, vm[0].Source)
	assert.Equal(t, kst, vm[0].Published.Location())

	assert.Equal(t, "Buffer story", vm[1].Title, "inside the two-day buffer")
	assert.Equal(t, "Market report", vm[2].Title, "case-insensitive duplicate title dropped")
	assert.Equal(t, news.Section(""), vm[2].SectionHint)

	es := reg.Items("Eyestylist")
	require.Len(t, es, 1)
	assert.Equal(t, "Colour trends for autumn", es[0].Title)
	assert.Equal(t, "Warm tones are back.", es[0].Snippet)

	assert.Empty(t, reg.Items("Quiet"))

	assert.EqualValues(t, 1, m.FeedsFailed)
	assert.EqualValues(t, 3, m.FeedsOK)
	assert.EqualValues(t, 1, m.Duplicates)
	assert.EqualValues(t, 1, m.EntriesMalformed)
	assert.EqualValues(t, 2, m.EntriesOutOfDate)
}

func TestHintFromFeedURL(t *testing.T) {
	cases := map[string]news.Section{
		"https://www.visionmonday.com/rss/frame-collections/":    news.SectionNewProducts,
		"https://www.visionmonday.com/RSS/Sunwear-Collections/":  news.SectionNewProducts,
		"https://www.visionmonday.com/rss/brands-and-designers/": news.SectionBrands,
		"https://www.visionmonday.com/rss/high-visibility/":      news.SectionTrends,
		"https://eyestylist.com/feed/":                           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, HintFromFeedURL(in), in)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-09-01T00:00:00+09:00", time.Date(2025, 9, 1, 0, 0, 0, 0, kst), true},
		{"2025-08-31T15:00:00.250Z", time.Date(2025, 9, 1, 0, 0, 0, 250e6, kst), true},
		{"2025-09-01", time.Date(2025, 9, 1, 0, 0, 0, 0, kst), true},
		{"2025-09-01T08:30", time.Date(2025, 9, 1, 8, 30, 0, 0, kst), true},
		{"Mon, 01 Sep 2025 09:00:00 +0900", time.Date(2025, 9, 1, 9, 0, 0, 0, kst), true},
		{"1 Sep 2025 00:00:00 +0000", time.Date(2025, 9, 1, 9, 0, 0, 0, kst), true},
		{"Mon, 1 Sep 2025 09:00 +0900", time.Date(2025, 9, 1, 9, 0, 0, 0, kst), true},
		{"Tue, 30 Sep 2025 20:00:00 EST", time.Date(2025, 10, 1, 10, 0, 0, 0, kst), true},
		{"Tue, 30 Sep 2025 20:00:00 edt", time.Date(2025, 10, 1, 9, 0, 0, 0, kst), true},
		{"30 Sep 2025 20:00 PDT", time.Date(2025, 10, 1, 12, 0, 0, 0, kst), true},
		{"Tue, 30 Sep 2025 20:00:00 UT", time.Date(2025, 10, 1, 5, 0, 0, 0, kst), true},
		{"Tue, 30 Sep 2025 20:00:00 GMT", time.Date(2025, 10, 1, 5, 0, 0, 0, kst), true},
		{"September 1st", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tc := range cases {
		got, ok := ParseTimestamp(tc.in, kst)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.True(t, tc.want.Equal(got), "%s: got %v want %v", tc.in, got, tc.want)
			assert.Equal(t, kst, got.Location())
		}
	}
}

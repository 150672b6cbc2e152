package metrics

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Metrics collects counters for a single digest run.
type Metrics struct {
	mu sync.Mutex

	// Feeds
	FeedsOK          int64
	FeedsFailed      int64
	EntriesSeen      int64
	EntriesKept      int64
	EntriesOutOfDate int64
	EntriesMalformed int64
	Duplicates       int64

	// Search
	SearchQueries  int64
	SearchFailures int64
	SearchResults  int64
	SearchSkipped  int64

	// Enrichment
	SummariesFetched  int64
	SummariesFallback int64
	SummariesCached   int64
	GeminiCalls       int64
	GeminiFailures    int64

	MailsSent int64

	startedAt time.Time
}

func New() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) inc(counter *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
}

func (m *Metrics) IncrementFeedsOK()           { m.inc(&m.FeedsOK) }
func (m *Metrics) IncrementFeedsFailed()       { m.inc(&m.FeedsFailed) }
func (m *Metrics) IncrementEntriesSeen()       { m.inc(&m.EntriesSeen) }
func (m *Metrics) IncrementEntriesKept()       { m.inc(&m.EntriesKept) }
func (m *Metrics) IncrementEntriesOutOfDate()  { m.inc(&m.EntriesOutOfDate) }
func (m *Metrics) IncrementEntriesMalformed()  { m.inc(&m.EntriesMalformed) }
func (m *Metrics) IncrementDuplicates()        { m.inc(&m.Duplicates) }
func (m *Metrics) IncrementSearchQueries()     { m.inc(&m.SearchQueries) }
func (m *Metrics) IncrementSearchFailures()    { m.inc(&m.SearchFailures) }
func (m *Metrics) IncrementSearchSkipped()     { m.inc(&m.SearchSkipped) }
func (m *Metrics) IncrementSummariesFetched()  { m.inc(&m.SummariesFetched) }
func (m *Metrics) IncrementSummariesFallback() { m.inc(&m.SummariesFallback) }
func (m *Metrics) IncrementSummariesCached()   { m.inc(&m.SummariesCached) }
func (m *Metrics) IncrementGeminiCalls()       { m.inc(&m.GeminiCalls) }
func (m *Metrics) IncrementGeminiFailures()    { m.inc(&m.GeminiFailures) }
func (m *Metrics) IncrementMailsSent()         { m.inc(&m.MailsSent) }

func (m *Metrics) AddSearchResults(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchResults += int64(n)
}

// GetStats returns a snapshot of all counters.
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]interface{}{
		"feeds_ok":             m.FeedsOK,
		"feeds_failed":         m.FeedsFailed,
		"entries_seen":         m.EntriesSeen,
		"entries_kept":         m.EntriesKept,
		"entries_out_of_range": m.EntriesOutOfDate,
		"entries_malformed":    m.EntriesMalformed,
		"duplicates":           m.Duplicates,
		"search_queries":       m.SearchQueries,
		"search_failures":      m.SearchFailures,
		"search_results":       m.SearchResults,
		"search_skipped":       m.SearchSkipped,
		"summaries_fetched":    m.SummariesFetched,
		"summaries_fallback":   m.SummariesFallback,
		"summaries_cached":     m.SummariesCached,
		"gemini_calls":         m.GeminiCalls,
		"gemini_failures":      m.GeminiFailures,
		"mails_sent":           m.MailsSent,
		"elapsed_ms":           time.Since(m.startedAt).Milliseconds(),
	}
}

// LogSummary writes all counters as one log line, keys sorted.
func (m *Metrics) LogSummary(log *slog.Logger) {
	stats := m.GetStats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(stats)*2)
	for _, k := range keys {
		args = append(args, k, stats[k])
	}
	log.Info("run stats", args...)
}

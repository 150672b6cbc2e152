// Package app wires the monthly digest pipeline: collect, merge, classify,
// enrich, render, deliver.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/eyewear-digest/internal/config"
	"github.com/deusflow/eyewear-digest/internal/gemini"
	"github.com/deusflow/eyewear-digest/internal/logger"
	"github.com/deusflow/eyewear-digest/internal/mailer"
	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/news"
	"github.com/deusflow/eyewear-digest/internal/ratelimit"
	"github.com/deusflow/eyewear-digest/internal/report"
	"github.com/deusflow/eyewear-digest/internal/retry"
	"github.com/deusflow/eyewear-digest/internal/rss"
	"github.com/deusflow/eyewear-digest/internal/scraper"
	"github.com/deusflow/eyewear-digest/internal/search"
)

const (
	FormatHTML = "html"
	FormatText = "text"
)

// Sender delivers a rendered digest.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type Options struct {
	Month  string    // YYYY-MM; empty means the previous month
	DryRun bool      // render only, no credentials needed
	Format string    // dry-run output: html or text
	Out    io.Writer // dry-run destination

	Now    func() time.Time // defaults to time.Now
	Sender Sender           // defaults to an SMTP mailer built from config
	Logger *slog.Logger
}

// ResolveWindow picks the reporting window for month, or the month before
// now when month is empty.
func ResolveWindow(month string, now time.Time, loc *time.Location) (news.Window, error) {
	if month == "" {
		return news.PreviousMonth(now, loc), nil
	}
	return news.ParseMonth(month, loc)
}

// Run executes one digest run. Source problems only shrink the report;
// configuration and delivery problems are returned.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Logger
	}
	if opts.Format == "" {
		opts.Format = FormatHTML
	}
	log := opts.Logger.With("run_id", uuid.NewString())

	if !opts.DryRun {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid delivery configuration: %w", err)
		}
	} else if opts.Out == nil {
		return fmt.Errorf("dry run needs an output writer")
	}
	if opts.Format != FormatHTML && opts.Format != FormatText {
		return fmt.Errorf("unknown format %q (want html or text)", opts.Format)
	}

	w, err := ResolveWindow(opts.Month, opts.Now(), cfg.Location)
	if err != nil {
		return err
	}
	log.Info("digest run started", "window", w.String(), "dry_run", opts.DryRun)

	for _, warning := range cfg.Warnings {
		log.Warn("configuration fallback", "detail", warning)
	}

	feeds := config.LoadPublications(cfg.FeedsConfigPath, log)
	sites := config.LoadPublications(cfg.SitesConfigPath, log)
	keywords := config.LoadKeywords(cfg.KeywordsConfigPath, log)
	log.Debug("configuration loaded", "feeds", feeds.Names(), "sites", sites.Names())

	m := metrics.New()
	defer m.LogSummary(log)
	client := &http.Client{Timeout: cfg.RequestTimeout}

	feedReg := rss.NewCollector(client, "", cfg.Buffer(), m, log).Collect(ctx, feeds, w)
	log.Info("feeds collected", "publications", len(feedReg.Publications()), "items", feedReg.Total())

	provider := searchProvider(ctx, cfg, client, log)
	searchBudget := ratelimit.NewBudget(map[string]int{"search": cfg.MaxSearchRequests}, cfg.SearchRatePerSec, 1, log)
	searchOpts := search.DefaultOptions()
	searchOpts.CoverageThreshold = cfg.CoverageThreshold
	searchOpts.MaxResults = cfg.MaxSearchResults
	if len(cfg.SearchQueryTemplates) > 0 {
		searchOpts.QueryTemplates = cfg.SearchQueryTemplates
	}
	searchReg := search.NewCollector(provider, searchBudget, searchOpts, m, log).Collect(ctx, w, sites, feedReg.Counts())
	log.Info("search collected", "publications", len(searchReg.Publications()), "items", searchReg.Total())

	log.Info("search budget", budgetArgs(searchBudget)...)

	merged := news.Merge(feedReg, searchReg)
	classified := news.NewClassifier(keywords, cfg.MaxPerSection).Bucket(merged)

	var condenser news.Condenser
	geminiBudget := ratelimit.NewBudget(map[string]int{"gemini": cfg.MaxGeminiRequests}, 0, 1, log)
	gc, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, geminiBudget, m, log)
	if err != nil {
		log.Warn("gemini disabled", "error", err)
	} else if gc != nil {
		defer gc.Close()
		condenser = gc
	}

	enrichCfg := news.DefaultEnrichConfig()
	enrichCfg.MaxItems = cfg.SummaryMaxItems
	enrichCfg.FallbackChars = cfg.SummaryFallbackChars
	enrichCfg.MaxChars = cfg.SummaryMaxChars
	enricher := news.NewEnricher(scraper.NewFetcher(client, ""), condenser, enrichCfg, m, log)
	enricher.Enrich(ctx, classified)
	if gc != nil {
		log.Info("gemini budget", budgetArgs(geminiBudget)...)
	}

	email, err := report.Build(classified, w, cfg.ReportTitle)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if opts.DryRun {
		body := email.HTML
		if opts.Format == FormatText {
			body = email.Text
		}
		if _, err := io.WriteString(opts.Out, body); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info("dry run: report written", "subject", email.Subject, "format", opts.Format)
		return nil
	}

	sender := opts.Sender
	if sender == nil {
		sender = mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		}, retry.Config{
			MaxAttempts: cfg.RetryAttempts,
			Delay:       cfg.RetryDelay,
			Backoff:     true,
		}, m, log)
	}

	if err := sender.Send(ctx, mailer.Message{
		From:    cfg.EmailFrom,
		To:      cfg.EmailTo,
		Subject: email.Subject,
		Text:    email.Text,
		HTML:    email.HTML,
	}); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}
	return nil
}

// searchProvider chains the configured backends, SerpAPI first. It returns
// nil when no backend is usable.
func searchProvider(ctx context.Context, cfg *config.Config, client *http.Client, log *slog.Logger) search.Provider {
	var providers []search.Provider
	if s := search.NewSerpAPI(cfg.SerpAPIKey, client); s != nil {
		providers = append(providers, s)
	}
	cse, err := search.NewCSE(ctx, cfg.GoogleCSEKey, cfg.GoogleCSECX)
	if err != nil {
		log.Warn("google custom search disabled", "error", err)
	} else if cse != nil {
		providers = append(providers, cse)
	}

	chain := search.NewChain(log, providers...)
	if !chain.Configured() {
		log.Info("no search backend configured, search disabled")
		return nil
	}
	return chain
}

// budgetArgs flattens budget stats into sorted slog key/value pairs.
func budgetArgs(b *ratelimit.Budget) []any {
	stats := b.GetStats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, stats[k])
	}
	return args
}

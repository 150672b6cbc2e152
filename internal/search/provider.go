package search

import (
	"context"
	"errors"
	"log/slog"
)

// Result is one hit returned by a search backend.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Engine  string
}

// Provider runs a single query against a search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

// ErrNoProvider is returned by Chain when no backend is configured.
var ErrNoProvider = errors.New("no search provider configured")

// Chain tries providers in order and returns the first successful answer,
// even an empty one. A failing provider is logged and the next one tried.
type Chain struct {
	providers []Provider
	log       *slog.Logger
}

func NewChain(log *slog.Logger, providers ...Provider) *Chain {
	if log == nil {
		log = slog.Default()
	}
	return &Chain{providers: providers, log: log}
}

// Configured reports whether at least one backend is available.
func (c *Chain) Configured() bool {
	return len(c.providers) > 0
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Search(ctx context.Context, query string) ([]Result, error) {
	if !c.Configured() {
		return nil, ErrNoProvider
	}

	var lastErr error
	for _, p := range c.providers {
		results, err := p.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		c.log.Warn("search backend failed", "engine", p.Name(), "query", query, "error", err)
		lastErr = err
	}
	return nil, lastErr
}

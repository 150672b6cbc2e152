package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const cseEngine = "google-cse"

// CSE queries a Google Programmable Search Engine.
type CSE struct {
	svc *customsearch.Service
	cx  string
}

// NewCSE returns nil, nil when the key or engine id is missing.
func NewCSE(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*CSE, error) {
	if apiKey == "" || cx == "" {
		return nil, nil
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search client: %w", err)
	}
	return &CSE{svc: svc, cx: cx}, nil
}

func (c *CSE) Name() string { return cseEngine }

func (c *CSE) Search(ctx context.Context, query string) ([]Result, error) {
	resp, err := c.svc.Cse.List().Q(query).Cx(c.cx).Num(10).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google cse: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet, Engine: cseEngine})
	}
	return results, nil
}

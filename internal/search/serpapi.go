package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	serpAPIEndpoint = "https://serpapi.com/search.json"
	serpAPIEngine   = "serpapi"
)

// SerpAPI queries Google through serpapi.com.
type SerpAPI struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewSerpAPI returns nil when apiKey is empty.
func NewSerpAPI(apiKey string, client *http.Client) *SerpAPI {
	if apiKey == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SerpAPI{apiKey: apiKey, endpoint: serpAPIEndpoint, client: client}
}

// WithEndpoint points the client at another base URL.
func (s *SerpAPI) WithEndpoint(endpoint string) *SerpAPI {
	s.endpoint = endpoint
	return s
}

func (s *SerpAPI) Name() string { return serpAPIEngine }

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

func (s *SerpAPI) Search(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("num", "10")
	q.Set("api_key", s.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("serpapi status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if payload.Error != "" && len(payload.OrganicResults) == 0 {
		// "Google hasn't returned any results" comes back as 200 + error
		return []Result{}, nil
	}

	results := make([]Result, 0, len(payload.OrganicResults))
	for _, o := range payload.OrganicResults {
		results = append(results, Result{Title: o.Title, URL: o.Link, Snippet: o.Snippet, Engine: serpAPIEngine})
	}
	return results, nil
}

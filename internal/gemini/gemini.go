package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/eyewear-digest/internal/metrics"
	"github.com/deusflow/eyewear-digest/internal/ratelimit"
)

const (
	DefaultModel = "gemini-1.5-flash"

	// budget key shared with ratelimit.Budget
	budgetKey = "gemini"

	maxPromptChars = 6000
)

// Client condenses extracted article text into a short English summary.
type Client struct {
	client  *genai.Client
	model   string
	budget  *ratelimit.Budget
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewClient returns nil, nil when apiKey is empty so callers can treat the
// condenser as optional.
func NewClient(ctx context.Context, apiKey, model string, budget *ratelimit.Budget, m *metrics.Metrics, log *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{client: client, model: model, budget: budget, metrics: m, log: log}, nil
}

func (c *Client) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
	}
}

// Condense asks the model for a two sentence summary of text.
func (c *Client) Condense(ctx context.Context, title, text string) (string, error) {
	if c.budget != nil {
		if err := c.budget.Use(ctx, budgetKey); err != nil {
			return "", err
		}
	}

	c.metrics.IncrementGeminiCalls()
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(title, text)))
	if err != nil {
		c.metrics.IncrementGeminiFailures()
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		c.metrics.IncrementGeminiFailures()
		return "", errors.New("no response from Gemini")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			raw.WriteString(string(t))
			raw.WriteString("\n")
		}
	}

	summary, err := parseResponse(raw.String())
	if err != nil {
		c.metrics.IncrementGeminiFailures()
		c.log.Debug("unparseable Gemini response", "title", title, "response", raw.String())
		return "", err
	}
	return summary, nil
}

func buildPrompt(title, content string) string {
	return fmt.Sprintf(`Summarize this eyewear industry article for a monthly press digest.

ARTICLE:
Title: %s
Content: %s

REQUIREMENTS:
- English, at most two sentences.
- Keep brand, designer and company names as written.
- No introductions like "This article is about".

Reply strictly in this format:

SUMMARY: <summary>
`, title, sanitizeContent(content))
}

// sanitizeContent collapses whitespace and cuts over-long text on a rune
// boundary, preferring a sentence end.
func sanitizeContent(content string) string {
	content = strings.Join(strings.Fields(strings.ReplaceAll(content, "\r", "")), " ")
	if utf8.RuneCountInString(content) <= maxPromptChars {
		return content
	}

	runes := []rune(content)
	trimmed := string(runes[:maxPromptChars])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed + "\n[TRUNCATED]"
}

var summaryLabel = regexp.MustCompile(`(?i)^\**\s*summary\s*\**\s*:\s*\**\s*`)

// parseResponse pulls the SUMMARY block out of a model reply. Replies that
// ignore the format are used as-is.
func parseResponse(response string) (string, error) {
	var b strings.Builder
	inSummary := false

	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if summaryLabel.MatchString(line) {
			inSummary = true
			line = strings.TrimSpace(summaryLabel.ReplaceAllString(line, ""))
		} else if !inSummary {
			continue
		}
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(line)
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		// fallback: the model answered without the label
		summary = strings.Join(strings.Fields(response), " ")
	}
	if summary == "" {
		return "", errors.New("could not parse Gemini response: empty summary")
	}
	return summary, nil
}

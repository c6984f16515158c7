// Package summary turns a batch of articles into a digest, preferring an
// AI-generated bullet summary and falling back to plain formatting.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/domain"
	"newsagent/internal/httpx"
	"newsagent/internal/metrics"
)

const (
	summarizeTimeout  = 30 * time.Second
	maxPromptArticles = 8

	noArticlesMessage = "No news articles available at the moment."
	editorialStyle    = "France 24 / 2M inspired"
)

// Summarizer generates digest text via the generative-language API.
type Summarizer struct {
	apiBase         string
	apiKey          string
	model           string
	temperature     float64
	maxOutputTokens int
	client          *http.Client
	logger          *slog.Logger
}

type SummarizerConfig struct {
	Config config.GeminiConfig
	Logger *slog.Logger
}

func NewSummarizer(cfg SummarizerConfig) *Summarizer {
	model := cfg.Config.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Summarizer{
		apiBase:         cfg.Config.APIBase,
		apiKey:          cfg.Config.APIKey,
		model:           model,
		temperature:     cfg.Config.Temperature,
		maxOutputTokens: cfg.Config.MaxOutputTokens,
		client:          httpx.NewClient(summarizeTimeout),
		logger:          cfg.Logger,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// Summarize produces digest text for up to 8 articles. It never fails: any
// problem with the generative call degrades to the basic formatter.
func (s *Summarizer) Summarize(ctx context.Context, articles []domain.Article) string {
	if len(articles) == 0 {
		return noArticlesMessage
	}
	if len(articles) > maxPromptArticles {
		articles = articles[:maxPromptArticles]
	}

	metrics.SummariesTotal.Inc()

	text, err := s.generate(ctx, buildPrompt(articles))
	if err != nil {
		s.logger.Warn("summary generation failed, using basic format", "err", err)
		metrics.SummaryFallbacks.Inc()
		return FormatBasic(truncate(articles, 5))
	}
	return text
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     s.temperature,
			MaxOutputTokens: s.maxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.apiBase, s.model, s.apiKey)

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("generative API returned %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}
	text := strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("response text is empty")
	}
	return text, nil
}

func buildPrompt(articles []domain.Article) string {
	var news strings.Builder
	for i, a := range articles {
		title := a.Title
		if title == "" {
			title = "No title"
		}
		source := a.Source
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&news, "%d. %s\n   Source: %s\n   %s\n\n", i+1, title, source, a.Description)
	}

	return fmt.Sprintf(`You are a professional news editor for %s news format.

Summarize the following news articles into clean, concise bullet points. Each bullet should:
- Start with an emoji related to the topic
- Be informative and engaging
- Include the source in parentheses
- Be written in a professional journalistic tone
- Maximum 2 lines per bullet

News articles:
%s
Provide exactly 5-8 bullet points covering the most important stories.`, editorialStyle, news.String())
}

func truncate(articles []domain.Article, n int) []domain.Article {
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}

// FormatBasic renders a numbered headline list. It is the no-dependency
// fallback when the generative call is unavailable and it never fails:
// absent fields render as "No title" / "Unknown".
func FormatBasic(articles []domain.Article) string {
	if len(articles) == 0 {
		return "No news available."
	}

	var sb strings.Builder
	sb.WriteString("📰 *Latest News Headlines*\n\n")
	for i, a := range articles {
		title := a.Title
		if title == "" {
			title = "No title"
		}
		source := a.Source
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&sb, "%d. %s\n   _(%s)_\n\n", i+1, title, source)
	}
	return sb.String()
}

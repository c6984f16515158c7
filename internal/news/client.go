// Package news fetches top headlines from the news provider's HTTP API.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/domain"
	"newsagent/internal/httpx"
	"newsagent/internal/metrics"
)

const fetchTimeout = 10 * time.Second

// Client talks to the news provider's top-headlines endpoint.
type Client struct {
	apiBase string
	apiKey  string
	country string
	client  *http.Client
	logger  *slog.Logger
}

type ClientConfig struct {
	Config config.NewsConfig
	Logger *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	country := cfg.Config.Country
	if country == "" {
		country = "us"
	}
	return &Client{
		apiBase: cfg.Config.APIBase,
		apiKey:  cfg.Config.APIKey,
		country: country,
		client:  httpx.NewClient(fetchTimeout),
		logger:  cfg.Logger,
	}
}

type headlinesResponse struct {
	Status   string       `json:"status"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      apiSource `json:"source"`
}

type apiSource struct {
	Name string `json:"name"`
}

// TopHeadlines fetches up to pageSize headlines, optionally filtered by
// category. It never returns an error: any failure (network, non-2xx,
// provider-side error status, timeout) degrades to an empty list.
func (c *Client) TopHeadlines(ctx context.Context, category domain.Category, pageSize int) []domain.Article {
	metrics.NewsFetchesTotal.Inc()

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("country", c.country)
	params.Set("pageSize", strconv.Itoa(pageSize))
	if cat := domain.ParseCategory(string(category)); cat != "" {
		params.Set("category", string(cat))
	}

	endpoint := fmt.Sprintf("%s/top-headlines?%s", c.apiBase, params.Encode())

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("news request build failed", "err", err)
		metrics.NewsFetchFailures.Inc()
		return nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("news fetch failed", "err", err)
		metrics.NewsFetchFailures.Inc()
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("news provider returned non-success status", "status", resp.StatusCode)
		metrics.NewsFetchFailures.Inc()
		return nil
	}

	var body headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("news response decode failed", "err", err)
		metrics.NewsFetchFailures.Inc()
		return nil
	}

	if body.Status != "ok" {
		c.logger.Warn("news provider reported error status", "status", body.Status)
		metrics.NewsFetchFailures.Inc()
		return nil
	}

	articles := make([]domain.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
		})
	}

	c.logger.Info("news fetched", "count", len(articles), "category", string(category))
	return articles
}

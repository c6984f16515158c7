// Package agent turns inbound chat messages into replies: a keyword intent
// router in front of the news and summary upstreams, driven by a reply loop
// consuming the message bus.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsagent/internal/domain"
)

const newsPageSize = 8

const helpMessage = `👋 *Welcome to AI News Agent!*

I can help you with:

📰 *News Commands:*
• "news" - General top headlines
• "news tech" - Technology news
• "news world" - International news
• "news business" or "news economy"
• "news sports"
• "news health"
• "news science"

⏰ *Daily Summary:*
I automatically send news summaries at 20:00 UTC daily!

Type any command to get started.`

const fallbackMessage = "🤔 I didn't understand that. Try:\n• 'news tech'\n• 'news world'\n• 'help' for more options"

const fetchFailedMessage = "⚠️ Unable to fetch news at the moment. Please try again later."

// NewsFetcher retrieves headlines. Failures surface as an empty list.
type NewsFetcher interface {
	TopHeadlines(ctx context.Context, category domain.Category, pageSize int) []domain.Article
}

// Summarizer turns articles into digest text. It never fails.
type Summarizer interface {
	Summarize(ctx context.Context, articles []domain.Article) string
}

// Router maps free-text message bodies to replies.
type Router struct {
	news   NewsFetcher
	summ   Summarizer
	rules  []CategoryRule
	logger *slog.Logger
	now    func() time.Time
}

type RouterConfig struct {
	News       NewsFetcher
	Summarizer Summarizer
	Rules      []CategoryRule
	Logger     *slog.Logger
	Now        func() time.Time // test hook; defaults to time.Now
}

func NewRouter(cfg RouterConfig) *Router {
	rules := cfg.Rules
	if len(rules) == 0 {
		rules = DefaultCategoryRules()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Router{
		news:   cfg.News,
		summ:   cfg.Summarizer,
		rules:  rules,
		logger: cfg.Logger,
		now:    now,
	}
}

// Reply produces the outbound reply text for one inbound message body.
// Branch precedence: news query, then help/greeting, then fallback.
func (r *Router) Reply(ctx context.Context, text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(lower, "news"):
		return r.newsReply(ctx, lower)
	case strings.Contains(lower, "help"), lower == "hi", lower == "hello":
		return helpMessage
	default:
		return fallbackMessage
	}
}

func (r *Router) newsReply(ctx context.Context, lower string) string {
	category := r.matchCategory(lower)

	articles := r.news.TopHeadlines(ctx, category, newsPageSize)
	if len(articles) == 0 {
		return fetchFailedMessage
	}

	categoryText := ""
	if category != "" {
		categoryText = " " + strings.ToUpper(string(category))
	}
	header := fmt.Sprintf("📰 *TODAY'S%s NEWS*\n_%s_\n\n",
		categoryText, r.now().Format("January 02, 2006 - 15:04"))

	return header + r.summ.Summarize(ctx, articles)
}

// matchCategory scans the ordered rules; the first keyword contained in the
// text sets the category. No match leaves the category unset (unfiltered).
func (r *Router) matchCategory(lower string) domain.Category {
	for _, rule := range r.rules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Category
		}
	}
	return ""
}

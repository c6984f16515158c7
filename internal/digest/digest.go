// Package digest builds and delivers the daily news digest, either on the
// in-process cron schedule or via the HTTP trigger endpoint.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsagent/internal/agent"
	"newsagent/internal/domain"
	"newsagent/internal/metrics"
)

const digestPageSize = 10

const digestFooter = "\n\n_Reply 'news tech', 'news world', etc. for more specific updates!_"

// Failure classes, each with the distinct message the trigger endpoint
// reports.
var (
	ErrNoArticles  = errors.New("No articles found")
	ErrNoRecipient = errors.New("MY_NUMBER not configured")
	ErrSendFailed  = errors.New("Failed to send WhatsApp message")
)

// Mirror is an optional secondary channel the digest is copied to.
type Mirror interface {
	Enabled() bool
	Send(ctx context.Context, chatID string, content string) error
}

// Service composes the digest from general headlines and delivers it to
// the preconfigured recipient.
type Service struct {
	news      agent.NewsFetcher
	summ      agent.Summarizer
	transport domain.Channel
	mirror    Mirror
	recipient string
	logger    *slog.Logger
	now       func() time.Time
}

type ServiceConfig struct {
	News       agent.NewsFetcher
	Summarizer agent.Summarizer
	Transport  domain.Channel
	Mirror     Mirror // optional
	Recipient  string
	Logger     *slog.Logger
	Now        func() time.Time // test hook; defaults to time.Now
}

func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		news:      cfg.News,
		summ:      cfg.Summarizer,
		transport: cfg.Transport,
		mirror:    cfg.Mirror,
		recipient: cfg.Recipient,
		logger:    cfg.Logger,
		now:       now,
	}
}

// Result describes a successful digest delivery.
type Result struct {
	Timestamp      time.Time
	SentTo         string
	MessagePreview string
}

// Run executes one digest cycle. With zero fetched articles nothing is
// sent and ErrNoArticles is returned.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	metrics.DigestRuns.Inc()

	articles := s.news.TopHeadlines(ctx, "", digestPageSize)
	if len(articles) == 0 {
		metrics.DigestFailures.Inc()
		return nil, ErrNoArticles
	}

	header := fmt.Sprintf("🌍 *DAILY NEWS DIGEST*\n_%s - 20:00 UTC_\n\n",
		s.now().Format("January 02, 2006"))
	message := header + s.summ.Summarize(ctx, articles) + digestFooter

	if s.recipient == "" {
		metrics.DigestFailures.Inc()
		return nil, ErrNoRecipient
	}

	if err := s.transport.Send(ctx, s.recipient, message); err != nil {
		s.logger.Error("digest send failed", "err", err)
		metrics.DigestFailures.Inc()
		return nil, ErrSendFailed
	}

	if s.mirror != nil && s.mirror.Enabled() {
		if err := s.mirror.Send(ctx, "", message); err != nil {
			// The mirror is best effort; WhatsApp delivery already succeeded.
			s.logger.Warn("digest mirror send failed", "err", err)
		}
	}

	s.logger.Info("daily digest sent", "recipient", s.recipient, "articles", len(articles))

	return &Result{
		Timestamp:      s.now(),
		SentTo:         s.recipient,
		MessagePreview: preview(message, 100),
	}, nil
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

package agent

import (
	"context"
	"log/slog"
	"time"

	"newsagent/internal/domain"
	"newsagent/internal/metrics"
)

const defaultConcurrency = 3

// Loop consumes inbound messages from the bus, generates replies through
// the router, and publishes them as outbound messages. Webhook handlers
// never wait on it: this is the fire-and-forget dispatch path, and loop
// failures are only logged, never rejoined into any HTTP response.
type Loop struct {
	router      *Router
	bus         domain.MessageBus
	logger      *slog.Logger
	concurrency int
}

type LoopConfig struct {
	Router      *Router
	Bus         domain.MessageBus
	Logger      *slog.Logger
	Concurrency int // max parallel replies (default 3)
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Loop{
		router:      cfg.Router,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Run consumes inbound messages with bounded concurrency until the context
// is cancelled or the bus closes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("reply loop started", "concurrency", l.concurrency)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("reply loop stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, reply loop stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				l.processMessage(ctx, m)
			}(msg)
		}
	}
}

func (l *Loop) processMessage(ctx context.Context, msg domain.InboundMessage) {
	start := time.Now()

	reply := l.router.Reply(ctx, msg.Content)

	l.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: reply,
	})

	elapsed := time.Since(start)
	metrics.ReplyLatency.Observe(elapsed.Seconds())
	l.logger.Info("reply dispatched",
		"channel", msg.Channel,
		"chat", msg.ChatID,
		"elapsed", elapsed.Round(time.Millisecond),
	)
}

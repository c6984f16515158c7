package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsagent/internal/agent"
	"newsagent/internal/bus"
	"newsagent/internal/channel"
	"newsagent/internal/config"
	"newsagent/internal/digest"
	"newsagent/internal/news"
	"newsagent/internal/server"
	"newsagent/internal/summary"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	root := &cobra.Command{
		Use:   "newsagent",
		Short: "WhatsApp AI news agent",
		Long:  "A webhook-driven WhatsApp bot that fetches top headlines and replies with AI-generated news digests.",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(digestCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE:  runServe,
	}
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Run one daily digest cycle and print the result",
		RunE:  runDigest,
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the default intent rules as YAML (template for INTENT_RULES_FILE)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := agent.WriteExampleRules()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("newsagent " + version)
		},
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// components bundles everything both serve and the one-shot digest need.
type components struct {
	cfg      *config.Config
	logger   *slog.Logger
	whatsapp *channel.WhatsApp
	digest   *digest.Service
	router   *agent.Router
}

func buildComponents() (*components, error) {
	cfg := config.FromEnv()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.General.LogLevel)
	if missing := config.Missing(cfg); len(missing) > 0 {
		logger.Warn("missing configuration, dependent features will degrade", "keys", missing)
	}

	newsClient := news.NewClient(news.ClientConfig{Config: cfg.News, Logger: logger})
	summarizer := summary.NewSummarizer(summary.SummarizerConfig{Config: cfg.Gemini, Logger: logger})
	whatsapp := channel.NewWhatsApp(channel.WhatsAppChannelConfig{Config: cfg.WhatsApp, Logger: logger})
	mirror := channel.NewTelegram(channel.TelegramChannelConfig{Config: cfg.Telegram, Logger: logger})

	router := agent.NewRouter(agent.RouterConfig{
		News:       newsClient,
		Summarizer: summarizer,
		Rules:      agent.LoadCategoryRules(cfg.General.IntentRulesFile, logger),
		Logger:     logger,
	})

	digestSvc := digest.NewService(digest.ServiceConfig{
		News:       newsClient,
		Summarizer: summarizer,
		Transport:  whatsapp,
		Mirror:     mirror,
		Recipient:  cfg.Digest.Recipient,
		Logger:     logger,
	})

	return &components{
		cfg:      cfg,
		logger:   logger,
		whatsapp: whatsapp,
		digest:   digestSvc,
		router:   router,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := buildComponents()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, c.logger)
	defer messageBus.Close()

	if err := c.whatsapp.Start(ctx, messageBus); err != nil {
		return err
	}

	loop := agent.NewLoop(agent.LoopConfig{
		Router: c.router,
		Bus:    messageBus,
		Logger: c.logger,
	})
	go loop.Run(ctx)

	if c.cfg.Digest.Enabled {
		scheduler := digest.NewScheduler(c.digest, c.logger)
		if err := scheduler.Start(ctx, c.cfg.Digest.Schedule); err != nil {
			return err
		}
	}

	srv := server.New(server.ServerConfig{
		Config:      c.cfg.Server,
		Metrics:     c.cfg.Metrics,
		Webhook:     c.whatsapp.Handler(),
		WebhookPath: c.cfg.WhatsApp.WebhookPath,
		Digest:      c.digest,
		Logger:      c.logger,
		Version:     version,
	})
	return srv.Run(ctx)
}

func runDigest(cmd *cobra.Command, args []string) error {
	c, err := buildComponents()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := c.digest.Run(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(map[string]any{
		"status":          "success",
		"timestamp":       res.Timestamp.Format(time.RFC3339),
		"sent_to":         res.SentTo,
		"message_preview": res.MessagePreview,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

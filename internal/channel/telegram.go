package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"newsagent/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram is a send-only mirror channel: when configured, the daily digest
// is also delivered to one Telegram chat. It never polls for updates.
type Telegram struct {
	token  string
	chatID int64
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
	bot      *tgbotapi.BotAPI
}

type TelegramChannelConfig struct {
	Config config.TelegramConfig
	Logger *slog.Logger
}

func NewTelegram(cfg TelegramChannelConfig) *Telegram {
	chatID, _ := strconv.ParseInt(strings.TrimSpace(cfg.Config.ChatID), 10, 64)
	return &Telegram{
		token:  cfg.Config.BotToken,
		chatID: chatID,
		logger: cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Enabled reports whether both token and chat id are configured.
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.chatID != 0
}

// Send delivers content to the configured mirror chat. The chatID argument
// is ignored when empty; a non-empty numeric value overrides the default.
func (t *Telegram) Send(ctx context.Context, chatID string, content string) error {
	if !t.Enabled() {
		return ErrNotConfigured
	}

	target := t.chatID
	if chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat ID: %w", err)
		}
		target = id
	}

	t.initOnce.Do(func() {
		bot, err := tgbotapi.NewBotAPI(t.token)
		if err != nil {
			t.initErr = fmt.Errorf("telegram bot init: %w", err)
			return
		}
		t.bot = bot
		t.logger.Info("telegram mirror connected", "username", bot.Self.UserName)
	})
	if t.initErr != nil {
		return t.initErr
	}

	msg := tgbotapi.NewMessage(target, content)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

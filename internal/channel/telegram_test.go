package channel

import (
	"context"
	"errors"
	"testing"

	"newsagent/internal/config"
)

func TestTelegram_DisabledWithoutConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelegramConfig
	}{
		{"empty", config.TelegramConfig{}},
		{"token only", config.TelegramConfig{BotToken: "t"}},
		{"chat only", config.TelegramConfig{ChatID: "123"}},
		{"non-numeric chat", config.TelegramConfig{BotToken: "t", ChatID: "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := NewTelegram(TelegramChannelConfig{Config: tt.cfg, Logger: testLogger()})
			if tg.Enabled() {
				t.Error("should be disabled")
			}
			if err := tg.Send(context.Background(), "", "x"); !errors.Is(err, ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestTelegram_EnabledWithConfig(t *testing.T) {
	tg := NewTelegram(TelegramChannelConfig{
		Config: config.TelegramConfig{BotToken: "t", ChatID: " 42 "},
		Logger: testLogger(),
	})
	if !tg.Enabled() {
		t.Error("token plus numeric chat id should enable the mirror")
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the root configuration, built once at process start and passed
// by reference into each component constructor.
type Config struct {
	General  GeneralConfig
	Server   ServerConfig
	WhatsApp WhatsAppConfig
	News     NewsConfig
	Gemini   GeminiConfig
	Telegram TelegramConfig
	Digest   DigestConfig
	Metrics  MetricsConfig
}

type GeneralConfig struct {
	LogLevel        string
	IntentRulesFile string // optional YAML override for category rules
}

type ServerConfig struct {
	Host string
	Port int
}

type WhatsAppConfig struct {
	APIBase       string
	AccessToken   string
	VerifyToken   string
	PhoneNumberID string
	AppSecret     string // optional: enables X-Hub-Signature-256 checking
	WebhookPath   string
}

type NewsConfig struct {
	APIBase string
	APIKey  string
	Country string
}

type GeminiConfig struct {
	APIBase         string
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
}

type DigestConfig struct {
	Enabled   bool
	Schedule  string // cron expression
	Recipient string
}

type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// Defaults returns a Config with every tunable at its production default
// and every credential empty.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		WhatsApp: WhatsAppConfig{
			APIBase:     "https://graph.facebook.com/v21.0",
			WebhookPath: "/webhook",
		},
		News: NewsConfig{
			APIBase: "https://newsapi.org/v2",
			Country: "us",
		},
		Gemini: GeminiConfig{
			APIBase:         "https://generativelanguage.googleapis.com/v1beta",
			Model:           "gemini-2.5-flash",
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
		Digest: DigestConfig{
			Enabled:  true,
			Schedule: "0 20 * * *",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}

// FromEnv builds the configuration from environment variables, loading a
// .env file first when one exists in the working directory. Aliased keys
// keep the first non-empty value.
func FromEnv() *Config {
	// Best effort: a missing .env just means the environment is already set.
	_ = godotenv.Load()

	cfg := Defaults()

	cfg.General.LogLevel = envOr("LOG_LEVEL", cfg.General.LogLevel)
	cfg.General.IntentRulesFile = os.Getenv("INTENT_RULES_FILE")

	cfg.Server.Host = envOr("HOST", cfg.Server.Host)
	cfg.Server.Port = envInt("PORT", cfg.Server.Port)

	cfg.WhatsApp.APIBase = envOr("WHATSAPP_API_BASE", cfg.WhatsApp.APIBase)
	cfg.WhatsApp.AccessToken = firstEnv("WHATSAPP_TOKEN", "WHATSAPP_ACCESS_TOKEN")
	cfg.WhatsApp.VerifyToken = firstEnv("VERIFY_TOKEN", "WHATSAPP_VERIFY_TOKEN")
	cfg.WhatsApp.PhoneNumberID = firstEnv("PHONE_NUMBER_ID", "WHATSAPP_PHONE_NUMBER_ID")
	cfg.WhatsApp.AppSecret = os.Getenv("WHATSAPP_APP_SECRET")
	cfg.WhatsApp.WebhookPath = envOr("WHATSAPP_WEBHOOK_PATH", cfg.WhatsApp.WebhookPath)

	cfg.News.APIBase = envOr("NEWS_API_BASE", cfg.News.APIBase)
	cfg.News.APIKey = os.Getenv("NEWS_API_KEY")
	cfg.News.Country = envOr("NEWS_COUNTRY", cfg.News.Country)

	cfg.Gemini.APIBase = envOr("GEMINI_API_BASE", cfg.Gemini.APIBase)
	cfg.Gemini.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	cfg.Gemini.Model = envOr("GEMINI_MODEL", cfg.Gemini.Model)

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")

	cfg.Digest.Enabled = envBool("DIGEST_ENABLED", cfg.Digest.Enabled)
	cfg.Digest.Schedule = envOr("DIGEST_SCHEDULE", cfg.Digest.Schedule)
	cfg.Digest.Recipient = os.Getenv("MY_NUMBER")

	cfg.Metrics.Enabled = envBool("METRICS_ENABLED", cfg.Metrics.Enabled)

	return cfg
}

// Validate reports hard configuration errors. Missing credentials are not
// errors: their features degrade at runtime instead. Use Missing for those.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "PORT must be between 0 and 65535")
	}
	if !strings.HasPrefix(cfg.WhatsApp.WebhookPath, "/") {
		errs = append(errs, "webhook path must start with /")
	}
	if cfg.Gemini.MaxOutputTokens < 1 {
		errs = append(errs, "gemini max output tokens must be >= 1")
	}
	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Missing lists absent credentials whose dependent features will degrade.
func Missing(cfg *Config) []string {
	var missing []string
	if cfg.WhatsApp.AccessToken == "" {
		missing = append(missing, "WHATSAPP_TOKEN")
	}
	if cfg.WhatsApp.VerifyToken == "" {
		missing = append(missing, "VERIFY_TOKEN")
	}
	if cfg.WhatsApp.PhoneNumberID == "" {
		missing = append(missing, "PHONE_NUMBER_ID")
	}
	if cfg.News.APIKey == "" {
		missing = append(missing, "NEWS_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.Digest.Recipient == "" {
		missing = append(missing, "MY_NUMBER")
	}
	return missing
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

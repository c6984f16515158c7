package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/domain"
	"newsagent/internal/httpx"
	"newsagent/internal/metrics"
)

const whatsappSendTimeout = 10 * time.Second

// ErrNotConfigured is returned when a send is attempted without the access
// token, phone-number id, or recipient. No network call is made.
var ErrNotConfigured = errors.New("whatsapp transport not configured")

// WhatsApp implements domain.Channel for the WhatsApp Business Cloud API.
type WhatsApp struct {
	cfg    config.WhatsAppConfig
	bus    domain.MessageBus
	logger *slog.Logger
	client *http.Client
	mux    *http.ServeMux
}

type WhatsAppChannelConfig struct {
	Config config.WhatsAppConfig
	Logger *slog.Logger
}

func NewWhatsApp(cfg WhatsAppChannelConfig) *WhatsApp {
	return &WhatsApp{
		cfg:    cfg.Config,
		logger: cfg.Logger,
		client: httpx.NewClient(whatsappSendTimeout),
	}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

// Start registers the outbound handler on the bus and mounts the webhook
// handlers. The webhook does not run its own server; the main HTTP server
// mounts Handler().
func (w *WhatsApp) Start(ctx context.Context, bus domain.MessageBus) error {
	w.bus = bus

	bus.OnOutbound("whatsapp", func(msg domain.OutboundMessage) {
		if err := w.Send(ctx, msg.ChatID, msg.Content); err != nil {
			// Delivery failures are logged and swallowed: never retried,
			// never surfaced to the webhook caller.
			w.logger.Error("whatsapp send failed", "err", err, "chat", msg.ChatID)
			metrics.SendFailures.Inc()
			return
		}
		metrics.RepliesTotal.Inc()
	})

	webhookPath := w.cfg.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook"
	}

	w.mux = http.NewServeMux()
	w.mux.HandleFunc("GET "+webhookPath, w.handleVerification)
	w.mux.HandleFunc("POST "+webhookPath, w.handleIncoming)

	w.logger.Info("whatsapp channel ready", "webhook", webhookPath)
	return nil
}

// Handler returns the HTTP handler for the WhatsApp webhook.
func (w *WhatsApp) Handler() http.Handler {
	if w.mux == nil {
		return http.NotFoundHandler()
	}
	return w.mux
}

// handleVerification handles the subscription handshake. The challenge is
// echoed back only when mode is "subscribe" and the received token exactly
// matches the configured token (both trimmed, non-empty).
func (w *WhatsApp) handleVerification(rw http.ResponseWriter, r *http.Request) {
	mode := strings.TrimSpace(r.URL.Query().Get("hub.mode"))
	token := strings.TrimSpace(r.URL.Query().Get("hub.verify_token"))
	challenge := r.URL.Query().Get("hub.challenge")

	expected := strings.TrimSpace(w.cfg.VerifyToken)

	if mode == "subscribe" && token != "" && token == expected {
		w.logger.Info("whatsapp webhook verified")
		rw.WriteHeader(http.StatusOK)
		fmt.Fprint(rw, challenge)
		return
	}

	w.logger.Warn("whatsapp webhook verification failed", "mode", mode)
	http.Error(rw, "Invalid verification token", http.StatusForbidden)
}

// handleIncoming processes inbound message payloads. Aside from signature
// rejection, every POST is acknowledged with 200 so the transport never
// retries delivery: malformed payloads and downstream failures are logged,
// not surfaced.
func (w *WhatsApp) handleIncoming(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.logger.Warn("whatsapp body read failed", "err", err)
		writeSuccess(rw)
		return
	}

	if w.cfg.AppSecret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if !w.verifySignature(body, sig) {
			w.logger.Warn("whatsapp invalid signature")
			http.Error(rw, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var payload waPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		w.logger.Warn("whatsapp bad payload", "err", err)
		writeSuccess(rw)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}

				w.logger.Info("whatsapp message received",
					"from", msg.From, "text_len", len(msg.Text.Body))
				metrics.MessagesTotal.Inc()

				// Fire-and-forget: the reply loop picks this up; the 200
				// below never waits on reply generation or delivery.
				w.bus.Publish(domain.InboundMessage{
					Channel:   "whatsapp",
					ChatID:    msg.From,
					SenderID:  msg.From,
					Content:   msg.Text.Body,
					Timestamp: time.Now(),
				})
			}
		}
	}

	writeSuccess(rw)
}

func writeSuccess(rw http.ResponseWriter) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	fmt.Fprint(rw, `{"status":"success"}`)
}

// verifySignature checks the X-Hub-Signature-256 header.
func (w *WhatsApp) verifySignature(body []byte, signature string) bool {
	if len(signature) < 7 || signature[:7] != "sha256=" {
		return false
	}
	expected := signature[7:]

	mac := hmac.New(sha256.New, []byte(w.cfg.AppSecret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(computed))
}

// Send delivers a text message via the WhatsApp Cloud API. Missing
// configuration aborts before any network call.
func (w *WhatsApp) Send(ctx context.Context, to string, text string) error {
	if w.cfg.AccessToken == "" || w.cfg.PhoneNumberID == "" || to == "" {
		return ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s/messages", w.cfg.APIBase, w.cfg.PhoneNumberID)

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, whatsappSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// --- WhatsApp webhook payload types ---

type waPayload struct {
	Object string    `json:"object"`
	Entry  []waEntry `json:"entry"`
}

type waEntry struct {
	ID      string     `json:"id"`
	Changes []waChange `json:"changes"`
}

type waChange struct {
	Value waValue `json:"value"`
	Field string  `json:"field"`
}

type waValue struct {
	MessagingProduct string      `json:"messaging_product"`
	Messages         []waMessage `json:"messages"`
}

type waMessage struct {
	From string  `json:"from"`
	ID   string  `json:"id"`
	Type string  `json:"type"`
	Text *waText `json:"text,omitempty"`
}

type waText struct {
	Body string `json:"body"`
}

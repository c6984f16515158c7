package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"newsagent/internal/bus"
	"newsagent/internal/channel"
	"newsagent/internal/config"
	"newsagent/internal/digest"
	"newsagent/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type fakeNews struct{ articles []domain.Article }

func (f *fakeNews) TopHeadlines(ctx context.Context, category domain.Category, pageSize int) []domain.Article {
	return f.articles
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(ctx context.Context, articles []domain.Article) string {
	return "• bullet"
}

type fakeTransport struct {
	sendErr error
	sent    int
}

func (f *fakeTransport) Name() string { return "whatsapp" }

func (f *fakeTransport) Send(ctx context.Context, chatID string, content string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent++
	return nil
}

func newTestServer(t *testing.T, news *fakeNews, transport *fakeTransport, recipient string) *Server {
	t.Helper()

	wa := channel.NewWhatsApp(channel.WhatsAppChannelConfig{
		Config: config.WhatsAppConfig{VerifyToken: "secret", WebhookPath: "/webhook"},
		Logger: testLogger(),
	})
	b := bus.New(10, testLogger())
	t.Cleanup(b.Close)
	if err := wa.Start(context.Background(), b); err != nil {
		t.Fatal(err)
	}

	svc := digest.NewService(digest.ServiceConfig{
		News:       news,
		Summarizer: fakeSummarizer{},
		Transport:  transport,
		Recipient:  recipient,
		Logger:     testLogger(),
	})

	return New(ServerConfig{
		Config:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Metrics: config.MetricsConfig{Enabled: true, Endpoint: "/metrics"},
		Webhook: wa.Handler(),
		Digest:  svc,
		Logger:  testLogger(),
		Version: "test",
	})
}

func TestWebhookMounted(t *testing.T) {
	s := newTestServer(t, &fakeNews{}, &fakeTransport{}, "1")

	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "42" {
		t.Errorf("verification not routed, code %d body %q", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(`{}`))
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("POST webhook: expected 200, got %d", rr.Code)
	}
}

func TestDigestTrigger_Success(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestServer(t, &fakeNews{articles: []domain.Article{{Title: "x"}}}, transport, "15551234")

	for _, method := range []string{"GET", "POST"} {
		req := httptest.NewRequest(method, "/send_daily_news", nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", method, rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["status"] != "success" || body["sent_to"] != "15551234" {
			t.Errorf("%s: unexpected body %v", method, body)
		}
		if _, ok := body["message_preview"].(string); !ok {
			t.Errorf("%s: missing message_preview", method)
		}
	}
	if transport.sent != 2 {
		t.Errorf("expected 2 sends, got %d", transport.sent)
	}
}

func TestDigestTrigger_Failures(t *testing.T) {
	tests := []struct {
		name      string
		news      *fakeNews
		transport *fakeTransport
		recipient string
		message   string
	}{
		{"no articles", &fakeNews{}, &fakeTransport{}, "1", "No articles found"},
		{"no recipient", &fakeNews{articles: []domain.Article{{Title: "x"}}}, &fakeTransport{}, "", "MY_NUMBER not configured"},
		{"send failure", &fakeNews{articles: []domain.Article{{Title: "x"}}}, &fakeTransport{sendErr: errors.New("boom")}, "1", "Failed to send WhatsApp message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.news, tt.transport, tt.recipient)
			req := httptest.NewRequest("GET", "/send_daily_news", nil)
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, req)

			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rr.Code)
			}
			var body map[string]any
			json.Unmarshal(rr.Body.Bytes(), &body)
			if body["status"] != "error" || body["message"] != tt.message {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeNews{}, &fakeTransport{}, "1")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["status"] != "healthy" || body["service"] != serviceName {
		t.Errorf("unexpected body %v", body)
	}
}

func TestHome_Metadata(t *testing.T) {
	s := newTestServer(t, &fakeNews{}, &fakeTransport{}, "1")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["service"] != serviceName || body["version"] != "test" {
		t.Errorf("unexpected body %v", body)
	}
	endpoints, _ := body["endpoints"].(map[string]any)
	if _, ok := endpoints["/webhook"]; !ok {
		t.Error("endpoint map should list /webhook")
	}
}

func TestHome_OnlyExactRoot(t *testing.T) {
	s := newTestServer(t, &fakeNews{}, &fakeTransport{}, "1")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path should 404, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeNews{}, &fakeTransport{}, "1")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "newsagent_uptime_seconds") {
		t.Error("metrics exposition missing uptime")
	}
}

func TestRun_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, &fakeNews{}, &fakeTransport{}, "1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

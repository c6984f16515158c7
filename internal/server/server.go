// Package server exposes the HTTP surface: the WhatsApp webhook, the daily
// digest trigger, health and metadata endpoints, and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/digest"
	"newsagent/internal/metrics"
)

const serviceName = "WhatsApp AI News Agent"

// Server is the main HTTP server.
type Server struct {
	cfg     config.ServerConfig
	webhook http.Handler
	digest  *digest.Service
	logger  *slog.Logger
	version string
	mux     *http.ServeMux
	server  *http.Server
}

type ServerConfig struct {
	Config      config.ServerConfig
	Metrics     config.MetricsConfig
	Webhook     http.Handler // mounted WhatsApp webhook handler
	WebhookPath string       // defaults to /webhook
	Digest      *digest.Service
	Logger      *slog.Logger
	Version     string
}

func New(cfg ServerConfig) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/webhook"
	}

	s := &Server{
		cfg:     cfg.Config,
		webhook: cfg.Webhook,
		digest:  cfg.Digest,
		logger:  cfg.Logger,
		version: cfg.Version,
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.WebhookPath, cfg.Webhook)
	mux.HandleFunc("GET /send_daily_news", s.handleDigest)
	mux.HandleFunc("POST /send_daily_news", s.handleDigest)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleHome)
	if cfg.Metrics.Enabled {
		endpoint := cfg.Metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		mux.HandleFunc("GET "+endpoint, metrics.Collector.Handler())
	}
	s.mux = mux

	return s
}

// Handler returns the root handler (used directly by tests).
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server starting", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) handleDigest(rw http.ResponseWriter, r *http.Request) {
	res, err := s.digest.Run(r.Context())
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"status":          "success",
		"timestamp":       res.Timestamp.Format(time.RFC3339),
		"sent_to":         res.SentTo,
		"message_preview": res.MessagePreview,
	})
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   serviceName,
	})
}

func (s *Server) handleHome(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{
		"service": serviceName,
		"version": s.version,
		"endpoints": map[string]string{
			"/webhook":         "WhatsApp webhook (GET for verification, POST for messages)",
			"/send_daily_news": "Trigger daily news broadcast (GET/POST)",
			"/health":          "Health check",
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(rw http.ResponseWriter, status int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}

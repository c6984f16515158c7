package news

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"newsagent/internal/config"
	"newsagent/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		Config: config.NewsConfig{APIBase: baseURL, APIKey: "test-key", Country: "us"},
		Logger: testLogger(),
	})
}

func TestTopHeadlines_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apiKey") != "test-key" {
			t.Errorf("missing apiKey, got %q", q.Get("apiKey"))
		}
		if q.Get("country") != "us" {
			t.Errorf("missing country, got %q", q.Get("country"))
		}
		if q.Get("pageSize") != "8" {
			t.Errorf("missing pageSize, got %q", q.Get("pageSize"))
		}
		if q.Get("category") != "technology" {
			t.Errorf("expected category technology, got %q", q.Get("category"))
		}
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Chips ahead","description":"silicon","source":{"name":"Wired"}},
			{"title":"Robots too","source":{"name":"Verge"}}
		]}`))
	}))
	defer srv.Close()

	articles := newTestClient(srv.URL).TopHeadlines(context.Background(), domain.CategoryTechnology, 8)
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Chips ahead" || articles[0].Source != "Wired" {
		t.Errorf("unexpected first article: %+v", articles[0])
	}
}

func TestTopHeadlines_CategoryOmittedWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("category") {
			t.Error("category should be omitted when unset")
		}
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	newTestClient(srv.URL).TopHeadlines(context.Background(), "", 8)
}

func TestTopHeadlines_InvalidCategoryOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("category") {
			t.Error("invalid category should be omitted")
		}
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	newTestClient(srv.URL).TopHeadlines(context.Background(), domain.Category("gossip"), 8)
}

func TestTopHeadlines_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	if articles := newTestClient(srv.URL).TopHeadlines(context.Background(), "", 8); articles != nil {
		t.Errorf("expected nil on HTTP error, got %v", articles)
	}
}

func TestTopHeadlines_ProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","articles":[{"title":"x"}]}`))
	}))
	defer srv.Close()

	if articles := newTestClient(srv.URL).TopHeadlines(context.Background(), "", 8); articles != nil {
		t.Errorf("expected nil on provider error status, got %v", articles)
	}
}

func TestTopHeadlines_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed server: connection refused

	if articles := newTestClient(srv.URL).TopHeadlines(context.Background(), "", 8); articles != nil {
		t.Errorf("expected nil on network error, got %v", articles)
	}
}

func TestTopHeadlines_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if articles := newTestClient(srv.URL).TopHeadlines(context.Background(), "", 8); articles != nil {
		t.Errorf("expected nil on malformed body, got %v", articles)
	}
}

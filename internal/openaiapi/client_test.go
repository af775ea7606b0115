package openaiapi

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultBaseURL},
		{"   ", DefaultBaseURL},
		{"http://localhost:8080/v1", "http://localhost:8080/v1/"},
		{"http://localhost:8080/v1/", "http://localhost:8080/v1/"},
	}
	for _, tt := range tests {
		if got := normalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClient_UsesBaseURLAndLogs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := NewClient(Config{BaseURL: srv.URL + "/v1"}, logger)

	var out map[string]any
	if err := client.Post(context.Background(), "ping", map[string]string{}, &out); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if gotPath != "/v1/ping" {
		t.Errorf("expected path /v1/ping, got %s", gotPath)
	}
	if out["ok"] != true {
		t.Errorf("expected decoded body, got %v", out)
	}

	logged := buf.String()
	if !strings.Contains(logged, "component=openai_http") {
		t.Errorf("expected component field in log, got %q", logged)
	}
	if !strings.Contains(logged, "status=200") {
		t.Errorf("expected status in log, got %q", logged)
	}
}

func TestNewClient_NoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	var out map[string]any
	if err := client.Post(context.Background(), "ping", map[string]string{}, &out); err == nil {
		t.Fatal("expected error for 500 response")
	}
	if calls != 1 {
		t.Errorf("expected exactly one request, got %d", calls)
	}
}

func TestLoggingMiddleware_NeverLogsAuthorization(t *testing.T) {
	var buf bytes.Buffer
	mw := LoggingMiddleware(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	req := httptest.NewRequest(http.MethodPost, "http://example.test/v1/realtime", nil)
	req.Header.Set("Authorization", "Bearer sk-secret")

	resp, err := mw(req, func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusUnauthorized, Body: http.NoBody}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected response passed through, got %d", resp.StatusCode)
	}
	if strings.Contains(buf.String(), "sk-secret") {
		t.Error("authorization header leaked into logs")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected warn level for 4xx, got %q", buf.String())
	}
}

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/tvbatch/pkg/config"
	"github.com/wonny/tvbatch/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "development",
		LogLevel: "error", // Reduce log noise
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	cfg.ExportTimeout = 7 * time.Second
	cfg.ExportRateLimit = 5
	log := logger.New(cfg)

	client := New(cfg, log)
	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.httpClient.Timeout != 7*time.Second {
		t.Errorf("Expected timeout=7s, got %v", client.httpClient.Timeout)
	}

	if client.limiter == nil {
		t.Error("Expected rate limiter to be configured")
	}

	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}
}

func TestNewWithTimeout(t *testing.T) {
	cfg := testConfig()
	log := logger.New(cfg)

	timeout := 5 * time.Second
	client := NewWithTimeout(cfg, log, timeout)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout=%v, got %v", timeout, client.httpClient.Timeout)
	}
}

func TestWithRetry(t *testing.T) {
	client := New(testConfig(), logger.Nop()).WithRetry(5, 2*time.Second)

	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries=5, got %d", client.retryConfig.MaxRetries)
	}

	if client.retryConfig.InitialDelay != 2*time.Second {
		t.Errorf("Expected InitialDelay=2s, got %v", client.retryConfig.InitialDelay)
	}
}

func TestDisableRetry(t *testing.T) {
	client := New(testConfig(), logger.Nop()).DisableRetry()

	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("Expected Content-Type=application/json, got %s", contentType)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"created":true}`))
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop())

	resp, err := client.PostJSON(context.Background(), server.URL, map[string]interface{}{"name": "test"})
	if err != nil {
		t.Fatalf("POST request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
}

func TestRetryReplaysBody(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"symbol":"AAPL"}` {
			t.Errorf("attempt %d: unexpected body %q", atomic.LoadInt32(&attempts)+1, body)
		}
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(3, 10*time.Millisecond)

	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"symbol": "AAPL"})
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).
		DisableRetry().
		WithCircuitBreaker("test", 2, time.Minute)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("request %d: expected response, got %v", i, err)
		}
		resp.Body.Close()
	}

	_, err := client.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected 2 server hits, got %d", got)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(5, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true}, // Too Many Requests - should retry
		{500, true},
		{502, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			got := IsRetryableError(tt.statusCode)
			if got != tt.want {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wonny/tvbatch/pkg/config"
	"github.com/wonny/tvbatch/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker rejects requests
var ErrCircuitOpen = errors.New("httputil: circuit open")

// Client is an HTTP client wrapper with retry, rate limiting and a circuit breaker
// ⭐ SSOT: 모든 외부 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}

	if cfg != nil {
		if cfg.ExportTimeout > 0 {
			c.httpClient.Timeout = cfg.ExportTimeout
		}
		if cfg.ExportRateLimit > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(cfg.ExportRateLimit), 1)
		}
	}

	return c
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	client := New(cfg, log)
	client.httpClient.Timeout = timeout
	return client
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRateLimit limits outgoing requests per second (burst 1). rps <= 0 disables it.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return c
}

// WithCircuitBreaker trips after consecutiveFailures failed requests and stays
// open for openTimeout
func (c *Client) WithCircuitBreaker(name string, consecutiveFailures uint32, openTimeout time.Duration) *Client {
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, url, "", nil)
}

// Post performs a POST request with body
func (c *Client) Post(ctx context.Context, url string, contentType string, body []byte) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, contentType, body)
}

// PostJSON performs a POST request with JSON body
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return c.Post(ctx, url, "application/json", jsonData)
}

// send builds a fresh request per attempt so the body can be replayed
func (c *Client) send(ctx context.Context, method, url, contentType string, body []byte) (*http.Response, error) {
	newReq := func() (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, r)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", method, err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req, nil
	}

	// validate up front so a bad URL is not retried
	if _, err := newReq(); err != nil {
		return nil, err
	}

	if c.breaker == nil {
		return c.do(ctx, method, url, newReq)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.do(ctx, method, url, newReq)
		if err != nil {
			return nil, err
		}
		if IsRetryableError(resp.StatusCode) {
			// counts as a failure but the caller still gets the response
			return resp, fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if resp, ok := out.(*http.Response); ok && resp != nil {
		return resp, nil
	}
	return nil, err
}

// do executes the request with rate limiting, retry logic and logging
func (c *Client) do(ctx context.Context, method, url string, newReq func() (*http.Request, error)) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	startTime := time.Now()

	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    url,
	}).Debug("HTTP request started")

	var (
		resp *http.Response
		err  error
	)
	if c.retryConfig.Enabled {
		resp, err = c.doWithRetry(ctx, newReq)
	} else {
		resp, err = c.once(newReq)
	}

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

func (c *Client) once(newReq func() (*http.Request, error)) (*http.Response, error) {
	req, err := newReq()
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// doWithRetry executes the request with exponential backoff retry
func (c *Client) doWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error

	delay := c.retryConfig.InitialDelay

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		resp, err = c.once(newReq)

		if err == nil && !IsRetryableError(resp.StatusCode) {
			return resp, nil
		}

		if attempt == c.retryConfig.MaxRetries {
			break
		}

		// 재시도 전 이전 응답 정리
		if resp != nil {
			resp.Body.Close()
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("Retrying HTTP request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}

	return resp, err
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == 429
}

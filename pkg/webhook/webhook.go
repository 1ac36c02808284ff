package webhook

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
	"net/http"
	"time"
)

var (
	// ErrDeliveryFailed is returned when the endpoint could not be reached or
	// kept responding with a retryable status after all attempts.
	ErrDeliveryFailed = errors.New("webhook delivery failed")

	// ErrRejected is returned on a non-retryable 4xx response.
	ErrRejected = errors.New("webhook rejected by endpoint")
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the payload when a
	// secret is configured.
	SignatureHeader = "X-Webhook-Signature"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Sender delivers JSON payloads to webhook endpoints with retries and
// optional HMAC signing.
type Sender struct {
	client *http.Client
}

// NewSender creates a webhook sender with a pooled HTTP client.
func NewSender() *Sender {
	return &Sender{client: &http.Client{Timeout: defaultTimeout}}
}

// ExponentialBackoff controls the delay between retry attempts.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func defaultBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

type sendConfig struct {
	timeout    time.Duration
	maxRetries int
	backoff    ExponentialBackoff
	secret     string
}

// Option adjusts a single Send call.
type Option func(*sendConfig)

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *sendConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *sendConfig) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithSignature signs the payload with HMAC-SHA256 under the given secret.
func WithSignature(secret string) Option {
	return func(c *sendConfig) {
		c.secret = secret
	}
}

// WithBackoff overrides the retry backoff strategy.
func WithBackoff(b ExponentialBackoff) Option {
	return func(c *sendConfig) {
		c.backoff = b
	}
}

// Send marshals payload as JSON and delivers it to url. Network errors and
// 5xx responses are retried with exponential backoff; 4xx responses fail
// immediately with ErrRejected.
func (s *Sender) Send(ctx context.Context, url string, payload any, opts ...Option) error {
	cfg := sendConfig{
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var signature string
	if cfg.secret != "" {
		mac := hmac.New(sha256.New, []byte(cfg.secret))
		mac.Write(body)
		signature = hex.EncodeToString(mac.Sum(nil))
	}

	interval := cfg.backoff.InitialInterval
	var lastErr error

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(ErrDeliveryFailed, ctx.Err())
			case <-time.After(interval):
			}
			interval = time.Duration(float64(interval) * cfg.backoff.Multiplier)
			if cfg.backoff.MaxInterval > 0 && interval > cfg.backoff.MaxInterval {
				interval = cfg.backoff.MaxInterval
			}
		}

		retryable, err := s.attempt(ctx, url, body, signature, cfg.timeout)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return errors.Join(ErrDeliveryFailed, lastErr)
}

func (s *Sender) attempt(ctx context.Context, url string, body []byte, signature string, timeout time.Duration) (retryable bool, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return true, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return true, fmt.Errorf("endpoint responded %s", resp.Status)
	default:
		return false, fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
}

package tlsaudit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrAuditTimeout is returned when the audit does not finish within the
	// configured attempt budget.
	ErrAuditTimeout = errors.New("tls audit timed out")

	// ErrAuditFailed is returned when the audit service reports an error for
	// the host.
	ErrAuditFailed = errors.New("tls audit failed")
)

// DefaultBaseURL is the public SSL Labs analyze API.
const DefaultBaseURL = "https://api.ssllabs.com/api/v3"

// Config controls the bounded polling loop.
type Config struct {
	BaseURL string `env:"CERTWARD_TLSAUDIT_URL"`
	// MaxAttempts bounds how many times the analyze endpoint is polled
	// before the audit is abandoned.
	MaxAttempts int           `env:"CERTWARD_TLSAUDIT_MAX_ATTEMPTS" envDefault:"30"`
	Interval    time.Duration `env:"CERTWARD_TLSAUDIT_INTERVAL" envDefault:"10s"`
}

// Endpoint is one scanned server endpoint.
type Endpoint struct {
	IPAddress string `json:"ipAddress"`
	Grade     string `json:"grade"`
	Progress  int    `json:"progress"`
}

// Report is the finished audit result for a host.
type Report struct {
	Host      string     `json:"host"`
	Status    string     `json:"status"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Grade returns the worst grade across endpoints, or empty when none
// reported one. Grades order A+ best through F, then T and M.
func (r Report) Grade() string {
	rank := map[string]int{
		"A+": 0, "A": 1, "A-": 2, "B": 3, "C": 4, "D": 5, "E": 6, "F": 7, "T": 8, "M": 9,
	}
	worst := ""
	for _, ep := range r.Endpoints {
		if ep.Grade == "" {
			continue
		}
		if worst == "" || rank[ep.Grade] > rank[worst] {
			worst = ep.Grade
		}
	}
	return worst
}

// Client polls the audit service until the scan finishes or the attempt
// budget runs out.
type Client struct {
	cfg   Config
	http  *http.Client
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithSleeper replaces the inter-poll wait, used by tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New creates an audit client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 30
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: 30 * time.Second},
		log:   slog.Default(),
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run starts a fresh audit for host and polls until READY, ERROR, or the
// attempt budget is exhausted.
func (c *Client) Run(ctx context.Context, host string) (*Report, error) {
	report, err := c.analyze(ctx, host, true)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		switch report.Status {
		case "READY":
			c.log.Info("tls audit finished", "host", host, "grade", report.Grade())
			return report, nil
		case "ERROR":
			return nil, fmt.Errorf("%w: service reported error for %s", ErrAuditFailed, host)
		}

		c.log.Debug("tls audit in progress", "host", host, "status", report.Status, "attempt", attempt)
		if err := c.sleep(ctx, c.cfg.Interval); err != nil {
			return nil, err
		}
		if report, err = c.analyze(ctx, host, false); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s not finished after %d attempts", ErrAuditTimeout, host, c.cfg.MaxAttempts)
}

func (c *Client) analyze(ctx context.Context, host string, startNew bool) (*Report, error) {
	q := url.Values{"host": {host}, "all": {"done"}}
	if startNew {
		q.Set("startNew", "on")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/analyze?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuditFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: analyze returned %d: %s", ErrAuditFailed, resp.StatusCode, body)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("%w: decode analyze response: %w", ErrAuditFailed, err)
	}
	return &report, nil
}

package alerts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/certward/certward/core/email"
	"github.com/certward/certward/core/logger"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/pkg/webhook"
)

// ErrNoChannels is returned when dispatch is asked to run with alerts
// enabled but no channel wired.
var ErrNoChannels = errors.New("no alert channels configured")

// Dispatcher fans alerts out to the configured notification channels. A
// channel failure is logged and does not block the other channels.
type Dispatcher struct {
	email   email.EmailSender
	webhook *webhook.Sender
	log     *slog.Logger
	now     func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEmailSender wires the email channel transport.
func WithEmailSender(sender email.EmailSender) DispatcherOption {
	return func(d *Dispatcher) { d.email = sender }
}

// WithWebhookSender wires the webhook channel transport.
func WithWebhookSender(sender *webhook.Sender) DispatcherOption {
	return func(d *Dispatcher) { d.webhook = sender }
}

// WithLogger overrides the dispatcher logger.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithClock overrides the payload timestamp source, used by tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher. Channels without a wired transport are
// skipped at dispatch time.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers the alert batch to every channel cfg enables. It is a
// no-op when alerting is disabled or the batch is empty. Per-channel failures
// are logged and collected; a partial delivery still reaches the channels
// that work.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg settings.Alerts, batch []Alert) error {
	if !cfg.Enabled || len(batch) == 0 {
		return nil
	}
	if cfg.Email == nil && cfg.Webhook == nil {
		return ErrNoChannels
	}

	var errs []error

	if cfg.Email != nil && d.email != nil {
		params := email.SendEmailParams{
			SendTo:   cfg.Email.Recipient,
			Subject:  Subject(batch),
			BodyHTML: RenderHTML(batch),
			Tag:      "cert-expiry",
		}
		if err := d.email.SendEmail(ctx, params); err != nil {
			d.log.Error("email alert delivery failed", "recipient", cfg.Email.Recipient, logger.Error(err))
			errs = append(errs, err)
		} else {
			d.log.Info("email alert sent", "recipient", cfg.Email.Recipient, "alerts", len(batch))
		}
	}

	if cfg.Webhook != nil && d.webhook != nil {
		payload := Payload{GeneratedAt: d.now().UTC(), Alerts: batch}
		opts := []webhook.Option{}
		if cfg.Webhook.Secret != "" {
			opts = append(opts, webhook.WithSignature(cfg.Webhook.Secret))
		}
		if err := d.webhook.Send(ctx, cfg.Webhook.URL, payload, opts...); err != nil {
			d.log.Error("webhook alert delivery failed", "url", cfg.Webhook.URL, logger.Error(err))
			errs = append(errs, err)
		} else {
			d.log.Info("webhook alert sent", "url", cfg.Webhook.URL, "alerts", len(batch))
		}
	}

	return errors.Join(errs...)
}

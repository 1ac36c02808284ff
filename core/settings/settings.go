package settings

import (
	"errors"
	"fmt"

	"github.com/certward/certward/core/ca"
	"github.com/certward/certward/core/status"
)

// ErrInvalidSettings is returned by Save when the document fails validation.
var ErrInvalidSettings = errors.New("invalid settings")

// EmailChannel configures expiry alerts over email.
type EmailChannel struct {
	Recipient string `json:"recipient"`
}

// WebhookChannel configures expiry alerts over an HTTP webhook. Secret, when
// set, is used for an HMAC signature on the delivered payload.
type WebhookChannel struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}

// Alerts holds the notification channel configuration. Each channel is
// optional; a nil channel is simply not dispatched to.
type Alerts struct {
	Enabled bool            `json:"enabled"`
	Email   *EmailChannel   `json:"email,omitempty"`
	Webhook *WebhookChannel `json:"webhook,omitempty"`
}

// AutoRenewal holds the commands run around a scheduled or forced renewal.
type AutoRenewal struct {
	PreHook  string `json:"pre_hook,omitempty"`
	PostHook string `json:"post_hook,omitempty"`
}

// Settings is the persisted operator configuration: classification thresholds,
// the default CA and notification wiring.
type Settings struct {
	DefaultCA   ca.ID             `json:"default_ca"`
	Thresholds  status.Thresholds `json:"alert_thresholds"`
	Alerts      Alerts            `json:"alerts"`
	AutoRenewal AutoRenewal       `json:"auto_renewal"`
}

// Default returns the settings used when nothing is persisted or the
// persisted file is corrupt.
func Default() Settings {
	return Settings{
		DefaultCA:  ca.LetsEncrypt,
		Thresholds: status.DefaultThresholds(),
	}
}

// Validate checks the invariants a settings document must satisfy before it
// can be persisted.
func (s Settings) Validate() error {
	if err := s.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.DefaultCA != "" {
		a, err := ca.Resolve(s.DefaultCA)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		if a.Staging {
			return fmt.Errorf("%w: default CA must not be a staging endpoint", ErrInvalidSettings)
		}
	}
	if s.Alerts.Enabled && s.Alerts.Email == nil && s.Alerts.Webhook == nil {
		return fmt.Errorf("%w: alerts enabled but no channel configured", ErrInvalidSettings)
	}
	if s.Alerts.Email != nil && s.Alerts.Email.Recipient == "" {
		return fmt.Errorf("%w: email alert channel needs a recipient", ErrInvalidSettings)
	}
	if s.Alerts.Webhook != nil && s.Alerts.Webhook.URL == "" {
		return fmt.Errorf("%w: webhook alert channel needs a URL", ErrInvalidSettings)
	}
	return nil
}

package email

import (
	"context"
	"fmt"
	"regexp"
)

// SendEmailParams defines the content and metadata of one message.
type SendEmailParams struct {
	SendTo   string
	Subject  string
	BodyHTML string
	// Tag groups related messages for tracking, e.g. "cert-expiry".
	Tag string
}

// Validate checks the parameters before any transport work happens.
func (p SendEmailParams) Validate() error {
	if p.SendTo == "" || !addressRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// EmailSender is implemented by the transport integrations (SMTP, Postmark)
// and by DevSender for local development.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// addressRegex is a simple shape check for email addresses.
var addressRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidAddress reports whether the string looks like an email address.
func ValidAddress(addr string) bool {
	return addressRegex.MatchString(addr)
}

package acme

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrClientFailed is returned when the external ACME client exits
	// nonzero. The captured output travels with the Invocation.
	ErrClientFailed = errors.New("acme client failed")

	// ErrChallengeAborted is returned when the operator declines a manual
	// DNS-01 challenge. The client process is terminated without submitting.
	ErrChallengeAborted = errors.New("manual challenge aborted")
)

// TXTRecord is the DNS record an operator must publish to satisfy a manual
// DNS-01 challenge.
type TXTRecord struct {
	// Name is the fully qualified record name, e.g.
	// "_acme-challenge.example.com".
	Name string
	// Value is the token the ACME server expects in the TXT record.
	Value string
}

// FQDN returns the record name without a trailing dot.
func (r TXTRecord) FQDN() string {
	return strings.TrimSuffix(r.Name, ".")
}

// Invocation captures one external client run verbatim: the argument vector,
// the exit status and the combined stdout/stderr. On failure the output is
// surfaced to the operator as opaque diagnostic text.
type Invocation struct {
	Args     []string
	ExitCode int
	Output   string
}

// ObtainRequest assembles one certificate request for the external client.
// Exactly one challenge path applies: webroot/standalone HTTP-01 when no DNS
// fields are set, plugin-driven DNS-01 when DNSPlugin is set, or interactive
// manual DNS-01 when Manual is set.
type ObtainRequest struct {
	// Name is the certificate lineage name; defaults to the first domain.
	Name    string
	Domains []string
	Email   string

	// DirectoryURL overrides the client's default ACME endpoint.
	DirectoryURL string

	// Webroot serves HTTP-01 challenges from an existing web server's
	// document root. Empty means a standalone challenge listener.
	Webroot string

	// DNSPlugin selects the client's DNS plugin, e.g. "cloudflare".
	DNSPlugin          string
	DNSCredentialsFile string

	// Manual runs the interactive manual DNS-01 flow. PresentTXT is called
	// with each TXT record the client asks for and blocks until the operator
	// confirms; returning an error aborts the run before submission.
	Manual     bool
	PresentTXT func(ctx context.Context, rec TXTRecord) error
}

// Client is the boundary to the external ACME client. The core never speaks
// the ACME protocol itself; it consumes exit status and captured output.
type Client interface {
	Obtain(ctx context.Context, req ObtainRequest) (*Invocation, error)
	Renew(ctx context.Context, certName string, force bool) (*Invocation, error)
	Revoke(ctx context.Context, certPath, reason string) (*Invocation, error)
}

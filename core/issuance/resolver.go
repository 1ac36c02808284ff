package issuance

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/certward/certward/integration/acme"
)

// Resolver performs the DNS lookups issuance needs: host resolvability for
// HTTP-01 preflight and TXT visibility for DNS-01 propagation.
type Resolver struct {
	server string
	client *dns.Client
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithServer points the resolver at a specific DNS server ("host:port").
func WithServer(addr string) ResolverOption {
	return func(r *Resolver) {
		if addr != "" {
			r.server = addr
		}
	}
}

// NewResolver creates a resolver. Without WithServer it uses the first
// nameserver from /etc/resolv.conf, falling back to a public resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		server: systemResolver(),
		client: &dns.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func systemResolver() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil && len(cfg.Servers) > 0 {
		return cfg.Servers[0] + ":" + cfg.Port
	}
	return "8.8.8.8:53"
}

// LookupHost returns the host's A and AAAA record values.
func (r *Resolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	var addrs []string
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", host, err)
		}
		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				addrs = append(addrs, rec.A.String())
			case *dns.AAAA:
				addrs = append(addrs, rec.AAAA.String())
			}
		}
	}
	return addrs, nil
}

// ResolvesHost reports whether the host has at least one A or AAAA record.
func (r *Resolver) ResolvesHost(ctx context.Context, host string) (bool, error) {
	addrs, err := r.LookupHost(ctx, host)
	if err != nil {
		return false, err
	}
	return len(addrs) > 0, nil
}

// HasTXT reports whether the FQDN currently serves a TXT record containing
// value.
func (r *Resolver) HasTXT(ctx context.Context, fqdn, value string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return false, fmt.Errorf("query TXT %s: %w", fqdn, err)
	}
	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		for _, s := range txt.Txt {
			if s == value {
				return true, nil
			}
		}
	}
	return false, nil
}

// AwaitTXT polls until the TXT record is visible or the attempt budget is
// spent. Lookup errors during polling are treated as "not yet visible".
func (r *Resolver) AwaitTXT(ctx context.Context, rec acme.TXTRecord, attempts int, interval time.Duration) error {
	if attempts <= 0 {
		attempts = 30
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	for i := 0; i < attempts; i++ {
		if i > 0 {
			t := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		visible, err := r.HasTXT(ctx, rec.FQDN(), rec.Value)
		if err == nil && visible {
			return nil
		}
	}
	return fmt.Errorf("%w: %s after %d attempts", ErrPropagationTimeout, rec.FQDN(), attempts)
}

// AutoConfirm adapts the resolver into a manual-challenge confirmation
// callback: it blocks until the operator-published TXT record propagates.
func AutoConfirm(r *Resolver, attempts int, interval time.Duration) func(context.Context, acme.TXTRecord) error {
	return func(ctx context.Context, rec acme.TXTRecord) error {
		return r.AwaitTXT(ctx, rec, attempts, interval)
	}
}

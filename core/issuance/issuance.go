package issuance

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/certward/certward/core/ca"
	"github.com/certward/certward/core/dnsprovider"
	"github.com/certward/certward/core/email"
	"github.com/certward/certward/core/history"
	"github.com/certward/certward/core/logger"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/integration/acme"
	"github.com/certward/certward/integration/webserver"
	"github.com/certward/certward/pkg/domainlock"
)

// Challenge selects how domain control is proven to the CA.
type Challenge string

const (
	ChallengeHTTP01 Challenge = "http-01"
	ChallengeDNS01  Challenge = "dns-01"
)

// DNSMode selects how a DNS-01 challenge record gets published.
type DNSMode string

const (
	// DNSPlugin publishes the record through the configured provider's API.
	DNSPlugin DNSMode = "plugin"
	// DNSManual prints the record for the operator to publish by hand and
	// waits for confirmation before the challenge is submitted.
	DNSManual DNSMode = "manual"
)

// Request describes one certificate to obtain.
type Request struct {
	// Name is the lineage name; defaults to the first domain without its
	// wildcard label.
	Name    string
	Domains []string
	Email   string

	// CA selects the authority; empty uses the operator's configured default.
	// Staging authorities must be named explicitly.
	CA ca.ID

	// Challenge defaults to HTTP-01. Requests containing a wildcard domain
	// must ask for DNS-01 and are rejected otherwise.
	Challenge Challenge
	DNSMode   DNSMode

	// ConfirmTXT is the manual DNS-01 confirmation callback. Nil falls back
	// to waiting for the record to propagate.
	ConfirmTXT func(ctx context.Context, rec acme.TXTRecord) error

	// AcknowledgePreflight proceeds despite failed preflight checks. The
	// checks still run and their results are reported in the result and the
	// log.
	AcknowledgePreflight bool

	// ReloadWebServer reloads the host web server after a successful obtain.
	ReloadWebServer bool
}

// Result is a successful issuance.
type Result struct {
	Name       string
	Domains    []string
	Authority  ca.Authority
	Challenge  Challenge
	Preflight  *PreflightReport
	Invocation *acme.Invocation
}

// Orchestrator runs the issuance flow: validate, preflight, pick CA and
// challenge, lock the domains, invoke the external ACME client, record
// history.
type Orchestrator struct {
	client    acme.Client
	providers *dnsprovider.Registry
	settings  *settings.Store
	history   *history.Log
	lockDir   string

	resolver  *Resolver
	web       webserver.Reloader
	hostIP    string
	probePort func(ctx context.Context, addr string) bool
	log       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithResolver wires DNS lookups for preflight and propagation checks.
func WithResolver(r *Resolver) Option {
	return func(o *Orchestrator) { o.resolver = r }
}

// WithWebServer wires the host web server for webroot challenges and
// post-issuance reloads.
func WithWebServer(w webserver.Reloader) Option {
	return func(o *Orchestrator) { o.web = w }
}

// WithHostIP sets the host's public IP. When set, preflight requires every
// requested domain to resolve to it, not merely to resolve.
func WithHostIP(ip string) Option {
	return func(o *Orchestrator) { o.hostIP = ip }
}

// WithPortProbe replaces the TCP listen probe, used by tests.
func WithPortProbe(probe func(ctx context.Context, addr string) bool) Option {
	return func(o *Orchestrator) {
		if probe != nil {
			o.probePort = probe
		}
	}
}

// WithLogger overrides the orchestrator logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// NewOrchestrator wires the issuance flow together.
func NewOrchestrator(client acme.Client, providers *dnsprovider.Registry, store *settings.Store, log *history.Log, lockDir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		providers: providers,
		settings:  store,
		history:   log,
		lockDir:   lockDir,
		probePort: dialProbe,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// hostnameRegex accepts DNS names with an optional leading wildcard label.
var hostnameRegex = regexp.MustCompile(`^(\*\.)?([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// ValidDomain reports whether the string is a usable certificate domain:
// a DNS name, optionally with a single leading wildcard label.
func ValidDomain(domain string) bool {
	return hostnameRegex.MatchString(strings.ToLower(domain))
}

// Issue runs the full flow. Errors carry the stage they occurred in; nothing
// is submitted to the CA unless every earlier stage passed.
func (o *Orchestrator) Issue(ctx context.Context, req Request) (*Result, error) {
	if err := o.collect(&req); err != nil {
		return nil, err
	}

	report, webroot := o.preflight(ctx, req)
	if !report.Passed() {
		for _, check := range report.Checks {
			if !check.Passed {
				o.log.Warn("preflight check failed", "check", check.Name, "detail", check.Detail)
			}
		}
		if !req.AcknowledgePreflight {
			return nil, stageErr(StagePreflight, fmt.Errorf("%w: %s", ErrPreflight, strings.Join(report.Failures(), "; ")))
		}
	}

	authority, err := o.selectCA(req.CA)
	if err != nil {
		return nil, err
	}

	obtain := acme.ObtainRequest{
		Name:         req.Name,
		Domains:      req.Domains,
		Email:        req.Email,
		DirectoryURL: authority.DirectoryURL,
		Webroot:      webroot,
	}
	if err := o.selectChallenge(req, &obtain); err != nil {
		return nil, err
	}

	locks, err := domainlock.AcquireAll(o.lockDir, req.Domains)
	if err != nil {
		return nil, stageErr(StageSubmitting, err)
	}
	defer domainlock.ReleaseAll(locks)

	o.log.Info("submitting certificate request",
		"name", req.Name, "domains", req.Domains,
		"ca", string(authority.ID), "challenge", string(req.Challenge))

	inv, err := o.client.Obtain(ctx, obtain)
	if err != nil {
		return nil, stageErr(StageSubmitting, err)
	}

	detail := fmt.Sprintf("ca=%s challenge=%s domains=%s",
		authority.ID, req.Challenge, strings.Join(req.Domains, ","))
	if herr := o.history.Append(req.Name, history.KindIssued, detail); herr != nil {
		o.log.Error("could not record issuance in history", logger.Cert(req.Name), logger.Error(herr))
	}

	if req.ReloadWebServer && o.web != nil && o.web.Active(ctx) {
		if rerr := o.web.Reload(ctx); rerr != nil {
			o.log.Warn("web server reload after issuance failed", logger.Error(rerr))
		}
	}

	return &Result{
		Name:       req.Name,
		Domains:    req.Domains,
		Authority:  authority,
		Challenge:  req.Challenge,
		Preflight:  report,
		Invocation: inv,
	}, nil
}

// collect validates and normalizes the request in place.
func (o *Orchestrator) collect(req *Request) error {
	if len(req.Domains) == 0 {
		return stageErr(StageCollecting, fmt.Errorf("%w: at least one domain is required", ErrInvalidRequest))
	}

	seen := make(map[string]struct{}, len(req.Domains))
	wildcard := ""
	for i, d := range req.Domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if !ValidDomain(d) {
			return stageErr(StageCollecting, fmt.Errorf("%w: %q is not a valid domain", ErrInvalidRequest, req.Domains[i]))
		}
		if _, dup := seen[d]; dup {
			return stageErr(StageCollecting, fmt.Errorf("%w: duplicate domain %q", ErrInvalidRequest, d))
		}
		seen[d] = struct{}{}
		req.Domains[i] = d
		if strings.HasPrefix(d, "*.") {
			if wildcard != "" {
				return stageErr(StageCollecting, fmt.Errorf("%w: at most one wildcard domain per request", ErrInvalidRequest))
			}
			wildcard = d
		}
	}
	hasWildcard := wildcard != ""

	// A wildcard request covers one base domain: the *. form plus at most
	// the bare base itself.
	if hasWildcard {
		base := strings.TrimPrefix(wildcard, "*.")
		for _, d := range req.Domains {
			if d != wildcard && d != base {
				return stageErr(StageCollecting, fmt.Errorf("%w: %q does not belong to wildcard %q", ErrInvalidRequest, d, wildcard))
			}
		}
	}

	if !email.ValidAddress(req.Email) {
		return stageErr(StageCollecting, fmt.Errorf("%w: %q is not a valid account email", ErrInvalidRequest, req.Email))
	}

	if req.Name == "" {
		req.Name = strings.TrimPrefix(req.Domains[0], "*.")
	}

	if req.Challenge == "" {
		req.Challenge = ChallengeHTTP01
	}
	if req.Challenge == ChallengeDNS01 && req.DNSMode == "" {
		req.DNSMode = DNSPlugin
	}

	// Wildcards can only be proven over DNS. Rejected here, before any
	// external invocation.
	if hasWildcard && req.Challenge != ChallengeDNS01 {
		return stageErr(StageChallenge, ErrDNS01Required)
	}

	return nil
}

// selectCA resolves the requested authority or the operator default. A
// staging endpoint is only used when named explicitly.
func (o *Orchestrator) selectCA(id ca.ID) (ca.Authority, error) {
	if id == "" {
		return ca.Default(o.settings.Load().DefaultCA), nil
	}
	authority, err := ca.Resolve(id)
	if err != nil {
		return ca.Authority{}, stageErr(StageCA, err)
	}
	return authority, nil
}

// selectChallenge fills the challenge-specific fields of the obtain request.
func (o *Orchestrator) selectChallenge(req Request, obtain *acme.ObtainRequest) error {
	if req.Challenge != ChallengeDNS01 {
		return nil
	}

	switch req.DNSMode {
	case DNSManual:
		obtain.Manual = true
		obtain.PresentTXT = req.ConfirmTXT
		if obtain.PresentTXT == nil {
			if o.resolver == nil {
				return stageErr(StageChallenge, fmt.Errorf("%w: manual DNS-01 needs a confirmation callback or a resolver", ErrInvalidRequest))
			}
			obtain.PresentTXT = AutoConfirm(o.resolver, 0, 0)
		}
	default:
		handle, err := o.providers.ResolveForDomain(req.Domains[0])
		if err != nil {
			return stageErr(StageChallenge, err)
		}
		obtain.DNSPlugin = handle.Plugin
		obtain.DNSCredentialsFile = handle.CredentialsFile
	}
	return nil
}

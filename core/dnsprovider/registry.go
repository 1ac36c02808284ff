package dnsprovider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Handle is a configured provider ready for DNS-01 use: the catalogue entry
// plus the on-disk credentials file the ACME client plugin consumes.
type Handle struct {
	Descriptor
	CredentialsFile string
}

// Registry manages DNS provider credentials under a dedicated directory.
// At most one provider is active at a time (see Configure).
type Registry struct {
	dir       string
	client    *http.Client
	endpoints map[ID]string
	log       *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithHTTPClient overrides the HTTP client used for capability tests.
func WithHTTPClient(c *http.Client) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.client = c
		}
	}
}

// WithEndpoint overrides a provider's API base URL, for tests.
func WithEndpoint(id ID, baseURL string) RegistryOption {
	return func(r *Registry) {
		r.endpoints[id] = strings.TrimRight(baseURL, "/")
	}
}

// WithRegistryLogger overrides the registry logger.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates a registry rooted at dir. The directory is created on
// first Configure, not here.
func NewRegistry(dir string, opts ...RegistryOption) *Registry {
	r := &Registry{
		dir:       dir,
		client:    &http.Client{Timeout: 15 * time.Second},
		endpoints: make(map[ID]string),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ConfigureOptions adjusts a Configure call.
type ConfigureOptions struct {
	// SkipCapabilityTest persists credentials without the read-only probe.
	SkipCapabilityTest bool
	// ReplaceActive allows replacing a different active provider. Without it
	// a second provider is rejected with ErrProviderConflict.
	ReplaceActive bool
}

// Configure validates credentials for the provider, optionally runs its
// capability test, and persists them to a file readable only by the owner.
// On any failure nothing is written: there are no partial credential files.
func (r *Registry) Configure(ctx context.Context, id ID, creds Credentials, opts ConfigureOptions) (*Handle, error) {
	desc, ok := Describe(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}

	for _, f := range desc.Fields {
		if strings.TrimSpace(creds[f.Key]) == "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingField, f.Key, f.Label)
		}
	}

	active, err := r.Active()
	if err != nil {
		return nil, err
	}
	if active != nil && active.ID != id && !opts.ReplaceActive {
		return nil, fmt.Errorf("%w: %s is active; remove it or set ReplaceActive", ErrProviderConflict, active.ID)
	}

	if !opts.SkipCapabilityTest {
		if err := desc.capability(ctx, r.client, r.baseURL(desc), creds); err != nil {
			return nil, fmt.Errorf("%s: %w", desc.Name, err)
		}
	}

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credentials directory: %w", err)
	}

	var b strings.Builder
	for _, f := range desc.Fields {
		fmt.Fprintf(&b, "%s = %s\n", f.IniKey, strings.TrimSpace(creds[f.Key]))
	}

	path := r.credentialsPath(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return nil, fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("save credentials: %w", err)
	}

	// At most one credentials file may exist. If the replaced provider's
	// file cannot be removed, roll the new one back and keep the old active.
	if active != nil && active.ID != id {
		if err := os.Remove(active.CredentialsFile); err != nil {
			_ = os.Remove(path)
			return nil, fmt.Errorf("remove replaced provider %s credentials: %w", active.ID, err)
		}
	}

	r.log.Info("DNS provider configured", "provider", string(id))
	return &Handle{Descriptor: desc, CredentialsFile: path}, nil
}

// Remove deletes the provider's credentials file.
func (r *Registry) Remove(id ID) error {
	if _, ok := Describe(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	if err := os.Remove(r.credentialsPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Active returns the configured provider, or nil when none is configured.
// Providers are checked in catalogue order, so the answer is stable even if
// stray credential files coexist.
func (r *Registry) Active() (*Handle, error) {
	for _, desc := range All() {
		path := r.credentialsPath(desc.ID)
		if _, err := os.Stat(path); err == nil {
			return &Handle{Descriptor: desc, CredentialsFile: path}, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat credentials: %w", err)
		}
	}
	return nil, nil
}

// ResolveForDomain returns the provider to use for a DNS-01 challenge on the
// given domain. The domain is currently ignored: the registry holds at most
// one active provider, and that constraint is enforced at configuration time
// rather than resolved per base domain.
func (r *Registry) ResolveForDomain(domain string) (*Handle, error) {
	_ = domain
	h, err := r.Active()
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNoProvider
	}
	return h, nil
}

func (r *Registry) credentialsPath(id ID) string {
	return filepath.Join(r.dir, string(id)+".ini")
}

func (r *Registry) baseURL(desc Descriptor) string {
	if u, ok := r.endpoints[desc.ID]; ok {
		return u
	}
	return desc.baseURL
}

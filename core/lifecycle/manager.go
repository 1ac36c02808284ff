package lifecycle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/certward/certward/core/certificate"
	"github.com/certward/certward/core/history"
	"github.com/certward/certward/core/inventory"
	"github.com/certward/certward/core/logger"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/integration/acme"
	"github.com/certward/certward/integration/webserver"
	"github.com/certward/certward/pkg/domainlock"
)

// Manager runs the post-issuance lifecycle operations: renewal and revocation
// through the external ACME client, import of operator-supplied bundles, and
// deletion from either store.
type Manager struct {
	inv       *inventory.Service
	client    acme.Client
	settings  *settings.Store
	history   *history.Log
	lockDir   string
	customDir string

	web webserver.Reloader
	log *slog.Logger
	now func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithWebServer wires the host web server for post-renewal reloads.
func WithWebServer(w webserver.Reloader) Option {
	return func(m *Manager) { m.web = w }
}

// WithLogger overrides the manager logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager wires the lifecycle operations together. customDir is the store
// imported bundles are written into.
func NewManager(inv *inventory.Service, client acme.Client, store *settings.Store, log *history.Log, lockDir, customDir string, opts ...Option) *Manager {
	m := &Manager{
		inv:       inv,
		client:    client,
		settings:  store,
		history:   log,
		lockDir:   lockDir,
		customDir: customDir,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Renew renews an ACME-managed certificate. Imported certificates have no
// renewal path and are rejected before anything runs. The configured pre and
// post hooks run around the client invocation; a failing pre hook aborts the
// renewal.
func (m *Manager) Renew(ctx context.Context, name string, force bool) (*acme.Invocation, error) {
	cert, err := m.inv.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	if cert.Source != certificate.SourceACME {
		return nil, fmt.Errorf("%w: %s was imported, re-import a fresh bundle instead", ErrNotRenewable, name)
	}

	locks, err := domainlock.AcquireAll(m.lockDir, cert.Domains)
	if err != nil {
		return nil, err
	}
	defer domainlock.ReleaseAll(locks)

	hooks := m.settings.Load().AutoRenewal
	if err := m.runHook(ctx, "pre", hooks.PreHook); err != nil {
		return nil, err
	}

	inv, err := m.client.Renew(ctx, name, force)
	if err != nil {
		return inv, err
	}

	if herr := m.history.Append(name, history.KindRenewed, fmt.Sprintf("force=%t", force)); herr != nil {
		m.log.Error("could not record renewal in history", logger.Cert(name), logger.Error(herr))
	}

	if err := m.runHook(ctx, "post", hooks.PostHook); err != nil {
		return inv, err
	}

	if m.web != nil && m.web.Active(ctx) {
		if rerr := m.web.Reload(ctx); rerr != nil {
			m.log.Warn("web server reload after renewal failed", logger.Error(rerr))
		}
	}
	return inv, nil
}

// Revoke revokes an ACME-managed certificate with the CA. reason is passed
// through to the external client when set. deleteFiles also removes the local
// material after a successful revocation; otherwise the files stay on disk
// and removing them is a separate Delete. Imported certificates cannot be
// revoked here and the request changes no state.
func (m *Manager) Revoke(ctx context.Context, name, reason string, deleteFiles bool) (*acme.Invocation, error) {
	cert, err := m.inv.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	if cert.Source != certificate.SourceACME {
		return nil, fmt.Errorf("%w: %s must be revoked through its issuing CA", ErrNotSupported, name)
	}

	inv, err := m.client.Revoke(ctx, cert.Path, reason)
	if err != nil {
		return inv, err
	}

	detail := ""
	if reason != "" {
		detail = "reason=" + reason
	}
	if herr := m.history.Append(name, history.KindRevoked, detail); herr != nil {
		m.log.Error("could not record revocation in history", logger.Cert(name), logger.Error(herr))
	}

	if deleteFiles {
		if derr := m.Delete(ctx, name); derr != nil {
			return inv, derr
		}
	}
	return inv, nil
}

// Delete removes a certificate's directory from its owning store.
func (m *Manager) Delete(ctx context.Context, name string) error {
	cert, err := m.inv.Find(ctx, name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(cert.Path)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete certificate %s: %w", name, err)
	}

	if herr := m.history.Append(name, history.KindDeleted, string(cert.Source)); herr != nil {
		m.log.Error("could not record deletion in history", logger.Cert(name), logger.Error(herr))
	}
	m.log.Info("certificate deleted", "name", name, "source", string(cert.Source))
	return nil
}

// runHook executes a renewal hook through the shell. An empty hook is a
// no-op.
func (m *Manager) runHook(ctx context.Context, phase, command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s hook: %s", ErrHookFailed, phase, strings.TrimSpace(buf.String()))
	}
	m.log.Debug("renewal hook finished", "phase", phase)
	return nil
}

package webserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var (
	// ErrNotInstalled is returned when the managed web server binary is not
	// present on the host.
	ErrNotInstalled = errors.New("web server not installed")

	// ErrConfigInvalid is returned when the server's own configuration check
	// fails. A reload is never attempted after a failed check.
	ErrConfigInvalid = errors.New("web server configuration invalid")

	// ErrReloadFailed is returned when the reload command exits nonzero.
	ErrReloadFailed = errors.New("web server reload failed")
)

// Reloader abstracts the host web server that serves HTTP-01 challenges and
// consumes issued certificates.
type Reloader interface {
	// Installed reports whether the server binary exists on the host.
	Installed() bool
	// Active reports whether the server is currently running.
	Active(ctx context.Context) bool
	// ValidateConfig runs the server's own configuration check.
	ValidateConfig(ctx context.Context) error
	// Reload asks the running server to pick up new configuration and
	// certificates without dropping connections.
	Reload(ctx context.Context) error
	// DocumentRoot returns the directory HTTP-01 challenge files can be
	// served from, or empty when unknown.
	DocumentRoot() string
}

// NginxReloader drives nginx through its binary and systemctl.
type NginxReloader struct {
	binary  string
	service string
	webroot string
	log     *slog.Logger

	// runner is swapped in tests.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NginxOption configures an NginxReloader.
type NginxOption func(*NginxReloader)

// WithBinary overrides the nginx executable path.
func WithBinary(path string) NginxOption {
	return func(r *NginxReloader) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithWebroot overrides the document root reported for HTTP-01 challenges.
func WithWebroot(dir string) NginxOption {
	return func(r *NginxReloader) { r.webroot = dir }
}

// WithNginxLogger overrides the reloader logger.
func WithNginxLogger(log *slog.Logger) NginxOption {
	return func(r *NginxReloader) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRunner replaces the command runner, used by tests.
func WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) NginxOption {
	return func(r *NginxReloader) {
		if run != nil {
			r.runner = run
		}
	}
}

// NewNginxReloader creates the nginx-backed reloader.
func NewNginxReloader(opts ...NginxOption) *NginxReloader {
	r := &NginxReloader{
		binary:  "nginx",
		service: "nginx",
		webroot: "/var/www/html",
		log:     slog.Default(),
		runner:  runCommand,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// Installed reports whether the nginx binary can be resolved.
func (r *NginxReloader) Installed() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Active reports whether the nginx service unit is running.
func (r *NginxReloader) Active(ctx context.Context) bool {
	out, err := r.runner(ctx, "systemctl", "is-active", r.service)
	return err == nil && strings.TrimSpace(string(out)) == "active"
}

// ValidateConfig runs nginx -t and wraps its diagnostics on failure.
func (r *NginxReloader) ValidateConfig(ctx context.Context) error {
	out, err := r.runner(ctx, r.binary, "-t")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.TrimSpace(string(out)))
	}
	return nil
}

// Reload reloads the nginx service. The configuration is validated first so a
// broken config never takes the running server down.
func (r *NginxReloader) Reload(ctx context.Context) error {
	if err := r.ValidateConfig(ctx); err != nil {
		return err
	}
	out, err := r.runner(ctx, "systemctl", "reload", r.service)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrReloadFailed, strings.TrimSpace(string(out)))
	}
	r.log.Info("web server reloaded", "service", r.service)
	return nil
}

// DocumentRoot returns the configured challenge webroot.
func (r *NginxReloader) DocumentRoot() string {
	return r.webroot
}

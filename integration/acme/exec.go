package acme

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Config holds the external client invocation settings.
type Config struct {
	// Binary is the certbot-compatible executable to invoke.
	Binary string `env:"CERTWARD_ACME_BINARY" envDefault:"certbot"`
	// ExtraArgs are appended to every invocation, e.g. --config-dir overrides
	// in tests.
	ExtraArgs []string `env:"CERTWARD_ACME_EXTRA_ARGS" envSeparator:" "`
}

// ExecClient shells out to a certbot-compatible ACME client.
type ExecClient struct {
	cfg Config
	log *slog.Logger
}

// NewExecClient creates the subprocess-backed client.
func NewExecClient(cfg Config, opts ...ExecOption) *ExecClient {
	if cfg.Binary == "" {
		cfg.Binary = "certbot"
	}
	c := &ExecClient{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecOption configures an ExecClient.
type ExecOption func(*ExecClient)

// WithLogger overrides the client logger.
func WithLogger(log *slog.Logger) ExecOption {
	return func(c *ExecClient) {
		if log != nil {
			c.log = log
		}
	}
}

// Obtain requests a certificate for the assembled domain list.
func (c *ExecClient) Obtain(ctx context.Context, req ObtainRequest) (*Invocation, error) {
	if len(req.Domains) == 0 {
		return nil, fmt.Errorf("%w: no domains in request", ErrClientFailed)
	}

	name := req.Name
	if name == "" {
		name = strings.TrimPrefix(req.Domains[0], "*.")
	}

	args := []string{
		"certonly",
		"--agree-tos",
		"--email", req.Email,
		"--cert-name", name,
	}
	for _, d := range req.Domains {
		args = append(args, "-d", d)
	}
	if req.DirectoryURL != "" {
		args = append(args, "--server", req.DirectoryURL)
	}

	switch {
	case req.Manual:
		args = append(args, "--manual", "--preferred-challenges", "dns")
	case req.DNSPlugin != "":
		args = append(args,
			"--dns-"+req.DNSPlugin,
			"--dns-"+req.DNSPlugin+"-credentials", req.DNSCredentialsFile,
			"--non-interactive",
		)
	case req.Webroot != "":
		args = append(args, "--webroot", "-w", req.Webroot, "--non-interactive")
	default:
		args = append(args, "--standalone", "--non-interactive")
	}

	if req.Manual {
		return c.runInteractive(ctx, args, req.PresentTXT)
	}
	return c.run(ctx, args)
}

// Renew renews an existing lineage by name. force renews regardless of the
// client's own expiry window.
func (c *ExecClient) Renew(ctx context.Context, certName string, force bool) (*Invocation, error) {
	args := []string{"renew", "--cert-name", certName, "--non-interactive"}
	if force {
		args = append(args, "--force-renewal")
	}
	return c.run(ctx, args)
}

// Revoke revokes the certificate at certPath. reason is an RFC 5280 reason
// name the client understands ("keycompromise", "superseded", ...); empty
// uses the client default. Local files are left in place; deletion is the
// lifecycle manager's decision.
func (c *ExecClient) Revoke(ctx context.Context, certPath, reason string) (*Invocation, error) {
	args := []string{
		"revoke",
		"--cert-path", certPath,
		"--no-delete-after-revoke",
		"--non-interactive",
	}
	if reason != "" {
		args = append(args, "--reason", reason)
	}
	return c.run(ctx, args)
}

func (c *ExecClient) command(ctx context.Context, args []string) (*exec.Cmd, []string) {
	full := append(append([]string{}, args...), c.cfg.ExtraArgs...)
	return exec.CommandContext(ctx, c.cfg.Binary, full...), full
}

func (c *ExecClient) run(ctx context.Context, args []string) (*Invocation, error) {
	cmd, full := c.command(ctx, args)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	c.log.Debug("invoking acme client", "binary", c.cfg.Binary, "args", full)
	err := cmd.Run()

	inv := &Invocation{Args: full, Output: buf.String()}
	if err != nil {
		inv.ExitCode = exitCode(err)
		return inv, fmt.Errorf("%w: %s exited %d", ErrClientFailed, c.cfg.Binary, inv.ExitCode)
	}
	return inv, nil
}

// runInteractive drives the client's manual DNS-01 dialogue: it parses the
// TXT record the client prints, hands it to present (which blocks until the
// operator confirms) and only then lets the client proceed.
func (c *ExecClient) runInteractive(ctx context.Context, args []string, present func(context.Context, TXTRecord) error) (*Invocation, error) {
	if present == nil {
		return nil, fmt.Errorf("%w: manual challenge requires a confirmation callback", ErrChallengeAborted)
	}

	cmd, full := c.command(ctx, args)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdout pipe: %w", err)
	}

	var buf bytes.Buffer
	var bufMu sync.Mutex
	cmd.Stderr = &stderrTee{buf: &buf, mu: &bufMu}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.cfg.Binary, err)
	}

	var presentErr error
	scanner := bufio.NewScanner(stdout)
	var rec TXTRecord
	expect := ""

	for scanner.Scan() {
		line := scanner.Text()
		bufMu.Lock()
		buf.WriteString(line + "\n")
		bufMu.Unlock()

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(trimmed, "DNS TXT record under the name"):
			expect = "name"
		case strings.Contains(trimmed, "with the following value"):
			expect = "value"
		case strings.Contains(trimmed, "Press Enter to Continue"):
			if rec.Name != "" && rec.Value != "" && presentErr == nil {
				presentErr = present(ctx, rec)
			}
			if presentErr != nil {
				_ = stdin.Close()
				_ = cmd.Process.Kill()
			} else {
				_, _ = io.WriteString(stdin, "\n")
			}
			rec = TXTRecord{}
		case trimmed != "" && expect == "name":
			rec.Name = strings.TrimSuffix(strings.TrimSuffix(trimmed, ":"), ".")
			expect = ""
		case trimmed != "" && expect == "value":
			rec.Value = trimmed
			expect = ""
		}
	}

	waitErr := cmd.Wait()

	bufMu.Lock()
	inv := &Invocation{Args: full, Output: buf.String()}
	bufMu.Unlock()

	if presentErr != nil {
		return inv, fmt.Errorf("%w: %w", ErrChallengeAborted, presentErr)
	}
	if waitErr != nil {
		inv.ExitCode = exitCode(waitErr)
		return inv, fmt.Errorf("%w: %s exited %d", ErrClientFailed, c.cfg.Binary, inv.ExitCode)
	}
	return inv, nil
}

// stderrTee appends stderr into the shared capture buffer under its lock.
type stderrTee struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (t *stderrTee) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Write(p)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

package issuance

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// PreflightCheck is one advisory environment check.
type PreflightCheck struct {
	Name   string
	Passed bool
	Detail string
}

// PreflightReport collects the advisory checks run before submission. The
// checks never block on their own; a failed report aborts the flow unless the
// operator acknowledged it.
type PreflightReport struct {
	Checks []PreflightCheck
}

// Passed reports whether every check passed.
func (r *PreflightReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failed checks as "name: detail" strings.
func (r *PreflightReport) Failures() []string {
	var out []string
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c.Name+": "+c.Detail)
		}
	}
	return out
}

func (r *PreflightReport) add(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, PreflightCheck{Name: name, Passed: passed, Detail: detail})
}

// preflight runs the advisory environment checks. For HTTP-01 with the host
// web server up it also returns the webroot to serve the challenge from.
// Checks a dependency is missing for are skipped, not failed.
func (o *Orchestrator) preflight(ctx context.Context, req Request) (*PreflightReport, string) {
	report := &PreflightReport{}
	webroot := ""

	if req.Challenge == ChallengeHTTP01 && o.web != nil {
		webUp := o.web.Installed() && o.web.Active(ctx)
		switch {
		case !o.web.Installed():
			report.add("web_server", false, "not installed")
		case !webUp:
			report.add("web_server", false, "installed but not active")
		default:
			report.add("web_server", true, "")
			webroot = o.web.DocumentRoot()
		}

		if webUp && o.probePort != nil {
			if o.probePort(ctx, "127.0.0.1:80") {
				report.add("port_80", true, "")
			} else {
				report.add("port_80", false, "nothing listening on port 80")
			}
		}
	}

	if o.resolver != nil {
		for _, d := range req.Domains {
			host := strings.TrimPrefix(d, "*.")
			addrs, err := o.resolver.LookupHost(ctx, host)
			switch {
			case err != nil:
				report.add("dns:"+d, false, err.Error())
			case len(addrs) == 0:
				report.add("dns:"+d, false, "no A or AAAA record")
			case o.hostIP != "" && !contains(addrs, o.hostIP):
				report.add("dns:"+d, false,
					fmt.Sprintf("resolves to %s, host is %s", strings.Join(addrs, ","), o.hostIP))
			default:
				report.add("dns:"+d, true, "")
			}
		}
	}

	return report, webroot
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

// dialProbe is the default port probe: a short TCP connect.
func dialProbe(ctx context.Context, addr string) bool {
	d := net.Dialer{Timeout: 2 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

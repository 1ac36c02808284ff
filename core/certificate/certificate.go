package certificate

import (
	"math"
	"strings"
	"time"

	"github.com/certward/certward/core/status"
)

// Source tells which store owns a certificate.
type Source string

const (
	// SourceACME marks certificates managed by the external ACME client.
	SourceACME Source = "acme"
	// SourceCustom marks operator-imported certificate bundles.
	SourceCustom Source = "custom"
)

// Type describes the domain coverage of a certificate.
type Type string

const (
	TypeSingle   Type = "single"
	TypeSAN      Type = "SAN"
	TypeWildcard Type = "wildcard"
)

// Certificate is a point-in-time view of one inventory entry. It is re-derived
// from the filesystem on every listing and never cached as independent truth.
type Certificate struct {
	// Name is the stable identity: the primary domain for ACME certificates,
	// the import label for custom ones.
	Name string `json:"name"`

	// Domains is the ordered, deduplicated union of the subject CN and all
	// DNS SAN entries. Always non-empty for a parsed certificate.
	Domains []string `json:"domains"`

	// Issuer is the raw issuer string from the leaf certificate.
	Issuer string `json:"issuer"`

	// CA is the issuer normalized to a known CA display name, or the raw
	// issuer (truncated) when no known CA matches.
	CA string `json:"ca"`

	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`

	// DaysLeft is the whole number of days until NotAfter, negative once the
	// certificate has expired.
	DaysLeft int `json:"days_left"`

	// Status is derived via status.Classify and never persisted.
	Status status.Status `json:"status"`

	Type   Type   `json:"type"`
	Source Source `json:"source"`

	// Path points at the full chain file the record was parsed from.
	Path string `json:"path"`
}

// Wildcard reports whether any covered domain is a wildcard entry.
func (c Certificate) Wildcard() bool {
	return c.Type == TypeWildcard
}

// Covers reports whether the certificate covers the given hostname, honoring
// single-label wildcard matching.
func (c Certificate) Covers(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, d := range c.Domains {
		d = strings.ToLower(d)
		if d == host {
			return true
		}
		if base, ok := strings.CutPrefix(d, "*."); ok {
			if rest, ok := strings.CutSuffix(host, "."+base); ok && rest != "" && !strings.Contains(rest, ".") {
				return true
			}
		}
	}
	return false
}

// TypeOf derives the certificate type from its domain set: wildcard wins over
// SAN, SAN over single.
func TypeOf(domains []string) Type {
	for _, d := range domains {
		if strings.HasPrefix(d, "*.") {
			return TypeWildcard
		}
	}
	if len(domains) > 1 {
		return TypeSAN
	}
	return TypeSingle
}

// DaysUntil returns the whole number of days from now until t, rounding down
// so that any moment past expiry counts as a negative day.
func DaysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

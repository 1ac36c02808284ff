package certificate

import (
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"

	"github.com/certward/certward/core/status"
)

// ParseFile decodes a PEM certificate file into a Certificate record. The
// first certificate in the bundle is treated as the leaf; any following
// certificates are the chain and only the leaf is inspected.
//
// The returned record carries parse-derived fields plus DaysLeft relative to
// now. Status, Source and Name are assigned by the caller (the inventory or
// the import workflow), which knows the thresholds and the owning store.
func ParseFile(path string, now time.Time) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrParse, path, err)
	}
	return parse(data, path, now)
}

// Parse decodes an in-memory PEM bundle. Used by the import workflow before
// anything is written to disk.
func Parse(pemBundle []byte, now time.Time) (*Certificate, error) {
	return parse(pemBundle, "", now)
}

func parse(pemBundle []byte, path string, now time.Time) (*Certificate, error) {
	certs, err := certcrypto.ParsePEMBundle(pemBundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, pathOrInline(path), err)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: %s: no certificate block found", ErrParse, pathOrInline(path))
	}
	leaf := certs[0]

	domains := domainSet(leaf)
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDomains, pathOrInline(path))
	}

	issuer := issuerString(leaf)
	c := &Certificate{
		Name:      domains[0],
		Domains:   domains,
		Issuer:    issuer,
		CA:        NormalizeIssuer(issuer),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
		DaysLeft:  DaysUntil(leaf.NotAfter, now),
		Type:      TypeOf(domains),
		Path:      path,
	}
	return c, nil
}

// domainSet merges the subject CN with the DNS SAN entries, CN first,
// preserving SAN order and dropping duplicates.
func domainSet(leaf *x509.Certificate) []string {
	seen := make(map[string]struct{}, len(leaf.DNSNames)+1)
	var out []string

	add := func(d string) {
		if d == "" {
			return
		}
		if _, dup := seen[d]; dup {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}

	add(leaf.Subject.CommonName)
	for _, d := range leaf.DNSNames {
		add(d)
	}
	return out
}

func issuerString(leaf *x509.Certificate) string {
	if leaf.Issuer.CommonName != "" {
		if len(leaf.Issuer.Organization) > 0 && leaf.Issuer.Organization[0] != leaf.Issuer.CommonName {
			return leaf.Issuer.Organization[0] + " " + leaf.Issuer.CommonName
		}
		return leaf.Issuer.CommonName
	}
	return leaf.Issuer.String()
}

func pathOrInline(path string) string {
	if path == "" {
		return "inline bundle"
	}
	return path
}

// ClassifyWith fills Status from the given thresholds. Kept as a method so
// every consumer derives status through the same classifier.
func (c *Certificate) ClassifyWith(t status.Thresholds) {
	c.Status = status.Classify(c.DaysLeft, t)
}

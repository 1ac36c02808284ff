package ca

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-acme/lego/v4/lego"
)

// ID identifies a certificate authority in the catalogue. The set is closed:
// unknown values fail Resolve instead of being matched by substring at call
// sites.
type ID string

const (
	LetsEncrypt        ID = "lets_encrypt"
	LetsEncryptStaging ID = "lets_encrypt_staging"
	ZeroSSL            ID = "zerossl"
	Buypass            ID = "buypass"
	BuypassStaging     ID = "buypass_staging"
	GoogleTrust        ID = "google_trust"
)

// ErrUnknownCA is returned when an ID is not present in the catalogue.
var ErrUnknownCA = errors.New("unknown certificate authority")

// Authority is an immutable catalogue entry for a supported CA.
type Authority struct {
	ID           ID
	Name         string
	DirectoryURL string // empty means the ACME client's built-in default
	ValidityDays int
	Description  string
	Staging      bool
}

var catalogue = map[ID]Authority{
	LetsEncrypt: {
		ID:           LetsEncrypt,
		Name:         "Let's Encrypt",
		DirectoryURL: lego.LEDirectoryProduction,
		ValidityDays: 90,
		Description:  "Free, automated CA operated by ISRG. Default choice.",
	},
	LetsEncryptStaging: {
		ID:           LetsEncryptStaging,
		Name:         "Let's Encrypt (staging)",
		DirectoryURL: lego.LEDirectoryStaging,
		ValidityDays: 90,
		Description:  "Staging endpoint for testing. Certificates are not trusted by relying parties.",
		Staging:      true,
	},
	ZeroSSL: {
		ID:           ZeroSSL,
		Name:         "ZeroSSL",
		DirectoryURL: "https://acme.zerossl.com/v2/DV90",
		ValidityDays: 90,
		Description:  "Free ACME CA with an optional dashboard; requires external account binding for some plans.",
	},
	Buypass: {
		ID:           Buypass,
		Name:         "Buypass",
		DirectoryURL: "https://api.buypass.com/acme/directory",
		ValidityDays: 180,
		Description:  "Norwegian CA offering 180-day certificates.",
	},
	BuypassStaging: {
		ID:           BuypassStaging,
		Name:         "Buypass (staging)",
		DirectoryURL: "https://api.test4.buypass.no/acme/directory",
		ValidityDays: 180,
		Description:  "Buypass test endpoint. Certificates are not trusted by relying parties.",
		Staging:      true,
	},
	GoogleTrust: {
		ID:           GoogleTrust,
		Name:         "Google Trust Services",
		DirectoryURL: "https://dv.acme-v02.api.pki.goog/directory",
		ValidityDays: 90,
		Description:  "Google's public ACME CA; requires external account binding.",
	},
}

// Resolve returns the catalogue entry for id.
func Resolve(id ID) (Authority, error) {
	a, ok := catalogue[id]
	if !ok {
		return Authority{}, fmt.Errorf("%w: %q", ErrUnknownCA, id)
	}
	return a, nil
}

// Default resolves the operator's preferred CA, falling back to Let's Encrypt
// production when the preference is empty, unknown, or points at a staging
// endpoint. A staging CA is never selected implicitly.
func Default(preferred ID) Authority {
	if a, err := Resolve(preferred); err == nil && !a.Staging {
		return a
	}
	return catalogue[LetsEncrypt]
}

// Production returns all non-staging authorities, sorted by name. Staging
// entries stay resolvable by explicit ID but are excluded from any listing
// that implies relying-party trust.
func Production() []Authority {
	out := make([]Authority, 0, len(catalogue))
	for _, a := range catalogue {
		if !a.Staging {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every catalogue entry, staging included, sorted by name.
func All() []Authority {
	out := make([]Authority, 0, len(catalogue))
	for _, a := range catalogue {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

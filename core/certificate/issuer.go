package certificate

import "strings"

// issuerTable maps issuer-string fragments to normalized CA display names.
// Matching is an explicit ordered table rather than ad hoc substring checks
// scattered across call sites; first match wins.
var issuerTable = []struct {
	fragment string
	name     string
}{
	{"let's encrypt", "Let's Encrypt"},
	{"lets encrypt", "Let's Encrypt"},
	{"(staging)", "Let's Encrypt (staging)"},
	{"zerossl", "ZeroSSL"},
	{"buypass", "Buypass"},
	{"digicert", "DigiCert"},
	{"sectigo", "Sectigo"},
	{"globalsign", "GlobalSign"},
	{"google trust services", "Google Trust Services"},
}

// maxIssuerDisplay bounds how much of an unrecognized issuer string is kept
// for display.
const maxIssuerDisplay = 40

// NormalizeIssuer maps a raw issuer string to a known CA display name.
// Unmatched issuers are preserved verbatim, truncated for display.
func NormalizeIssuer(issuer string) string {
	lower := strings.ToLower(issuer)
	for _, e := range issuerTable {
		if strings.Contains(lower, e.fragment) {
			return e.name
		}
	}
	return truncate(strings.TrimSpace(issuer), maxIssuerDisplay)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

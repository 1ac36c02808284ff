// Package certificate parses PEM certificate files into structured inventory
// records.
//
// A record carries the ordered domain set (subject CN merged with DNS SANs),
// the raw and normalized issuer, the validity window and the derived days
// until expiry. Parsing never fails silently: unreadable files, malformed PEM
// and empty bundles all surface as ErrParse so the inventory can report them
// as anomalies instead of dropping them.
//
//	cert, err := certificate.ParseFile("/etc/certward/acme/example.com/fullchain.pem", time.Now())
//	if err != nil {
//		// reported as an inventory anomaly, not omitted
//	}
//	cert.ClassifyWith(status.DefaultThresholds())
//
// Issuer normalization is an explicit lookup table (see NormalizeIssuer)
// covering the CAs the lifecycle manager knows about; anything else is kept
// verbatim and truncated for display.
package certificate

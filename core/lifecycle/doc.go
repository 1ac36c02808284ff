// Package lifecycle manages certificates after issuance: renewal and
// revocation through the external ACME client, operator imports into the
// custom store, and deletion.
//
// Source boundaries are hard. Only ACME-managed certificates can be renewed
// or revoked here; an imported certificate gets ErrNotRenewable or
// ErrNotSupported with zero state change. Imports validate in order (name,
// certificate, key, pair match) and are staged then renamed, so a failed
// import leaves both stores exactly as they were.
package lifecycle

// Package acme is the boundary to the external ACME client.
//
// The lifecycle core does not implement the ACME protocol. Certificates are
// obtained, renewed and revoked by shelling out to a certbot-compatible
// binary; the exit status and the combined stdout/stderr are captured
// verbatim and surfaced as opaque diagnostics on failure.
//
// Manual DNS-01 challenges drive the client's interactive dialogue: the TXT
// record the client prints is parsed into a TXTRecord and handed to a
// blocking confirmation callback before the client is allowed to proceed.
// The callback returning an error aborts the run before submission.
package acme

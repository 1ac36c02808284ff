// Package issuance orchestrates obtaining a certificate: request validation,
// environment preflight, CA selection, challenge selection, per-domain
// locking and the external ACME client invocation, in that order.
//
// Failures carry the stage they happened in as a StageError, so the operator
// sees which step to fix. The hard rules hold before any external call:
// a request with a wildcard domain and anything other than DNS-01 is
// rejected, and domains stay locked for the whole client invocation.
//
// Preflight is advisory: every check result lands in the PreflightReport,
// and a failing report stops the flow only when the request did not
// acknowledge it.
package issuance

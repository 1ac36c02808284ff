// Package certward wires the certificate lifecycle manager together: the
// dual-store inventory, the issuance orchestrator, renewal, revocation and
// import workflows, and expiry alerting.
//
// The package root holds process configuration and the App service graph;
// the behavior lives in the sub-packages:
//
//   - core/certificate, core/status, core/inventory: parse, classify and
//     enumerate certificates from the ACME and custom stores
//   - core/ca, core/dnsprovider: the CA catalogue and DNS provider registry
//   - core/issuance, core/lifecycle: obtain, renew, revoke, import, delete
//   - core/settings, core/history, core/alerts: operator config, the
//     append-only event log, and expiry notifications
//   - integration/acme: the external certbot-compatible client boundary
//   - integration/webserver, integration/tlsaudit: nginx reloads and the
//     post-deployment TLS audit
//
// Certificates on disk are the single source of truth: every listing is
// recomputed from the stores, and status is re-derived from the current
// thresholds on each read.
package certward

// Package tlsaudit runs an external TLS configuration audit against a live
// host after deployment. The client drives the SSL Labs analyze API with a
// bounded polling loop: a fixed number of attempts at a fixed interval, after
// which the audit is abandoned with ErrAuditTimeout rather than hanging an
// operator session on a slow scan.
package tlsaudit

// Package dnsprovider manages DNS provider credentials for DNS-01 challenges.
//
// The provider set is a closed catalogue (Cloudflare, DigitalOcean, Hetzner,
// Vultr, Gandi). Configuring a provider validates its required credential
// fields, optionally runs a read-only authenticated capability probe against
// the vendor API, and persists a credentials file with owner-only permissions
// in the format the external ACME client's DNS plugin expects. On any
// validation or probe failure nothing is written.
//
// At most one provider is active at a time. This is an enforced invariant:
// configuring a second provider fails with ErrProviderConflict unless the
// caller explicitly replaces the active one. ResolveForDomain therefore
// ignores its domain argument and returns the single active provider; a
// domain-to-provider map was considered and deliberately not adopted (see
// DESIGN.md).
package dnsprovider

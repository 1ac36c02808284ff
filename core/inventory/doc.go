// Package inventory derives the certificate inventory from the two on-disk
// stores: the ACME-managed directory and the custom-import directory.
//
// The inventory is never cached. Every ListAll call re-reads both stores,
// parses each entry, tags it with its owning source and classifies it with
// the thresholds currently persisted in settings. Issuance and import
// workflows write into the stores; the next ListAll reflects the change.
//
// Entries that fail to parse are returned as anomalies rather than omitted,
// and a name owned by both stores at once is surfaced as a collision warning.
// The snapshot is sorted soonest-expiring first.
package inventory

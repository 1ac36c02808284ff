// Package settings persists the operator configuration that shapes every
// other workflow: classification thresholds, the default CA, alert channels
// and renewal hooks.
//
// The store is a single JSON document with asymmetric durability rules.
// Load never fails on a missing or corrupt file: it logs and falls back to
// defaults, because a damaged config must not block reading the inventory.
// Save is strict: it validates the full document and writes atomically, so
// invalid settings can be read (as defaults) but never persisted.
package settings

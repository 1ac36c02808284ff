package dnsprovider

import "errors"

var (
	// ErrUnknownProvider is returned for an ID outside the catalogue.
	ErrUnknownProvider = errors.New("unknown DNS provider")

	// ErrMissingField is returned when a required credential field is absent
	// or empty. Nothing is written in that case.
	ErrMissingField = errors.New("missing credential field")

	// ErrCapabilityTest is returned when the provider's read-only capability
	// probe fails with the supplied credentials.
	ErrCapabilityTest = errors.New("provider capability test failed")

	// ErrProviderConflict is returned when configuring a provider while a
	// different one is active. The single-active-provider model is an
	// enforced invariant, not a silent last-write-wins.
	ErrProviderConflict = errors.New("another DNS provider is already configured")

	// ErrNoProvider is returned when no provider is configured.
	ErrNoProvider = errors.New("no DNS provider configured")
)

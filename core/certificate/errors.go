package certificate

import "errors"

var (
	// ErrParse is returned when a certificate file cannot be decoded: the file
	// is unreadable, contains no certificate block, or the PEM is malformed.
	ErrParse = errors.New("certificate parse failed")

	// ErrNoDomains is returned when a parsed certificate carries neither a
	// subject CN nor any DNS SAN entry.
	ErrNoDomains = errors.New("certificate covers no domains")
)

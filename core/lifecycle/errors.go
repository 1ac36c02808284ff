package lifecycle

import "errors"

var (
	// ErrNotRenewable is returned when renewal is requested for a certificate
	// the external ACME client does not manage.
	ErrNotRenewable = errors.New("certificate is not renewable")

	// ErrNotSupported is returned when revocation is requested for an
	// imported certificate. The operation changes nothing.
	ErrNotSupported = errors.New("operation not supported for imported certificates")

	// ErrKeyMismatch is returned when the supplied private key does not pair
	// with the certificate's public key. Nothing is written.
	ErrKeyMismatch = errors.New("private key does not match certificate")

	// ErrInvalidImport is returned when the import material fails validation.
	ErrInvalidImport = errors.New("invalid import material")

	// ErrAlreadyExists is returned when an import would overwrite an existing
	// entry without Overwrite set.
	ErrAlreadyExists = errors.New("certificate name already exists")

	// ErrHookFailed is returned when a renewal pre or post hook exits nonzero.
	ErrHookFailed = errors.New("renewal hook failed")
)

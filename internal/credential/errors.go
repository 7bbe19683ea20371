package credential

import (
	"errors"
	"fmt"
)

// Sentinel errors for credential load failures. These can be checked with
// errors.Is() for programmatic handling.
var (
	// ErrMalformedPEM indicates PEM input with no certificate, no private
	// key, or more than one private key.
	ErrMalformedPEM = errors.New("malformed PEM input")

	// ErrInvalidPassphrase indicates a PKCS#12 container that could not be
	// decrypted with the supplied passphrase.
	ErrInvalidPassphrase = errors.New("invalid passphrase")

	// ErrUnsupportedAlgorithm indicates a PKCS#12 container using a cipher
	// or digest this implementation does not support.
	ErrUnsupportedAlgorithm = errors.New("unsupported container algorithm")

	// ErrKeyMismatch indicates a private key that does not match the leaf
	// certificate's public key.
	ErrKeyMismatch = errors.New("private key does not match leaf certificate")

	// ErrEmptyToken indicates an empty bearer token.
	ErrEmptyToken = errors.New("bearer token is empty")

	// ErrInvalidCABundle indicates CA trust material that contains no
	// parseable certificate.
	ErrInvalidCABundle = errors.New("CA bundle contains no certificates")
)

// LoadError carries context about which input failed to load. It wraps one
// of the sentinel errors above.
type LoadError struct {
	Format Format
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("loading %s credential: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("loading %s credential: %v", e.Format, e.Err)
}

// Unwrap returns the underlying sentinel error for use with errors.Is().
func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(format Format, reason string, err error) error {
	return &LoadError{Format: format, Reason: reason, Err: err}
}

package credential

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"

	"golang.org/x/crypto/pkcs12"
)

// loadPKCS12 decrypts a PKCS#12 container and extracts the leaf
// certificate, any intermediate chain, and the private key. An empty
// passphrase is a valid passphrase.
func loadPKCS12(raw []byte, passphrase string) (Credential, error) {
	blocks, err := pkcs12.ToPEM(raw, passphrase)
	if err != nil {
		return Credential{}, mapPKCS12Error(err)
	}

	var certs []*x509.Certificate
	var key crypto.Signer
	for _, block := range blocks {
		switch block.Type {
		case pemTypeCertificate:
			cert, parseErr := x509.ParseCertificate(block.Bytes)
			if parseErr != nil {
				return Credential{}, loadErr(FormatPKCS12, "parsing certificate bag", parseErr)
			}
			certs = append(certs, cert)
		case pemTypePrivateKey, pemTypeRSAPrivateKey, pemTypeECPrivateKey:
			if key != nil {
				return Credential{}, loadErr(FormatPKCS12, "multiple key bags", ErrMalformedPEM)
			}
			parsed, parseErr := parsePrivateKeyDER(block.Bytes)
			if parseErr != nil {
				return Credential{}, loadErr(FormatPKCS12, "parsing key bag", parseErr)
			}
			key = parsed
		}
	}

	if len(certs) == 0 {
		return Credential{}, loadErr(FormatPKCS12, "container holds no certificate", ErrMalformedPEM)
	}
	if key == nil {
		return Credential{}, loadErr(FormatPKCS12, "container holds no private key", ErrMalformedPEM)
	}

	// Bag order inside a container is arbitrary. The leaf is the
	// certificate whose public key matches the private key; everything
	// else is chain material.
	ordered := make([]*x509.Certificate, 0, len(certs))
	leafIdx := -1
	for i, cert := range certs {
		if publicKeysMatch(cert, key) {
			leafIdx = i
			break
		}
	}
	if leafIdx < 0 {
		return Credential{}, loadErr(FormatPKCS12, "", ErrKeyMismatch)
	}
	ordered = append(ordered, certs[leafIdx])
	for i, cert := range certs {
		if i != leafIdx {
			ordered = append(ordered, cert)
		}
	}

	return assemble(FormatPKCS12, ordered, key)
}

// mapPKCS12Error translates x/crypto/pkcs12 failures into this package's
// taxonomy. Decryption failures and bad padding both mean the passphrase
// was wrong; unimplemented ciphers and digests are reported as such rather
// than being mistaken for a bad passphrase.
func mapPKCS12Error(err error) error {
	var notImpl pkcs12.NotImplementedError
	if errors.As(err, &notImpl) {
		return loadErr(FormatPKCS12, string(notImpl), ErrUnsupportedAlgorithm)
	}
	if errors.Is(err, pkcs12.ErrIncorrectPassword) || errors.Is(err, pkcs12.ErrDecryption) {
		return loadErr(FormatPKCS12, "", ErrInvalidPassphrase)
	}
	return loadErr(FormatPKCS12, "decoding container", fmt.Errorf("%w: %v", ErrMalformedPEM, err))
}

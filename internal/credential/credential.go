package credential

import (
	"crypto"
	"crypto/x509"
	"strings"
)

// Kind discriminates the credential union.
type Kind int

const (
	// Anonymous presents no client credential.
	Anonymous Kind = iota
	// BearerToken authenticates with an opaque token attached per request.
	BearerToken
	// ClientCertificate authenticates with an X.509 client certificate
	// presented during the TLS handshake.
	ClientCertificate
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case BearerToken:
		return "bearer-token"
	case ClientCertificate:
		return "client-certificate"
	default:
		return "anonymous"
	}
}

// Format is the caller-supplied hint for raw credential input.
type Format string

const (
	// FormatPEM is one or more PEM certificate blocks plus one private key.
	FormatPEM Format = "pem"
	// FormatPKCS12 is an encrypted PKCS#12 container.
	FormatPKCS12 Format = "pkcs12"
	// FormatToken is a verbatim bearer token.
	FormatToken Format = "token"
)

// Credential is the normalized, cluster-scoped credential record. The zero
// value is the anonymous credential.
type Credential struct {
	kind Kind

	token string

	// PEM-encoded leaf+chain and PKCS#8 key, the shape client-go's TLS
	// config consumes. Populated only for ClientCertificate.
	certPEM []byte
	keyPEM  []byte
	leaf    *x509.Certificate
}

// NewAnonymous returns the anonymous credential.
func NewAnonymous() Credential {
	return Credential{kind: Anonymous}
}

// NewBearerToken returns a bearer-token credential. The token is stored
// verbatim; the only validation is non-emptiness.
func NewBearerToken(token string) (Credential, error) {
	if strings.TrimSpace(token) == "" {
		return Credential{}, loadErr(FormatToken, "", ErrEmptyToken)
	}
	return Credential{kind: BearerToken, token: token}, nil
}

// Load normalizes raw credential input according to the format hint.
// The passphrase is only consulted for PKCS#12 input; an empty string is a
// valid passphrase there.
func Load(raw []byte, format Format, passphrase string) (Credential, error) {
	switch format {
	case FormatPEM:
		return loadPEM(raw)
	case FormatPKCS12:
		return loadPKCS12(raw, passphrase)
	case FormatToken:
		return NewBearerToken(strings.TrimSpace(string(raw)))
	default:
		return Credential{}, loadErr(format, "unknown format hint", ErrMalformedPEM)
	}
}

// Kind returns the credential kind.
func (c Credential) Kind() Kind { return c.kind }

// Token returns the bearer token, or "" for other kinds.
func (c Credential) Token() string { return c.token }

// CertificatePEM returns the PEM-encoded certificate chain (leaf first),
// or nil for other kinds.
func (c Credential) CertificatePEM() []byte { return c.certPEM }

// KeyPEM returns the PEM-encoded PKCS#8 private key, or nil for other kinds.
func (c Credential) KeyPEM() []byte { return c.keyPEM }

// Leaf returns the parsed leaf certificate, or nil for other kinds.
func (c Credential) Leaf() *x509.Certificate { return c.leaf }

// publicKeysMatch reports whether the signer's public key equals the leaf
// certificate's public key.
func publicKeysMatch(leaf *x509.Certificate, signer crypto.Signer) bool {
	pub, ok := leaf.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return false
	}
	return pub.Equal(signer.Public())
}

// ValidateCABundle checks that pemBundle contains at least one parseable
// certificate. It returns ErrInvalidCABundle otherwise. The bundle itself
// is returned unmodified so callers can pass it straight to the TLS layer.
func ValidateCABundle(pemBundle []byte) ([]byte, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBundle) {
		return nil, ErrInvalidCABundle
	}
	return pemBundle, nil
}

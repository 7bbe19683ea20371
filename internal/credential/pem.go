package credential

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const (
	pemTypeCertificate   = "CERTIFICATE"
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
	pemTypeECPrivateKey  = "EC PRIVATE KEY"
)

// loadPEM parses PEM input holding one or more certificate blocks and
// exactly one private key block. The first certificate is the leaf; the
// rest are treated as the intermediate chain.
func loadPEM(raw []byte) (Credential, error) {
	certs, key, err := parsePEMBlocks(raw)
	if err != nil {
		return Credential{}, err
	}
	return assemble(FormatPEM, certs, key)
}

// parsePEMBlocks walks all PEM blocks in raw, collecting certificates and
// the single private key.
func parsePEMBlocks(raw []byte) ([]*x509.Certificate, crypto.Signer, error) {
	var certs []*x509.Certificate
	var key crypto.Signer

	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		switch block.Type {
		case pemTypeCertificate:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, nil, loadErr(FormatPEM, "parsing certificate block", fmt.Errorf("%w: %v", ErrMalformedPEM, err))
			}
			certs = append(certs, cert)
		case pemTypePrivateKey, pemTypeRSAPrivateKey, pemTypeECPrivateKey:
			if key != nil {
				return nil, nil, loadErr(FormatPEM, "multiple private keys", ErrMalformedPEM)
			}
			parsed, err := parsePrivateKeyDER(block.Bytes)
			if err != nil {
				return nil, nil, loadErr(FormatPEM, "parsing private key block", fmt.Errorf("%w: %v", ErrMalformedPEM, err))
			}
			key = parsed
		}
	}

	if len(certs) == 0 {
		return nil, nil, loadErr(FormatPEM, "no certificate found", ErrMalformedPEM)
	}
	if key == nil {
		return nil, nil, loadErr(FormatPEM, "no private key found", ErrMalformedPEM)
	}
	return certs, key, nil
}

// parsePrivateKeyDER tries the three DER private key encodings in the wild:
// PKCS#8, PKCS#1 (RSA), and SEC 1 (EC). PKCS#12 extraction re-encodes RSA
// keys as PKCS#1 and EC keys as SEC 1 under a generic "PRIVATE KEY" header,
// so the block type cannot be trusted to pick the parser.
func parsePrivateKeyDER(der []byte) (crypto.Signer, error) {
	if k, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		signer, ok := k.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("PKCS#8 key of type %T cannot sign", k)
		}
		return signer, nil
	}
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(der); err == nil {
		return k, nil
	}
	return nil, fmt.Errorf("unrecognized private key encoding")
}

// assemble builds the normalized credential from parsed parts, verifying
// the key/leaf match and re-encoding to the PEM shape the TLS layer wants.
func assemble(format Format, certs []*x509.Certificate, key crypto.Signer) (Credential, error) {
	leaf := certs[0]
	if !publicKeysMatch(leaf, key) {
		return Credential{}, loadErr(format, "", ErrKeyMismatch)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return Credential{}, loadErr(format, "re-encoding private key", err)
	}

	var certPEM []byte
	for _, cert := range certs {
		certPEM = append(certPEM, pem.EncodeToMemory(&pem.Block{Type: pemTypeCertificate, Bytes: cert.Raw})...)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: keyDER})

	return Credential{
		kind:    ClientCertificate,
		certPEM: certPEM,
		keyPEM:  keyPEM,
		leaf:    leaf,
	}, nil
}

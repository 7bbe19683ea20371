package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/giantswarm/knav/internal/credential"
	"github.com/giantswarm/knav/internal/session"
)

// Endpoints loads the credential material referenced by every cluster
// entry and returns connectable endpoints in configuration order. Any
// unreadable or malformed credential fails the whole build: a cluster is
// never silently downgraded to anonymous.
func (c *Config) Endpoints() ([]session.Endpoint, error) {
	endpoints := make([]session.Endpoint, 0, len(c.Clusters))
	for i := range c.Clusters {
		ep, err := c.Clusters[i].endpoint()
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

func (c *Cluster) endpoint() (session.Endpoint, error) {
	cred, err := c.credential()
	if err != nil {
		return session.Endpoint{}, fmt.Errorf("cluster %q: %w", c.Name, err)
	}

	caData, err := c.caBundle()
	if err != nil {
		return session.Endpoint{}, fmt.Errorf("cluster %q: %w", c.Name, err)
	}

	return session.Endpoint{
		Name:               c.Name,
		Server:             c.Server,
		CAData:             caData,
		InsecureSkipVerify: c.InsecureSkipTLSVerify,
		Credential:         cred,
	}, nil
}

func (c *Cluster) credential() (credential.Credential, error) {
	switch {
	case c.Token != "":
		return credential.NewBearerToken(c.Token)

	case c.TokenFile != "":
		raw, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("reading token file: %w", err)
		}
		return credential.NewBearerToken(strings.TrimSpace(string(raw)))

	case c.ClientCertificate != "":
		raw, err := os.ReadFile(c.ClientCertificate)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("reading client certificate: %w", err)
		}
		if c.ClientKey != "" {
			key, keyErr := os.ReadFile(c.ClientKey)
			if keyErr != nil {
				return credential.Credential{}, fmt.Errorf("reading client key: %w", keyErr)
			}
			raw = append(raw, '\n')
			raw = append(raw, key...)
		}
		return credential.Load(raw, credential.FormatPEM, "")

	case c.PKCS12File != "":
		raw, err := os.ReadFile(c.PKCS12File)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("reading pkcs12 bundle: %w", err)
		}
		passphrase, err := c.pkcs12Passphrase()
		if err != nil {
			return credential.Credential{}, err
		}
		return credential.Load(raw, credential.FormatPKCS12, passphrase)

	default:
		return credential.NewAnonymous(), nil
	}
}

func (c *Cluster) pkcs12Passphrase() (string, error) {
	if c.PKCS12PassphraseFile == "" {
		return c.PKCS12Passphrase, nil
	}
	raw, err := os.ReadFile(c.PKCS12PassphraseFile)
	if err != nil {
		return "", fmt.Errorf("reading pkcs12 passphrase file: %w", err)
	}
	// Trim only the trailing newline; passphrases may contain spaces.
	return strings.TrimRight(string(raw), "\r\n"), nil
}

// caBundle resolves the CA source: a file path, or inline base64-encoded
// PEM following the kubeconfig convention.
func (c *Cluster) caBundle() ([]byte, error) {
	switch {
	case c.CertificateAuthority != "":
		raw, err := os.ReadFile(c.CertificateAuthority)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		return raw, nil
	case c.CertificateAuthorityData != "":
		raw, err := base64.StdEncoding.DecodeString(c.CertificateAuthorityData)
		if err != nil {
			return nil, fmt.Errorf("decoding certificate-authority-data: %w", err)
		}
		return raw, nil
	default:
		return nil, nil
	}
}

package session

import (
	"fmt"
	"net/url"

	"github.com/giantswarm/knav/internal/credential"
)

// Endpoint describes one independently addressable cluster API server.
// Identity is the cluster name; endpoints share no mutable state.
type Endpoint struct {
	// Name is the cluster's identity within knav.
	Name string

	// Server is the base URL of the API server.
	Server string

	// CAData is a PEM bundle of trust anchors for server certificate
	// validation. Empty means the system roots.
	CAData []byte

	// InsecureSkipVerify disables server certificate validation entirely.
	// This is an explicit, user-requested downgrade and is never set as a
	// fallback from a CA parse failure.
	InsecureSkipVerify bool

	// Credential is presented to the server.
	Credential credential.Credential
}

// Validate checks the endpoint for configuration errors.
func (e Endpoint) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("endpoint has no cluster name")
	}
	if e.Server == "" {
		return fmt.Errorf("cluster %q has no server URL", e.Name)
	}
	u, err := url.Parse(e.Server)
	if err != nil {
		return fmt.Errorf("cluster %q has an invalid server URL: %w", e.Name, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("cluster %q server URL must be http(s), got %q", e.Name, u.Scheme)
	}
	if e.InsecureSkipVerify && len(e.CAData) > 0 {
		return fmt.Errorf("cluster %q sets both a CA bundle and insecure-skip-tls-verify", e.Name)
	}
	if len(e.CAData) > 0 {
		if _, err := credential.ValidateCABundle(e.CAData); err != nil {
			return fmt.Errorf("cluster %q: %w", e.Name, err)
		}
	}
	return nil
}

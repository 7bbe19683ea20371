package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// EnvConfigPath overrides the default configuration file location.
const EnvConfigPath = "KNAV_CONFIG"

// Sentinel errors for configuration loading.
var (
	// ErrNoClusters indicates a configuration with no cluster entries.
	ErrNoClusters = errors.New("configuration defines no clusters")

	// ErrConflictingCredentials indicates a cluster entry naming more than
	// one credential source.
	ErrConflictingCredentials = errors.New("cluster entry mixes credential sources")
)

// Config is the top-level configuration file.
type Config struct {
	// LogLevel is the minimum log level: debug, info, warn, or error.
	LogLevel string `json:"log-level,omitempty"`

	// Workers bounds concurrent sub-operations per command. Zero means
	// the built-in default.
	Workers int `json:"workers,omitempty"`

	Clusters []Cluster `json:"clusters"`
}

// Cluster is one cluster entry.
type Cluster struct {
	Name   string `json:"name"`
	Server string `json:"server"`

	// CertificateAuthority is a path to a PEM CA bundle;
	// CertificateAuthorityData carries the bundle inline.
	CertificateAuthority     string `json:"certificate-authority,omitempty"`
	CertificateAuthorityData string `json:"certificate-authority-data,omitempty"`

	// InsecureSkipTLSVerify disables server certificate verification.
	// Explicit opt-out only; never implied.
	InsecureSkipTLSVerify bool `json:"insecure-skip-tls-verify,omitempty"`

	// Bearer token, inline or from a file.
	Token     string `json:"token,omitempty"`
	TokenFile string `json:"token-file,omitempty"`

	// PEM client certificate. ClientCertificate may contain both the
	// certificate chain and the key; a separate key file goes in
	// ClientKey.
	ClientCertificate string `json:"client-certificate,omitempty"`
	ClientKey         string `json:"client-key,omitempty"`

	// PKCS#12 client certificate bundle.
	PKCS12File           string `json:"pkcs12-file,omitempty"`
	PKCS12Passphrase     string `json:"pkcs12-passphrase,omitempty"`
	PKCS12PassphraseFile string `json:"pkcs12-passphrase-file,omitempty"`
}

// DefaultPath returns the configuration file location: $KNAV_CONFIG when
// set, otherwise ~/.knav/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".knav", "config.yaml"), nil
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates raw YAML configuration bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural consistency. Credential material is not
// loaded here; that happens when endpoints are built.
func (c *Config) Validate() error {
	if len(c.Clusters) == 0 {
		return ErrNoClusters
	}

	seen := make(map[string]bool, len(c.Clusters))
	for i := range c.Clusters {
		cl := &c.Clusters[i]
		if cl.Name == "" {
			return fmt.Errorf("cluster entry %d has no name", i)
		}
		if seen[cl.Name] {
			return fmt.Errorf("duplicate cluster name %q", cl.Name)
		}
		seen[cl.Name] = true

		if cl.Server == "" {
			return fmt.Errorf("cluster %q has no server", cl.Name)
		}
		if err := cl.validateCredentialSource(); err != nil {
			return err
		}
	}
	return nil
}

// validateCredentialSource enforces at most one credential source per
// entry.
func (c *Cluster) validateCredentialSource() error {
	sources := 0
	if c.Token != "" || c.TokenFile != "" {
		sources++
	}
	if c.ClientCertificate != "" || c.ClientKey != "" {
		sources++
	}
	if c.PKCS12File != "" {
		sources++
	}
	if sources > 1 {
		return fmt.Errorf("%w: cluster %q", ErrConflictingCredentials, c.Name)
	}
	if c.Token != "" && c.TokenFile != "" {
		return fmt.Errorf("%w: cluster %q sets both token and token-file", ErrConflictingCredentials, c.Name)
	}
	if c.ClientKey != "" && c.ClientCertificate == "" {
		return fmt.Errorf("cluster %q: client-key without client-certificate", c.Name)
	}
	if c.PKCS12Passphrase != "" && c.PKCS12PassphraseFile != "" {
		return fmt.Errorf("%w: cluster %q sets both pkcs12-passphrase and pkcs12-passphrase-file", ErrConflictingCredentials, c.Name)
	}
	if c.CertificateAuthority != "" && c.CertificateAuthorityData != "" {
		return fmt.Errorf("cluster %q sets both certificate-authority and certificate-authority-data", c.Name)
	}
	if c.InsecureSkipTLSVerify && (c.CertificateAuthority != "" || c.CertificateAuthorityData != "") {
		return fmt.Errorf("cluster %q: insecure-skip-tls-verify conflicts with a CA bundle", c.Name)
	}
	return nil
}

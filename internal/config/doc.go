// Package config loads the cluster configuration file and turns it into
// connectable endpoints.
//
// The file is YAML. Each cluster entry names exactly one credential
// source: a bearer token (inline or file), a PEM client certificate, or a
// PKCS#12 bundle. Entries with no credential source connect anonymously,
// but mixing sources in one entry is a configuration error rather than a
// pick-one; credentials are never silently downgraded.
package config

// Package credential normalizes raw credential material into the uniform
// in-memory form consumed by the session layer.
//
// Operators hand knav heterogeneous inputs: PEM certificate/key pairs,
// PKCS#12 containers exported from browsers or corporate PKI, bearer
// tokens, and CA bundles. Each load path converts to the same Credential
// value so the TLS layer never needs to know where the material came from.
//
// A credential is valid or rejected at load time, never "mostly loaded":
// in particular the private key is checked against the leaf certificate's
// public key here, so a mismatch can never surface later as an opaque
// handshake failure against a production cluster.
//
// Nothing in this package writes decrypted material to disk.
package credential

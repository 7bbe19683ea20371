// Package session owns one authenticated connection context per configured
// cluster.
//
// A Session binds an Endpoint (base URL, TLS trust policy, credential) to a
// constructed client-go transport. Sessions are created lazily by the
// Manager on first use of a cluster and live until process shutdown or an
// explicit disconnect; they are never silently recreated mid-command.
//
// The underlying transport is safe for concurrent use, so a dispatch may
// fan out any number of requests and streams over one session. Bearer
// tokens are attached per request rather than baked into the transport,
// which lets RotateToken swap credentials without tearing down
// connections.
package session

// Package logging provides slog attribute helpers used across knav.
//
// It defines the canonical attribute keys for cluster navigation and
// dispatch logging, and sanitization helpers that redact IP addresses
// from error text before it reaches the log stream. API server errors
// frequently embed endpoint addresses; logging them verbatim would leak
// network topology into shell transcripts that users paste elsewhere.
package logging

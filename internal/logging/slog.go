package logging

import (
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyVerb      = "verb"
	KeyCluster   = "cluster"
	KeyNamespace = "namespace"
	KeyKind      = "kind"
	KeyTarget    = "target"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyHost      = "host"
	KeyDuration  = "duration"
)

// Status values for consistent logging.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// ipv4Regex matches IPv4 addresses for sanitization.
var ipv4Regex = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// ipv6Regex matches IPv6 addresses for sanitization, including the
// bracketed form used in URLs ([2001:db8::1]).
var ipv6Regex = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)

// New constructs the process logger writing text records to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithCluster returns a logger with the cluster attribute set.
func WithCluster(logger *slog.Logger, cluster string) *slog.Logger {
	return logger.With(slog.String(KeyCluster, cluster))
}

// WithVerb returns a logger with the verb attribute set.
func WithVerb(logger *slog.Logger, verb string) *slog.Logger {
	return logger.With(slog.String(KeyVerb, verb))
}

// Verb returns a slog attribute for the dispatched verb.
func Verb(v string) slog.Attr {
	return slog.String(KeyVerb, v)
}

// Cluster returns a slog attribute for the cluster name.
func Cluster(name string) slog.Attr {
	return slog.String(KeyCluster, name)
}

// Namespace returns a slog attribute for the namespace.
func Namespace(ns string) slog.Attr {
	if ns == "" {
		ns = "*"
	}
	return slog.String(KeyNamespace, ns)
}

// Kind returns a slog attribute for the resource kind.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Target returns a slog attribute for a namespace/name target.
func Target(namespace, name string) slog.Attr {
	if namespace == "" {
		return slog.String(KeyTarget, name)
	}
	return slog.String(KeyTarget, namespace+"/"+name)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr returns a slog attribute for an error with IP addresses
// redacted. Use this for errors originating from API server responses.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, SanitizeHost(err.Error()))
}

// Host returns a slog attribute for a host with IP addresses sanitized.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

// SanitizeHost redacts IPv4 and IPv6 addresses in s, keeping hostnames
// intact. URL-shaped input keeps its scheme and path so log lines remain
// correlatable.
func SanitizeHost(s string) string {
	if s == "" {
		return s
	}

	if u, err := url.Parse(s); err == nil && u.Host != "" && strings.Contains(s, "://") {
		u.Host = sanitizeHostport(u.Host)
		return u.String()
	}

	s = ipv4Regex.ReplaceAllString(s, "REDACTED")
	s = ipv6Regex.ReplaceAllString(s, "REDACTED")
	return s
}

func sanitizeHostport(hostport string) string {
	host := hostport
	port := ""
	if i := strings.LastIndex(hostport, ":"); i > 0 && !strings.Contains(hostport[i:], "]") {
		host, port = hostport[:i], hostport[i:]
	}
	if ipv4Regex.MatchString(host) || ipv6Regex.MatchString(host) {
		return "REDACTED" + port
	}
	return hostport
}

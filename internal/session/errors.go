package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for session failures. These can be checked with
// errors.Is() for programmatic error handling.
var (
	// ErrUnknownCluster indicates a cluster name with no configured endpoint.
	ErrUnknownCluster = errors.New("unknown cluster")

	// ErrManagerClosed indicates the session manager has been closed and
	// can no longer hand out sessions.
	ErrManagerClosed = errors.New("session manager is closed")

	// ErrAuthenticationFailed indicates the server rejected the presented
	// credential. The session never retries anonymously.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrForbidden indicates the credential authenticated but lacks
	// permission for the operation.
	ErrForbidden = errors.New("operation forbidden")

	// ErrConnectFailed indicates the session could not be established,
	// typically a TLS or network failure.
	ErrConnectFailed = errors.New("failed to connect to cluster")

	// ErrNotBearer indicates a token rotation attempt on a session whose
	// credential is not a bearer token.
	ErrNotBearer = errors.New("session credential is not a bearer token")

	// ErrUnknownKind indicates a resource kind that neither the builtin
	// table nor server discovery could resolve.
	ErrUnknownKind = errors.New("unknown resource kind")
)

// ConnectError provides context about a session establishment failure.
type ConnectError struct {
	Cluster string
	Host    string
	Err     error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to cluster %q (%s): %v", e.Cluster, e.Host, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is().
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Is matches ConnectError against ErrConnectFailed.
func (e *ConnectError) Is(target error) bool {
	return target == ErrConnectFailed
}

// RequestError provides context about a failed API request. StatusCode is
// zero when the failure happened below the HTTP layer.
type RequestError struct {
	Cluster    string
	Method     string
	Path       string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s on cluster %q: HTTP %d: %v", e.Method, e.Path, e.Cluster, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s on cluster %q: %v", e.Method, e.Path, e.Cluster, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is().
func (e *RequestError) Unwrap() error {
	return e.Err
}

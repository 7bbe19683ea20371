package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Retry policy for idempotent requests. Mutating verbs are never
// auto-retried; a failure is surfaced directly.
const (
	requestRetryBudget    = 4
	requestRetryBaseDelay = 200 * time.Millisecond
)

// Response is a raw API server response body with its status code.
type Response struct {
	StatusCode int
	Body       []byte
}

// Request sends one HTTP request against the session's API server. GET and
// HEAD requests are retried on transient network errors with exponential
// backoff; all other methods get exactly one attempt.
func (s *Session) Request(ctx context.Context, method, path string, body []byte) (*Response, error) {
	attempt := func() (*Response, error) {
		resp, err := s.do(ctx, method, path, body)
		if err != nil {
			if isTransient(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}

	if !idempotent(method) {
		resp, err := s.do(ctx, method, path, body)
		if err != nil {
			return nil, s.requestErr(method, path, 0, err)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = requestRetryBaseDelay

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(requestRetryBudget),
	)
	if err != nil {
		return nil, s.requestErr(method, path, 0, err)
	}
	return resp, nil
}

// do performs a single attempt. Non-2xx statuses become errors carrying
// the status code; the server answered, so they are never retried.
func (s *Session) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	client, err := s.HTTPClient()
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(s.endpoint.Server, "/") + path
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportErr(s.endpoint.Name, s.endpoint.Server, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, s.requestErr(method, path, resp.StatusCode, statusErr(resp.StatusCode))
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (s *Session) requestErr(method, path string, status int, err error) error {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return err
	}
	return &RequestError{
		Cluster:    s.endpoint.Name,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Err:        err,
	}
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// statusErr maps HTTP statuses onto the session error taxonomy. A 401
// means the server rejected the credential; it is surfaced rather than
// downgraded to an anonymous retry.
func statusErr(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrAuthenticationFailed
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return errors.New(http.StatusText(code))
	}
}

// isTransient reports whether an error looks like a transient network
// failure worth retrying on a read: connection resets, timeouts, and
// truncated responses. TLS and certificate failures are not transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if apierrors.IsServerTimeout(err) || apierrors.IsTooManyRequests(err) || apierrors.IsTimeout(err) {
		return true
	}
	return false
}

// classifyTransportErr wraps dial-level failures as ConnectError so the
// caller can distinguish "could not reach the cluster" from "the cluster
// answered with an error".
func classifyTransportErr(cluster, host string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var certErr *net.OpError
	if errors.As(err, &certErr) || strings.Contains(err.Error(), "x509:") || strings.Contains(err.Error(), "tls:") {
		return &ConnectError{Cluster: cluster, Host: host, Err: err}
	}
	return err
}

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/knav/internal/credential"
)

func mustBearer(t *testing.T, token string) credential.Credential {
	t.Helper()
	cred, err := credential.NewBearerToken(token)
	require.NoError(t, err)
	return cred
}

func TestEndpointValidate(t *testing.T) {
	caPEM, err := os.ReadFile("../credential/testdata/ca.pem")
	require.NoError(t, err)

	tests := []struct {
		name     string
		endpoint Endpoint
		wantErr  string
	}{
		{
			name:     "missing name",
			endpoint: Endpoint{Server: "https://example.com"},
			wantErr:  "no cluster name",
		},
		{
			name:     "missing server",
			endpoint: Endpoint{Name: "alpha"},
			wantErr:  "no server URL",
		},
		{
			name:     "bad scheme",
			endpoint: Endpoint{Name: "alpha", Server: "ftp://example.com"},
			wantErr:  "must be http(s)",
		},
		{
			name: "CA bundle with insecure",
			endpoint: Endpoint{
				Name: "alpha", Server: "https://example.com",
				CAData: caPEM, InsecureSkipVerify: true,
			},
			wantErr: "both a CA bundle and insecure-skip-tls-verify",
		},
		{
			name: "garbage CA bundle",
			endpoint: Endpoint{
				Name: "alpha", Server: "https://example.com",
				CAData: []byte("not a certificate"),
			},
			wantErr: credential.ErrInvalidCABundle.Error(),
		},
		{
			name:     "valid with CA",
			endpoint: Endpoint{Name: "alpha", Server: "https://example.com:6443", CAData: caPEM},
		},
		{
			name:     "valid insecure",
			endpoint: Endpoint{Name: "alpha", Server: "https://example.com", InsecureSkipVerify: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.endpoint.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConnectRejectsInvalidEndpoint(t *testing.T) {
	_, err := Connect(Endpoint{Name: "alpha", Server: "ftp://example.com"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)
}

func TestBearerTokenAttachedAndRotated(t *testing.T) {
	var lastAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := Connect(Endpoint{
		Name:       "alpha",
		Server:     srv.URL,
		Credential: mustBearer(t, "token-one"),
	}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Request(context.Background(), http.MethodGet, "/api", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-one", lastAuth.Load())

	// Rotation must take effect on the next request without rebuilding
	// the client.
	require.NoError(t, s.RotateToken("token-two"))
	_, err = s.Request(context.Background(), http.MethodGet, "/api", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-two", lastAuth.Load())
}

func TestAnonymousSendsNoAuthorization(t *testing.T) {
	var lastAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := Connect(Endpoint{Name: "alpha", Server: srv.URL}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Request(context.Background(), http.MethodGet, "/api", nil)
	require.NoError(t, err)
	assert.Equal(t, "", lastAuth.Load())
}

func TestRotateTokenPreconditions(t *testing.T) {
	anon, err := Connect(Endpoint{Name: "alpha", Server: "https://example.com"}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, anon.RotateToken("x"), ErrNotBearer)

	bearer, err := Connect(Endpoint{
		Name: "alpha", Server: "https://example.com",
		Credential: mustBearer(t, "tok"),
	}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, bearer.RotateToken(""), credential.ErrEmptyToken)
}

func TestRequestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusUnauthorized, want: ErrAuthenticationFailed},
		{status: http.StatusForbidden, want: ErrForbidden},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			s, err := Connect(Endpoint{Name: "alpha", Server: srv.URL}, nil)
			require.NoError(t, err)
			defer s.Close()

			_, err = s.Request(context.Background(), http.MethodGet, "/api", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tc.status, reqErr.StatusCode)
			assert.Equal(t, "alpha", reqErr.Cluster)
		})
	}
}

func TestRequestRetriesTransientReadFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drop the first connection mid-request; the retry must succeed.
		if hits.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := Connect(Endpoint{Name: "alpha", Server: srv.URL}, nil)
	require.NoError(t, err)
	defer s.Close()

	resp, err := s.Request(context.Background(), http.MethodGet, "/api", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, hits.Load(), int32(2))
}

func TestRequestNeverRetriesMutations(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s, err := Connect(Endpoint{Name: "alpha", Server: srv.URL}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Request(context.Background(), http.MethodPost, "/api", []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "mutating verbs get exactly one attempt")
}

func TestRequestServerErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s, err := Connect(Endpoint{Name: "alpha", Server: srv.URL}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Request(context.Background(), http.MethodGet, "/api", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "an answered request is never retried")
}

func TestLazyValue(t *testing.T) {
	var lv lazyValue[int]

	_, ok := lv.Peek()
	assert.False(t, ok)

	calls := 0
	v, err := lv.Get(func() (int, error) { calls++; return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = lv.Get(func() (int, error) { calls++; return 0, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls, "initialization runs once")

	v, ok = lv.Peek()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestBuiltinKinds(t *testing.T) {
	tests := []struct {
		alias      string
		resource   string
		group      string
		namespaced bool
	}{
		{alias: "po", resource: "pods", namespaced: true},
		{alias: "pods", resource: "pods", namespaced: true},
		{alias: "svc", resource: "services", namespaced: true},
		{alias: "deploy", resource: "deployments", group: "apps", namespaced: true},
		{alias: "sts", resource: "statefulsets", group: "apps", namespaced: true},
		{alias: "ing", resource: "ingresses", group: "networking.k8s.io", namespaced: true},
		{alias: "nodes", resource: "nodes", namespaced: false},
		{alias: "ns", resource: "namespaces", namespaced: false},
		{alias: "pv", resource: "persistentvolumes", namespaced: false},
	}

	for _, tc := range tests {
		t.Run(tc.alias, func(t *testing.T) {
			rk, ok := builtinKinds[tc.alias]
			require.True(t, ok)
			assert.Equal(t, tc.resource, rk.gvr.Resource)
			assert.Equal(t, tc.group, rk.gvr.Group)
			assert.Equal(t, tc.namespaced, rk.namespaced)
		})
	}
}

func TestParsePortSpecs(t *testing.T) {
	tests := []struct {
		name       string
		specs      []string
		wantLocal  []int
		wantRemote []int
		wantErr    bool
	}{
		{
			name:       "single port",
			specs:      []string{"8080"},
			wantLocal:  []int{8080},
			wantRemote: []int{8080},
		},
		{
			name:       "local and remote",
			specs:      []string{"8080:80", "9443:443"},
			wantLocal:  []int{8080, 9443},
			wantRemote: []int{80, 443},
		},
		{name: "empty", specs: nil, wantErr: true},
		{name: "garbage", specs: []string{"http"}, wantErr: true},
		{name: "too many colons", specs: []string{"1:2:3"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			local, remote, err := parsePortSpecs(tc.specs)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLocal, local)
			assert.Equal(t, tc.wantRemote, remote)
		})
	}
}

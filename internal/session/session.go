package session

import (
	"log/slog"
	"net/http"
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/giantswarm/knav/internal/credential"
	"github.com/giantswarm/knav/internal/logging"
)

// Default performance settings, mirroring kubectl's client defaults.
const (
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30
)

// Session is one authenticated connection context for a cluster. All
// typed clients are built lazily from the same rest.Config and share one
// transport, which is safe for concurrent use.
type Session struct {
	endpoint   Endpoint
	restConfig *rest.Config
	logger     *slog.Logger

	tokens *tokenSource

	httpClient lazyValue[*http.Client]
	clientset  lazyValue[kubernetes.Interface]
	dynamic    lazyValue[dynamic.Interface]
	discovery  lazyValue[discovery.DiscoveryInterface]

	// Discovered kind resolutions, populated on builtin-table misses.
	kindMu sync.RWMutex
	kinds  map[string]resolvedKind
}

type resolvedKind struct {
	gvr        schema.GroupVersionResource
	namespaced bool
}

// Connect builds a session for the endpoint. No network traffic happens
// here; the first request dials. A validation failure or an unusable
// credential is a ConnectError.
func Connect(endpoint Endpoint, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithCluster(logger, endpoint.Name)

	if err := endpoint.Validate(); err != nil {
		return nil, &ConnectError{Cluster: endpoint.Name, Host: endpoint.Server, Err: err}
	}

	cfg := &rest.Config{
		Host: endpoint.Server,
		TLSClientConfig: rest.TLSClientConfig{
			CAData:   endpoint.CAData,
			Insecure: endpoint.InsecureSkipVerify,
		},
		QPS:   DefaultQPSLimit,
		Burst: DefaultBurstLimit,
	}

	tokens := newTokenSource()
	switch endpoint.Credential.Kind() {
	case credential.ClientCertificate:
		cfg.TLSClientConfig.CertData = endpoint.Credential.CertificatePEM()
		cfg.TLSClientConfig.KeyData = endpoint.Credential.KeyPEM()
	case credential.BearerToken:
		// The token travels as a per-request header via the wrapped
		// transport, not in the rest.Config, so RotateToken works without
		// rebuilding the client.
		tokens.set(endpoint.Credential.Token())
	}
	cfg.WrapTransport = bearerWrapper(tokens)

	if endpoint.InsecureSkipVerify {
		logger.Warn("server certificate verification disabled by explicit configuration",
			logging.Host(endpoint.Server))
	}

	return &Session{
		endpoint:   endpoint,
		restConfig: cfg,
		logger:     logger,
		tokens:     tokens,
		kinds:      make(map[string]resolvedKind),
	}, nil
}

// Name returns the cluster name this session is bound to.
func (s *Session) Name() string { return s.endpoint.Name }

// Server returns the API server base URL.
func (s *Session) Server() string { return s.endpoint.Server }

// RestConfig returns the session's rest.Config. Callers must treat it as
// read-only.
func (s *Session) RestConfig() *rest.Config { return s.restConfig }

// RotateToken replaces the bearer token used for subsequent requests. The
// underlying transport and its connections are untouched.
func (s *Session) RotateToken(token string) error {
	if s.endpoint.Credential.Kind() != credential.BearerToken {
		return ErrNotBearer
	}
	if token == "" {
		return credential.ErrEmptyToken
	}
	s.tokens.set(token)
	s.logger.Info("bearer token rotated")
	return nil
}

// Close releases idle transport connections. In-flight streams keep their
// connections until they finish.
func (s *Session) Close() {
	if client, ok := s.httpClient.Peek(); ok {
		client.CloseIdleConnections()
	}
}

// HTTPClient returns the raw HTTP client bound to this session's TLS
// policy and credential, for requests outside the typed client surface.
func (s *Session) HTTPClient() (*http.Client, error) {
	return s.httpClient.Get(func() (*http.Client, error) {
		client, err := rest.HTTPClientFor(s.restConfig)
		if err != nil {
			return nil, &ConnectError{Cluster: s.endpoint.Name, Host: s.endpoint.Server, Err: err}
		}
		return client, nil
	})
}

// Clientset returns the typed Kubernetes client for this session.
func (s *Session) Clientset() (kubernetes.Interface, error) {
	return s.clientset.Get(func() (kubernetes.Interface, error) {
		cs, err := kubernetes.NewForConfig(s.restConfig)
		if err != nil {
			return nil, &ConnectError{Cluster: s.endpoint.Name, Host: s.endpoint.Server, Err: err}
		}
		return cs, nil
	})
}

// Dynamic returns the dynamic client for this session.
func (s *Session) Dynamic() (dynamic.Interface, error) {
	return s.dynamic.Get(func() (dynamic.Interface, error) {
		dyn, err := dynamic.NewForConfig(s.restConfig)
		if err != nil {
			return nil, &ConnectError{Cluster: s.endpoint.Name, Host: s.endpoint.Server, Err: err}
		}
		return dyn, nil
	})
}

// Discovery returns the discovery client for this session.
func (s *Session) Discovery() (discovery.DiscoveryInterface, error) {
	return s.discovery.Get(func() (discovery.DiscoveryInterface, error) {
		dc, err := discovery.NewDiscoveryClientForConfig(s.restConfig)
		if err != nil {
			return nil, &ConnectError{Cluster: s.endpoint.Name, Host: s.endpoint.Server, Err: err}
		}
		return dc, nil
	})
}

// tokenSource holds the rotatable bearer token.
type tokenSource struct {
	mu    sync.RWMutex
	token string
}

func newTokenSource() *tokenSource {
	return &tokenSource{}
}

func (t *tokenSource) set(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

func (t *tokenSource) get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// bearerWrapper returns a transport wrapper that attaches the current
// bearer token to each outgoing request.
func bearerWrapper(tokens *tokenSource) func(http.RoundTripper) http.RoundTripper {
	return func(rt http.RoundTripper) http.RoundTripper {
		return &bearerRoundTripper{next: rt, tokens: tokens}
	}
}

type bearerRoundTripper struct {
	next   http.RoundTripper
	tokens *tokenSource
}

func (b *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	token := b.tokens.get()
	if token == "" || req.Header.Get("Authorization") != "" {
		return b.next.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return b.next.RoundTrip(clone)
}

package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/giantswarm/knav/internal/logging"
)

// Manager owns the configured endpoints and their sessions. Sessions are
// built lazily on first use of a cluster and live until Close or an
// explicit Disconnect/Reconnect; a session is never silently recreated
// mid-command.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	endpoints map[string]Endpoint
	order     []string
	sessions  map[string]*Session
	closed    bool
}

// NewManager validates the endpoints and builds a manager over them.
func NewManager(endpoints []Endpoint, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger:    logger,
		endpoints: make(map[string]Endpoint, len(endpoints)),
		order:     make([]string, 0, len(endpoints)),
		sessions:  make(map[string]*Session),
	}
	for _, ep := range endpoints {
		if err := ep.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m.endpoints[ep.Name]; dup {
			return nil, fmt.Errorf("duplicate cluster name %q", ep.Name)
		}
		m.endpoints[ep.Name] = ep
		m.order = append(m.order, ep.Name)
	}
	return m, nil
}

// Names returns the configured cluster names in configuration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// Has reports whether a cluster with the given name is configured.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.endpoints[name]
	return ok
}

// Session returns the session for the named cluster, connecting lazily on
// first use.
func (m *Manager) Session(name string) (*Session, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrManagerClosed
	}
	if s, ok := m.sessions[name]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if s, ok := m.sessions[name]; ok {
		return s, nil
	}

	ep, ok := m.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCluster, name)
	}

	s, err := Connect(ep, m.logger)
	if err != nil {
		return nil, err
	}
	m.sessions[name] = s
	m.logger.Debug("session established", logging.Cluster(name))
	return s, nil
}

// Disconnect tears down the named cluster's session if one exists. The
// next use of the cluster connects fresh.
func (m *Manager) Disconnect(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.endpoints[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCluster, name)
	}
	if s, ok := m.sessions[name]; ok {
		s.Close()
		delete(m.sessions, name)
		m.logger.Info("session disconnected", logging.Cluster(name))
	}
	return nil
}

// Reconnect tears down and re-establishes the named cluster's session.
// This is the only way a session is ever recreated.
func (m *Manager) Reconnect(name string) (*Session, error) {
	if err := m.Disconnect(name); err != nil {
		return nil, err
	}
	return m.Session(name)
}

// Close tears down all sessions. The manager is unusable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for name, s := range m.sessions {
		s.Close()
		delete(m.sessions, name)
	}
	m.closed = true
}

// Package nav holds the REPL's cursor: current cluster, current
// namespace, current selection.
//
// The state is an explicit value owned by the command loop, not a
// process-wide singleton, so tests can run independent instances. It is
// mutated only by navigation verbs on the single command goroutine;
// background sub-operations never touch it, so no locking is needed.
package nav

import (
	"context"
	"errors"
	"fmt"

	"github.com/giantswarm/knav/internal/objcache"
)

// Sentinel errors for navigation preconditions.
var (
	// ErrNoCluster indicates a verb that requires a cluster before one was
	// chosen.
	ErrNoCluster = errors.New("no cluster selected")
)

// State is the navigation state machine. The zero value via New is the
// initial state: no cluster, no namespace, empty selection.
type State struct {
	cluster   string
	namespace string
	selection []objcache.ObjectReference
}

// New returns the initial navigation state.
func New() *State {
	return &State{}
}

// Cluster returns the current cluster name, or "" when none is chosen.
func (s *State) Cluster() string { return s.cluster }

// Namespace returns the current namespace, or "" meaning all namespaces.
func (s *State) Namespace() string { return s.namespace }

// Selection returns a copy of the current selection in order.
func (s *State) Selection() []objcache.ObjectReference {
	out := make([]objcache.ObjectReference, len(s.selection))
	copy(out, s.selection)
	return out
}

// HasSelection reports whether any objects are selected.
func (s *State) HasSelection() bool { return len(s.selection) > 0 }

// UseCluster switches the cursor to a cluster. A different cluster
// invalidates all prior context, so namespace and selection are cleared;
// selections never span clusters.
func (s *State) UseCluster(name string) {
	if name != s.cluster {
		s.namespace = ""
		s.selection = nil
	}
	s.cluster = name
}

// UseNamespace narrows the cursor to one namespace, clearing the
// selection. Requires a cluster.
func (s *State) UseNamespace(namespace string) error {
	if s.cluster == "" {
		return ErrNoCluster
	}
	if namespace != s.namespace {
		s.selection = nil
	}
	s.namespace = namespace
	return nil
}

// Select resolves the selector through the cache and replaces the
// selection atomically: a resolution failure leaves the previous
// selection untouched, so a partial selection is never published.
func (s *State) Select(ctx context.Context, cache *objcache.Cache, lister objcache.Lister, kind, selector string) error {
	if s.cluster == "" {
		return ErrNoCluster
	}
	if lister.Name() != s.cluster {
		return fmt.Errorf("selection must target the current cluster %q, got %q", s.cluster, lister.Name())
	}

	refs, err := cache.Resolve(ctx, lister, kind, s.namespace, selector)
	if err != nil {
		return err
	}
	s.selection = refs
	return nil
}

// ClearSelection empties the selection without altering cluster or
// namespace.
func (s *State) ClearSelection() {
	s.selection = nil
}

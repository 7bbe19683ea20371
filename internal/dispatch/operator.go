package dispatch

import (
	"context"
	"fmt"

	"github.com/giantswarm/knav/internal/session"
)

// Verb is one dispatchable command verb.
type Verb string

const (
	VerbList        Verb = "list"
	VerbDescribe    Verb = "describe"
	VerbDelete      Verb = "delete"
	VerbLogs        Verb = "logs"
	VerbExec        Verb = "exec"
	VerbPortForward Verb = "port-forward"
)

// ParseVerb maps a command word to a Verb.
func ParseVerb(word string) (Verb, error) {
	switch Verb(word) {
	case VerbList, VerbDescribe, VerbDelete, VerbLogs, VerbExec, VerbPortForward:
		return Verb(word), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVerb, word)
	}
}

// Operator is the per-cluster capability surface the dispatcher works
// against. *session.Session satisfies it; tests substitute fakes.
type Operator interface {
	Name() string
	List(ctx context.Context, kind, namespace string) ([]session.ObjectMeta, error)
	Describe(ctx context.Context, kind, namespace, name string) (*session.Description, error)
	Delete(ctx context.Context, kind, namespace, name string) error
	OpenLogStream(ctx context.Context, namespace, pod string, opts session.LogOptions) (*session.Stream, error)
	Exec(ctx context.Context, namespace, pod string, opts session.ExecOptions) (*session.ExecResult, error)
	PortForward(ctx context.Context, namespace, pod string, ports []string, opts session.PortForwardOptions) (*session.PortForwardSession, error)
}

// Provider hands out the Operator for a named cluster.
type Provider interface {
	Operator(cluster string) (Operator, error)
}

// ManagerProvider adapts a session.Manager to the Provider interface.
type ManagerProvider struct {
	Manager *session.Manager
}

// Operator returns the (lazily connected) session for the cluster.
func (p ManagerProvider) Operator(cluster string) (Operator, error) {
	s, err := p.Manager.Session(cluster)
	if err != nil {
		return nil, err
	}
	return s, nil
}

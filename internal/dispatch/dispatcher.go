package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/giantswarm/knav/internal/logging"
	"github.com/giantswarm/knav/internal/nav"
	"github.com/giantswarm/knav/internal/objcache"
	"github.com/giantswarm/knav/internal/session"
)

// DefaultWorkers bounds concurrent sub-operations per dispatch.
const DefaultWorkers = 4

// defaultKind is assumed when a verb needs a kind and none was given.
const defaultKind = "pods"

// Args carries the per-dispatch arguments beyond the verb itself.
type Args struct {
	// Kind names the object kind for list and for explicit selectors.
	// Defaults to pods.
	Kind string

	// Selector, when non-empty, resolves targets directly and overrides
	// the navigation selection for this dispatch only.
	Selector string

	// Refresh forces a fresh listing for the list verb.
	Refresh bool

	// Container narrows logs and exec to one container.
	Container string

	// Log streaming options.
	Follow     bool
	Previous   bool
	Timestamps bool
	TailLines  *int64

	// Command is the argv for exec.
	Command []string

	// Stdin, when set, attaches interactive input to exec. Stdin is
	// inherently single-target.
	Stdin io.Reader

	// Output supplies per-target writers for exec so concurrent output
	// stays attributed. Nil discards output.
	Output func(target objcache.ObjectReference) (stdout, stderr io.Writer)

	// TTY requests a terminal for exec.
	TTY bool

	// Ports are the "port" or "local:remote" specs for port-forward.
	Ports []string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers overrides the per-dispatch concurrency bound.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = int64(n)
		}
	}
}

// Dispatcher resolves verbs against the navigation state and runs them.
type Dispatcher struct {
	provider Provider
	cache    *objcache.Cache
	state    *nav.State
	logger   *slog.Logger
	workers  int64
}

// New builds a dispatcher over the given provider, cache, and navigation
// state.
func New(provider Provider, cache *objcache.Cache, state *nav.State, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		provider: provider,
		cache:    cache,
		state:    state,
		logger:   logger,
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs one verb to completion (streaming verbs complete once
// their streams are established; draining is the caller's loop). All
// preconditions are checked before the first sub-operation starts.
func (d *Dispatcher) Dispatch(ctx context.Context, verb Verb, args Args) (*Result, error) {
	cluster := d.state.Cluster()
	if cluster == "" {
		return nil, nav.ErrNoCluster
	}

	op, err := d.provider.Operator(cluster)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := d.run(ctx, op, verb, args)
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
		if errors.Is(err, context.Canceled) {
			status = logging.StatusCancelled
		}
	}
	d.logger.Debug("dispatch finished",
		logging.Verb(string(verb)),
		logging.Cluster(cluster),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, time.Since(started)),
	)
	return res, err
}

func (d *Dispatcher) run(ctx context.Context, op Operator, verb Verb, args Args) (*Result, error) {
	if verb == VerbList {
		return d.list(ctx, op, args)
	}

	targets, err := d.resolveTargets(ctx, op, args)
	if err != nil {
		return nil, err
	}

	switch verb {
	case VerbDescribe:
		return d.describe(ctx, op, targets)
	case VerbDelete:
		return d.delete(ctx, op, targets)
	case VerbLogs:
		return d.logs(ctx, op, targets, args)
	case VerbExec:
		return d.exec(ctx, op, targets, args)
	case VerbPortForward:
		return d.portForward(ctx, op, targets, args)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
}

// resolveTargets produces the target range for a target verb: an explicit
// selector resolved fresh, or the standing selection. No sub-operation
// has started yet when this fails.
func (d *Dispatcher) resolveTargets(ctx context.Context, op Operator, args Args) ([]objcache.ObjectReference, error) {
	if args.Selector != "" {
		kind := args.Kind
		if kind == "" {
			kind = defaultKind
		}
		return d.cache.Resolve(ctx, op, kind, d.state.Namespace(), args.Selector)
	}

	targets := d.state.Selection()
	if len(targets) == 0 {
		return nil, ErrNoTarget
	}
	return targets, nil
}

func (d *Dispatcher) list(ctx context.Context, op Operator, args Args) (*Result, error) {
	kind := args.Kind
	if kind == "" {
		kind = defaultKind
	}
	refs, err := d.cache.List(ctx, op, kind, d.state.Namespace(), args.Refresh)
	if err != nil {
		return nil, err
	}
	return &Result{Verb: VerbList, Listing: refs}, nil
}

func (d *Dispatcher) describe(ctx context.Context, op Operator, targets []objcache.ObjectReference) (*Result, error) {
	results := d.fanOut(ctx, targets, func(ctx context.Context, t objcache.ObjectReference, tr *TargetResult) {
		desc, err := op.Describe(ctx, t.Kind, t.Namespace, t.Name)
		tr.Description = desc
		tr.Err = err
	})
	return &Result{Verb: VerbDescribe, Targets: results}, nil
}

func (d *Dispatcher) delete(ctx context.Context, op Operator, targets []objcache.ObjectReference) (*Result, error) {
	results := d.fanOut(ctx, targets, func(ctx context.Context, t objcache.ObjectReference, tr *TargetResult) {
		tr.Err = op.Delete(ctx, t.Kind, t.Namespace, t.Name)
	})
	// The listings these targets came from are no longer accurate. A
	// listing may be cached under the all-namespaces key or the object's
	// own namespace; drop both.
	ns := d.state.Namespace()
	for _, t := range targets {
		d.cache.Invalidate(t.Cluster, t.Kind, ns)
		d.cache.Invalidate(t.Cluster, t.Kind, t.Namespace)
	}
	return &Result{Verb: VerbDelete, Targets: results}, nil
}

func (d *Dispatcher) logs(ctx context.Context, op Operator, targets []objcache.ObjectReference, args Args) (*Result, error) {
	// All streams of one dispatch share a cancellation signal.
	sctx, cancel := context.WithCancel(ctx)

	opts := session.LogOptions{
		Container:  args.Container,
		Follow:     args.Follow,
		Previous:   args.Previous,
		Timestamps: args.Timestamps,
		TailLines:  args.TailLines,
	}

	results := d.fanOut(sctx, targets, func(ctx context.Context, t objcache.ObjectReference, tr *TargetResult) {
		st, err := op.OpenLogStream(ctx, t.Namespace, t.Name, opts)
		tr.Stream = st
		tr.Err = err
	})
	return &Result{Verb: VerbLogs, Targets: results, cancel: cancel}, nil
}

func (d *Dispatcher) exec(ctx context.Context, op Operator, targets []objcache.ObjectReference, args Args) (*Result, error) {
	if len(args.Command) == 0 {
		return nil, fmt.Errorf("exec: empty command")
	}
	if args.Stdin != nil && len(targets) > 1 {
		return nil, fmt.Errorf("%w: exec with stdin targets %d objects", ErrAmbiguousInput, len(targets))
	}

	results := d.fanOut(ctx, targets, func(ctx context.Context, t objcache.ObjectReference, tr *TargetResult) {
		var stdout, stderr io.Writer = io.Discard, io.Discard
		if args.Output != nil {
			stdout, stderr = args.Output(t)
		}
		res, err := op.Exec(ctx, t.Namespace, t.Name, session.ExecOptions{
			Container: args.Container,
			Command:   args.Command,
			Stdin:     args.Stdin,
			Stdout:    stdout,
			Stderr:    stderr,
			TTY:       args.TTY,
		})
		tr.Exec = res
		tr.Err = err
	})
	return &Result{Verb: VerbExec, Targets: results}, nil
}

func (d *Dispatcher) portForward(ctx context.Context, op Operator, targets []objcache.ObjectReference, args Args) (*Result, error) {
	if len(targets) > 1 {
		return nil, fmt.Errorf("%w: port-forward targets %d objects", ErrAmbiguousInput, len(targets))
	}

	sctx, cancel := context.WithCancel(ctx)

	t := targets[0]
	pf, err := op.PortForward(sctx, t.Namespace, t.Name, args.Ports, session.PortForwardOptions{})
	if err != nil {
		cancel()
		return nil, err
	}
	return &Result{
		Verb:    VerbPortForward,
		Targets: []TargetResult{{Target: t, PortForward: pf}},
		cancel:  cancel,
	}, nil
}

// fanOut runs fn once per target with bounded concurrency and returns one
// result per target in target order. A failed target never disturbs its
// peers; a cancelled target is marked Cancelled rather than failed.
func (d *Dispatcher) fanOut(ctx context.Context, targets []objcache.ObjectReference, fn func(ctx context.Context, t objcache.ObjectReference, tr *TargetResult)) []TargetResult {
	results := make([]TargetResult, len(targets))
	sem := semaphore.NewWeighted(d.workers)
	var wg sync.WaitGroup

	for i, t := range targets {
		results[i].Target = t

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Cancelled = true
			continue
		}

		wg.Add(1)
		go func(tr *TargetResult, t objcache.ObjectReference) {
			defer wg.Done()
			defer sem.Release(1)
			fn(ctx, t, tr)
			if errors.Is(tr.Err, context.Canceled) {
				tr.Cancelled = true
				tr.Err = nil
			}
		}(&results[i], t)
	}

	wg.Wait()
	return results
}

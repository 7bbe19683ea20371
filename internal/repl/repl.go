package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/giantswarm/knav/internal/dispatch"
	"github.com/giantswarm/knav/internal/logging"
	"github.com/giantswarm/knav/internal/nav"
	"github.com/giantswarm/knav/internal/objcache"
	"github.com/giantswarm/knav/internal/session"
)

// Clusters is the cluster administration surface the loop needs.
type Clusters interface {
	Names() []string
	Has(name string) bool
	Disconnect(name string) error
	Reconnect(name string) error
}

// ManagerClusters adapts a session.Manager to the Clusters interface.
type ManagerClusters struct {
	Manager *session.Manager
}

func (c ManagerClusters) Names() []string      { return c.Manager.Names() }
func (c ManagerClusters) Has(name string) bool { return c.Manager.Has(name) }

func (c ManagerClusters) Disconnect(name string) error {
	return c.Manager.Disconnect(name)
}
func (c ManagerClusters) Reconnect(name string) error {
	_, err := c.Manager.Reconnect(name)
	return err
}

// Dispatcher runs one verb. *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, verb dispatch.Verb, args dispatch.Args) (*dispatch.Result, error)
}

// Operators resolves the operator for a cluster, for selector resolution.
// dispatch.Provider satisfies it.
type Operators = dispatch.Provider

// REPL is the interactive command loop.
type REPL struct {
	clusters   Clusters
	operators  Operators
	dispatcher Dispatcher
	cache      *objcache.Cache
	state      *nav.State
	logger     *slog.Logger

	in    io.Reader
	out   io.Writer
	stdin io.Reader // attached to exec -i
}

// New builds a loop reading commands from in and writing results to out.
// stdin, when non-nil, is what exec -i attaches to the remote process.
func New(clusters Clusters, operators Operators, dispatcher Dispatcher, cache *objcache.Cache, state *nav.State, in io.Reader, out io.Writer, stdin io.Reader, logger *slog.Logger) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	return &REPL{
		clusters:   clusters,
		operators:  operators,
		dispatcher: dispatcher,
		cache:      cache,
		state:      state,
		logger:     logger,
		in:         in,
		out:        out,
		stdin:      stdin,
	}
}

// Run reads and executes commands until exit, end of input, or ctx
// cancellation. Command errors are printed, not returned; only input
// failures end the loop with an error.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(r.out, r.prompt())

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			fmt.Fprintln(r.out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

// prompt renders "cluster[namespace]> ", with placeholders before a
// cluster or namespace is chosen.
func (r *REPL) prompt() string {
	cluster := r.state.Cluster()
	if cluster == "" {
		return "(none)> "
	}
	ns := r.state.Namespace()
	if ns == "" {
		ns = "*"
	}
	return fmt.Sprintf("%s[%s]> ", cluster, ns)
}

func (r *REPL) execute(ctx context.Context, line string) error {
	words, err := Tokenize(line)
	if err != nil {
		return err
	}
	cmd, rest := words[0], words[1:]

	switch cmd {
	case "help":
		r.printHelp()
		return nil
	case "clusters":
		r.printClusters()
		return nil
	case "use":
		return r.useCluster(rest)
	case "ns", "namespace":
		return r.useNamespace(rest)
	case "select":
		return r.selectObjects(ctx, rest)
	case "selection":
		r.printSelection()
		return nil
	case "clear":
		r.state.ClearSelection()
		return nil
	case "reconnect":
		return r.reconnect(rest)
	case "disconnect":
		return r.disconnect(rest)
	}

	verb, err := dispatch.ParseVerb(cmd)
	if err != nil {
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return r.runVerb(ctx, verb, rest)
}

func (r *REPL) useCluster(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: use <cluster>")
	}
	name := args[0]
	if !r.clusters.Has(name) {
		return fmt.Errorf("%w: %q", session.ErrUnknownCluster, name)
	}
	r.state.UseCluster(name)
	return nil
}

func (r *REPL) useNamespace(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ns <namespace> (ns - for all namespaces)")
	}
	ns := args[0]
	if ns == "-" {
		ns = ""
	}
	return r.state.UseNamespace(ns)
}

func (r *REPL) selectObjects(ctx context.Context, args []string) error {
	var kind, selector string
	switch len(args) {
	case 1:
		kind, selector = "pods", args[0]
	case 2:
		kind, selector = args[0], args[1]
	default:
		return fmt.Errorf("usage: select [kind] <selector>")
	}

	cluster := r.state.Cluster()
	if cluster == "" {
		return nav.ErrNoCluster
	}
	op, err := r.operators.Operator(cluster)
	if err != nil {
		return err
	}

	cctx, stop := r.interruptible(ctx)
	defer stop()
	if err := r.state.Select(cctx, r.cache, op, kind, selector); err != nil {
		return err
	}
	r.printSelection()
	return nil
}

func (r *REPL) reconnect(args []string) error {
	name, err := r.clusterArg(args)
	if err != nil {
		return err
	}
	if err := r.clusters.Reconnect(name); err != nil {
		return err
	}
	r.invalidateAfterSessionChange(name)
	fmt.Fprintf(r.out, "reconnected %s\n", name)
	return nil
}

func (r *REPL) disconnect(args []string) error {
	name, err := r.clusterArg(args)
	if err != nil {
		return err
	}
	if err := r.clusters.Disconnect(name); err != nil {
		return err
	}
	r.invalidateAfterSessionChange(name)
	fmt.Fprintf(r.out, "disconnected %s\n", name)
	return nil
}

// clusterArg resolves an optional cluster argument, defaulting to the
// current cluster.
func (r *REPL) clusterArg(args []string) (string, error) {
	switch len(args) {
	case 0:
		if r.state.Cluster() == "" {
			return "", nav.ErrNoCluster
		}
		return r.state.Cluster(), nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("expected at most one cluster name")
	}
}

// invalidateAfterSessionChange drops state that depended on the old
// session: cached listings and, for the current cluster, the selection.
func (r *REPL) invalidateAfterSessionChange(cluster string) {
	r.cache.InvalidateCluster(cluster)
	if cluster == r.state.Cluster() {
		r.state.ClearSelection()
	}
}

func (r *REPL) runVerb(ctx context.Context, verb dispatch.Verb, words []string) error {
	args, err := parseVerbArgs(verb, words, r.stdin)
	if err != nil {
		return err
	}

	if verb == dispatch.VerbExec {
		args.Output = r.execOutput()
	}

	cctx, stop := r.interruptible(ctx)
	defer stop()

	res, err := r.dispatcher.Dispatch(cctx, verb, args)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.out, "cancelled")
			return nil
		}
		return err
	}

	return r.render(cctx, res)
}

// interruptible derives a context cancelled by SIGINT, so Ctrl-C stops
// the command in flight without ending the loop.
func (r *REPL) interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	cctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			r.logger.Debug("command interrupted", logging.Status(logging.StatusCancelled))
			cancel()
		case <-cctx.Done():
		}
	}()
	return cctx, cancel
}

package repl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/giantswarm/knav/internal/dispatch"
	"github.com/giantswarm/knav/internal/objcache"
)

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `navigation:
  clusters                      show configured clusters
  use <cluster>                 switch cluster (clears namespace and selection)
  ns <namespace>                narrow to a namespace (ns - for all)
  select [kind] <selector>      select objects: name, glob, /regex/, index, or range
  selection                     show the current selection
  clear                         clear the selection
  reconnect [cluster]           rebuild the cluster session
  disconnect [cluster]          drop the cluster session

verbs:
  list [kind] [-r]              list objects (numbered; -r forces a refresh)
  describe [[kind] selector]    describe targets
  delete [[kind] selector]      delete targets
  logs [selector] [-c container] [-f] [-p] [--timestamps] [--tail N]
  exec [selector] [-c container] [-i] [-t] -- command [arg...]
  port-forward port[:remotePort]...

  exit | quit
`)
}

func (r *REPL) printClusters() {
	current := r.state.Cluster()
	for _, name := range r.clusters.Names() {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %s\n", marker, name)
	}
}

func (r *REPL) printSelection() {
	sel := r.state.Selection()
	if len(sel) == 0 {
		fmt.Fprintln(r.out, "nothing selected")
		return
	}
	for _, ref := range sel {
		fmt.Fprintf(r.out, "%s %s/%s\n", ref.Kind, ref.Namespace, ref.Name)
	}
}

// render writes a dispatch result. Streaming verbs block here, draining
// output until the streams end or ctx is cancelled.
func (r *REPL) render(ctx context.Context, res *dispatch.Result) error {
	switch res.Verb {
	case dispatch.VerbList:
		r.renderListing(res.Listing)
		return nil
	case dispatch.VerbLogs:
		return r.renderStreams(ctx, res)
	case dispatch.VerbPortForward:
		return r.renderPortForward(ctx, res)
	default:
		r.renderTargets(res)
		return nil
	}
}

// renderListing prints a numbered listing; the numbers are what index and
// range selectors refer to until the next listing.
func (r *REPL) renderListing(refs []objcache.ObjectReference) {
	if len(refs) == 0 {
		fmt.Fprintln(r.out, "no objects")
		return
	}
	tw := tabwriter.NewWriter(r.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAMESPACE\tNAME")
	for i, ref := range refs {
		ns := ref.Namespace
		if ns == "" {
			ns = "-"
		}
		fmt.Fprintf(tw, "%3d\t%s\t%s\n", i+1, ns, ref.Name)
	}
	tw.Flush()
}

func (r *REPL) renderTargets(res *dispatch.Result) {
	for i := range res.Targets {
		tr := &res.Targets[i]
		target := fmt.Sprintf("%s/%s", tr.Target.Namespace, tr.Target.Name)
		switch {
		case tr.Cancelled:
			fmt.Fprintf(r.out, "%s: cancelled\n", target)
		case tr.Err != nil:
			fmt.Fprintf(r.out, "%s: error: %v\n", target, tr.Err)
		case tr.Description != nil:
			r.renderDescription(target, tr)
		case tr.Exec != nil:
			fmt.Fprintf(r.out, "%s: exit %d\n", target, tr.Exec.ExitCode)
		default:
			fmt.Fprintf(r.out, "%s: ok\n", target)
		}
	}
	if n := res.Failed(); n > 0 {
		fmt.Fprintf(r.out, "%d of %d targets failed\n", n, len(res.Targets))
	}
}

func (r *REPL) renderDescription(target string, tr *dispatch.TargetResult) {
	fmt.Fprintf(r.out, "--- %s\n", target)
	obj := tr.Description.Object
	if obj != nil {
		data, err := obj.MarshalJSON()
		if err != nil {
			fmt.Fprintf(r.out, "error rendering object: %v\n", err)
		} else {
			r.out.Write(append(bytes.TrimRight(data, "\n"), '\n'))
		}
	}
	for _, ev := range tr.Description.Events {
		fmt.Fprintf(r.out, "event %s %s: %s\n", ev.Type, ev.Reason, ev.Message)
	}
}

// renderStreams drains all log streams, prefixing each line-batch with
// its target so interleaved output stays attributed.
func (r *REPL) renderStreams(ctx context.Context, res *dispatch.Result) error {
	// Report targets whose stream never opened before blocking on the rest.
	open := 0
	for i := range res.Targets {
		tr := &res.Targets[i]
		if tr.Err != nil {
			fmt.Fprintf(r.out, "%s/%s: error: %v\n", tr.Target.Namespace, tr.Target.Name, tr.Err)
			continue
		}
		if tr.Stream != nil {
			open++
		}
	}
	if open == 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			res.CancelStreams()
		case <-done:
		}
	}()

	res.Drain(&prefixSink{out: r.out})
	close(done)
	return nil
}

func (r *REPL) renderPortForward(ctx context.Context, res *dispatch.Result) error {
	tr := &res.Targets[0]
	pf := tr.PortForward
	for i, lp := range pf.LocalPorts {
		fmt.Fprintf(r.out, "forwarding 127.0.0.1:%d -> %s/%s:%d\n",
			lp, tr.Target.Namespace, tr.Target.Name, pf.RemotePorts[i])
	}

	// Block until interrupted or the forwarder dies on its own.
	select {
	case <-ctx.Done():
		pf.Stop()
		<-pf.Done()
		fmt.Fprintln(r.out, "port forwarding stopped")
	case <-pf.Done():
		fmt.Fprintln(r.out, "port forwarding ended")
	}
	res.CancelStreams()
	return nil
}

// execOutput builds the per-target writer factory for exec fan-out.
func (r *REPL) execOutput() func(objcache.ObjectReference) (io.Writer, io.Writer) {
	var mu sync.Mutex
	return func(target objcache.ObjectReference) (io.Writer, io.Writer) {
		w := &prefixWriter{mu: &mu, out: r.out, prefix: target.Name}
		return w, w
	}
}

// prefixSink writes drained log chunks prefixed with the target name.
type prefixSink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *prefixSink) Chunk(target objcache.ObjectReference, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writePrefixed(s.out, target.Name, data)
}

func (s *prefixSink) Closed(target objcache.ObjectReference, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		fmt.Fprintf(s.out, "[%s] stream error: %v\n", target.Name, err)
	}
}

// prefixWriter attributes interleaved writer output to one target.
type prefixWriter struct {
	mu     *sync.Mutex
	out    io.Writer
	prefix string
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	writePrefixed(w.out, w.prefix, p)
	return len(p), nil
}

// writePrefixed writes data line by line with a "[name] " prefix.
func writePrefixed(out io.Writer, name string, data []byte) {
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		fmt.Fprintf(out, "[%s] %s\n", name, line)
	}
}

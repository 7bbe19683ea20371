package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/giantswarm/knav/internal/objcache"
	"github.com/giantswarm/knav/internal/session"
)

// TargetResult is the outcome of one sub-operation against one target.
// Exactly one result exists per resolved target, in target order,
// regardless of completion order.
type TargetResult struct {
	Target objcache.ObjectReference

	// Err is the sub-operation's failure, nil on success. Cancellation is
	// not a failure: a cancelled sub-operation has Cancelled set and a nil
	// Err.
	Err       error
	Cancelled bool

	// Exactly one of these is populated, depending on the verb.
	Description *session.Description
	Exec        *session.ExecResult
	Stream      *session.Stream
	PortForward *session.PortForwardSession
}

// Result is the aggregated outcome of one dispatch.
type Result struct {
	Verb Verb

	// Listing holds the references returned by a list verb.
	Listing []objcache.ObjectReference

	// Targets holds per-target results for target verbs.
	Targets []TargetResult

	cancel context.CancelFunc
}

// Failed counts targets whose sub-operation failed.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Targets {
		if r.Targets[i].Err != nil {
			n++
		}
	}
	return n
}

// CancelStreams signals every streaming sub-operation opened by this
// dispatch to stop. It is a no-op for non-streaming verbs and safe to
// call multiple times.
func (r *Result) CancelStreams() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Sink receives attributed stream output during Drain. Implementations
// must be safe for concurrent use; chunks from different targets arrive
// on different goroutines.
type Sink interface {
	// Chunk delivers one chunk of output from one target.
	Chunk(target objcache.ObjectReference, data []byte)

	// Closed reports that a target's stream ended, with nil err for a
	// clean remote close.
	Closed(target objcache.ObjectReference, err error)
}

// Drain pumps every open stream to the sink until all of them terminate,
// then records each stream's final disposition on its target result.
// Cancellation (via CancelStreams or the dispatch context) surfaces as
// Cancelled on the affected targets, not as a failure.
func (r *Result) Drain(sink Sink) {
	var wg sync.WaitGroup
	for i := range r.Targets {
		tr := &r.Targets[i]
		if tr.Stream == nil {
			continue
		}
		wg.Add(1)
		go func(tr *TargetResult) {
			defer wg.Done()
			for chunk := range tr.Stream.Chunks() {
				sink.Chunk(tr.Target, chunk)
			}
			err := tr.Stream.Err()
			if errors.Is(err, context.Canceled) {
				tr.Cancelled = true
				err = nil
			}
			tr.Err = err
			sink.Closed(tr.Target, err)
		}(tr)
	}
	wg.Wait()
}

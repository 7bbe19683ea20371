package session

import (
	"context"
	"io"
	"sync"
)

// streamBufSize is the read buffer size for stream pumping.
const streamBufSize = 32 * 1024

// Stream is an in-flight, cancellable streaming operation bound to one
// target. It produces a lazy sequence of output chunks until the remote
// end closes or the stream is cancelled. A cancelled stream is not
// restartable; re-establishing it requires a new operation.
type Stream struct {
	cancel context.CancelFunc
	chunks chan []byte
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// NewStream wraps a ReadCloser in a Stream. The pump goroutine owns rc and
// closes it when the stream finishes or ctx is cancelled; cancellation is
// cooperative but closing rc unblocks any in-flight Read promptly.
func NewStream(ctx context.Context, rc io.ReadCloser) *Stream {
	sctx, cancel := context.WithCancel(ctx)
	st := &Stream{
		cancel: cancel,
		chunks: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	go st.pump(sctx, rc)
	return st
}

// Chunks returns the channel of output chunks. It is closed when the
// stream ends for any reason; check Err afterwards.
func (st *Stream) Chunks() <-chan []byte { return st.chunks }

// Done is closed when the stream has fully terminated and released its
// connection.
func (st *Stream) Done() <-chan struct{} { return st.done }

// Cancel requests termination. It is safe to call multiple times and
// after the stream has already ended.
func (st *Stream) Cancel() { st.cancel() }

// Err reports why the stream ended: nil for a clean remote close,
// context.Canceled after cancellation, or the underlying read error.
// Only valid after Chunks is closed.
func (st *Stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

func (st *Stream) setErr(err error) {
	st.mu.Lock()
	st.err = err
	st.mu.Unlock()
}

func (st *Stream) pump(ctx context.Context, rc io.ReadCloser) {
	defer close(st.done)
	defer close(st.chunks)
	defer st.cancel()

	// Read has no context parameter; closing the reader from the side is
	// how cancellation reaches a blocked Read.
	closeOnce := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = rc.Close()
		case <-closeOnce:
		}
	}()
	defer func() {
		close(closeOnce)
		_ = rc.Close()
	}()

	buf := make([]byte, streamBufSize)
	for {
		n, err := rc.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case st.chunks <- chunk:
			case <-ctx.Done():
				st.setErr(ctx.Err())
				return
			}
		}
		if err != nil {
			switch {
			case ctx.Err() != nil:
				// The side-close raced the read; report cancellation, not
				// the synthetic "closed" error.
				st.setErr(ctx.Err())
			case err == io.EOF:
				st.setErr(nil)
			default:
				st.setErr(err)
			}
			return
		}
	}
}

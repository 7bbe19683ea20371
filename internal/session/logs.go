package session

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/giantswarm/knav/internal/logging"
)

// LogOptions configures log streaming for one pod container.
type LogOptions struct {
	Container  string
	Follow     bool
	Previous   bool
	Timestamps bool
	TailLines  *int64
}

// OpenLogStream starts streaming logs from a pod container. The returned
// Stream is bound to ctx: cancelling ctx (or calling Stream.Cancel) closes
// the underlying connection.
func (s *Session) OpenLogStream(ctx context.Context, namespace, pod string, opts LogOptions) (*Stream, error) {
	cs, err := s.Clientset()
	if err != nil {
		return nil, err
	}

	logOpts := &corev1.PodLogOptions{
		Container:  opts.Container,
		Follow:     opts.Follow,
		Previous:   opts.Previous,
		Timestamps: opts.Timestamps,
		TailLines:  opts.TailLines,
	}

	req := cs.CoreV1().Pods(namespace).GetLogs(pod, logOpts)
	rc, err := req.Stream(ctx)
	if err != nil {
		return nil, s.mapAPIError(fmt.Errorf("streaming logs for pod %s/%s: %w", namespace, pod, err))
	}

	s.logger.Debug("log stream opened",
		logging.Target(namespace, pod),
		logging.Kind("pods"),
	)
	return NewStream(ctx, rc), nil
}

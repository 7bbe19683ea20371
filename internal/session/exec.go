package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

// ExecOptions configures command execution in a pod container. The three
// channels (Stdin, Stdout, Stderr) are multiplexed over one connection.
type ExecOptions struct {
	Container string
	Command   []string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	TTY       bool
}

// ExecResult is the outcome of a completed exec.
type ExecResult struct {
	ExitCode int
}

// Exec runs a command inside a pod container, streaming the channels
// until the remote process exits or ctx is cancelled. A non-zero remote
// exit is a normal result, not an error.
func (s *Session) Exec(ctx context.Context, namespace, pod string, opts ExecOptions) (*ExecResult, error) {
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("exec on pod %s/%s: empty command", namespace, pod)
	}

	cs, err := s.Clientset()
	if err != nil {
		return nil, err
	}

	execReq := cs.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(pod).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: opts.Container,
			Command:   opts.Command,
			Stdin:     opts.Stdin != nil,
			Stdout:    opts.Stdout != nil,
			Stderr:    opts.Stderr != nil,
			TTY:       opts.TTY,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(s.restConfig, http.MethodPost, execReq.URL())
	if err != nil {
		return nil, fmt.Errorf("creating executor for pod %s/%s: %w", namespace, pod, err)
	}

	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
		Tty:    opts.TTY,
	})
	if err != nil {
		var exitErr utilexec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecResult{ExitCode: exitErr.ExitStatus()}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, s.mapAPIError(fmt.Errorf("exec in pod %s/%s: %w", namespace, pod, err))
	}

	return &ExecResult{ExitCode: 0}, nil
}

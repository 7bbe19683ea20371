package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"

	"github.com/giantswarm/knav/internal/logging"
)

// PortForwardOptions configures port forwarding output.
type PortForwardOptions struct {
	Stdout io.Writer
	Stderr io.Writer
}

// PortForwardSession is an active forwarding session. Stop tears it down;
// cancelling the ctx passed to PortForward does the same.
type PortForwardSession struct {
	LocalPorts  []int
	RemotePorts []int

	stopChan chan struct{}
	done     chan struct{}
}

// Stop tears down the forwarding session. Safe to call multiple times.
func (p *PortForwardSession) Stop() {
	select {
	case <-p.stopChan:
	default:
		close(p.stopChan)
	}
}

// Done is closed when the forwarder has fully shut down.
func (p *PortForwardSession) Done() <-chan struct{} { return p.done }

// PortForward establishes forwarding from local ports to a pod. Each port
// spec is "port" or "localPort:remotePort".
func (s *Session) PortForward(ctx context.Context, namespace, pod string, ports []string, opts PortForwardOptions) (*PortForwardSession, error) {
	localPorts, remotePorts, err := parsePortSpecs(ports)
	if err != nil {
		return nil, err
	}

	cs, err := s.Clientset()
	if err != nil {
		return nil, err
	}

	pfReq := cs.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(pod).
		Namespace(namespace).
		SubResource("portforward")

	roundTripper, upgrader, err := spdy.RoundTripperFor(s.restConfig)
	if err != nil {
		return nil, fmt.Errorf("creating round tripper: %w", err)
	}
	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: roundTripper}, http.MethodPost, pfReq.URL())

	stopChan := make(chan struct{})
	readyChan := make(chan struct{})
	done := make(chan struct{})

	stdout := opts.Stdout
	stderr := opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	forwarder, err := portforward.New(dialer, ports, stopChan, readyChan, stdout, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating port forwarder: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(done)
		if fwdErr := forwarder.ForwardPorts(); fwdErr != nil {
			s.logger.Error("port forwarding stopped", logging.SanitizedErr(fwdErr))
			errChan <- fwdErr
		}
	}()

	pf := &PortForwardSession{
		LocalPorts:  localPorts,
		RemotePorts: remotePorts,
		stopChan:    stopChan,
		done:        done,
	}

	// Tie the session to the caller's context.
	go func() {
		select {
		case <-ctx.Done():
			pf.Stop()
		case <-done:
		}
	}()

	select {
	case <-readyChan:
		s.logger.Debug("port forward ready", logging.Target(namespace, pod))
		return pf, nil
	case fwdErr := <-errChan:
		pf.Stop()
		return nil, s.mapAPIError(fmt.Errorf("port forwarding to pod %s/%s: %w", namespace, pod, fwdErr))
	case <-ctx.Done():
		pf.Stop()
		return nil, ctx.Err()
	}
}

// parsePortSpecs splits "local:remote" or "port" specs.
func parsePortSpecs(ports []string) (local, remote []int, err error) {
	if len(ports) == 0 {
		return nil, nil, fmt.Errorf("no ports specified")
	}
	local = make([]int, len(ports))
	remote = make([]int, len(ports))
	for i, spec := range ports {
		parts := strings.Split(spec, ":")
		switch len(parts) {
		case 1:
			p, convErr := strconv.Atoi(parts[0])
			if convErr != nil {
				return nil, nil, fmt.Errorf("invalid port %q", spec)
			}
			local[i], remote[i] = p, p
		case 2:
			lp, lErr := strconv.Atoi(parts[0])
			rp, rErr := strconv.Atoi(parts[1])
			if lErr != nil || rErr != nil {
				return nil, nil, fmt.Errorf("invalid port spec %q", spec)
			}
			local[i], remote[i] = lp, rp
		default:
			return nil, nil, fmt.Errorf("invalid port spec %q", spec)
		}
	}
	return local, remote, nil
}

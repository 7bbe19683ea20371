package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/giantswarm/knav/internal/logging"
)

// ObjectMeta is the lightweight identity of one listed object: just the
// fields needed for navigation and staleness detection. Response bodies
// are otherwise passed through opaquely.
type ObjectMeta struct {
	Kind            string
	Namespace       string
	Name            string
	ResourceVersion string
}

// Description is the detailed view of one object: the full resource plus
// the events that reference it.
type Description struct {
	Object *unstructured.Unstructured
	Events []corev1.Event
}

// List returns the ordered identities of all objects of the given kind.
// An empty namespace lists across all namespaces. Listing is a read and
// is retried on transient errors.
func (s *Session) List(ctx context.Context, kind, namespace string) ([]ObjectMeta, error) {
	rk, err := s.resolveKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	dyn, err := s.Dynamic()
	if err != nil {
		return nil, err
	}

	attempt := func() ([]ObjectMeta, error) {
		var list *unstructured.UnstructuredList
		var listErr error
		if rk.namespaced && namespace != "" {
			list, listErr = dyn.Resource(rk.gvr).Namespace(namespace).List(ctx, metav1.ListOptions{})
		} else {
			list, listErr = dyn.Resource(rk.gvr).List(ctx, metav1.ListOptions{})
		}
		if listErr != nil {
			if isTransient(listErr) {
				return nil, listErr
			}
			return nil, backoff.Permanent(s.mapAPIError(listErr))
		}

		metas := make([]ObjectMeta, 0, len(list.Items))
		for _, item := range list.Items {
			metas = append(metas, ObjectMeta{
				Kind:            rk.gvr.Resource,
				Namespace:       item.GetNamespace(),
				Name:            item.GetName(),
				ResourceVersion: item.GetResourceVersion(),
			})
		}
		return metas, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = requestRetryBaseDelay

	started := time.Now()
	metas, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(requestRetryBudget),
	)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("listed objects",
		logging.Kind(kind),
		logging.Namespace(namespace),
		slog.Int("count", len(metas)),
		slog.Duration(logging.KeyDuration, time.Since(started)),
	)
	return metas, nil
}

// Describe fetches one object and the events referencing it. Reads are
// retried; a missing object is not.
func (s *Session) Describe(ctx context.Context, kind, namespace, name string) (*Description, error) {
	rk, err := s.resolveKind(ctx, kind)
	if err != nil {
		return nil, err
	}

	dyn, err := s.Dynamic()
	if err != nil {
		return nil, err
	}

	var obj *unstructured.Unstructured
	if rk.namespaced && namespace != "" {
		obj, err = dyn.Resource(rk.gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	} else {
		obj, err = dyn.Resource(rk.gvr).Get(ctx, name, metav1.GetOptions{})
	}
	if err != nil {
		return nil, s.mapAPIError(err)
	}

	desc := &Description{Object: obj}

	// Events are best-effort enrichment; their absence never fails a
	// describe.
	cs, err := s.Clientset()
	if err == nil {
		events, eventsErr := cs.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
			FieldSelector: fmt.Sprintf("involvedObject.name=%s", name),
		})
		if eventsErr == nil {
			desc.Events = events.Items
		} else {
			s.logger.Debug("could not list events for object",
				logging.Target(namespace, name), logging.SanitizedErr(eventsErr))
		}
	}

	return desc, nil
}

// Delete removes one object. Mutating verbs are never auto-retried.
func (s *Session) Delete(ctx context.Context, kind, namespace, name string) error {
	rk, err := s.resolveKind(ctx, kind)
	if err != nil {
		return err
	}

	dyn, err := s.Dynamic()
	if err != nil {
		return err
	}

	if rk.namespaced && namespace != "" {
		err = dyn.Resource(rk.gvr).Namespace(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	} else {
		err = dyn.Resource(rk.gvr).Delete(ctx, name, metav1.DeleteOptions{})
	}
	if err != nil {
		return s.mapAPIError(err)
	}

	s.logger.Info("deleted object", logging.Kind(kind), logging.Target(namespace, name))
	return nil
}

// mapAPIError folds Kubernetes API status errors into the session error
// taxonomy so callers can use errors.Is.
func (s *Session) mapAPIError(err error) error {
	switch {
	case apierrors.IsUnauthorized(err):
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	case apierrors.IsForbidden(err):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	default:
		return err
	}
}

// resolveKind maps a user-facing kind alias to a GroupVersionResource.
// The builtin table covers the common kinds; anything else falls back to
// server discovery, and successful discoveries are cached per session.
func (s *Session) resolveKind(ctx context.Context, kind string) (resolvedKind, error) {
	alias := strings.ToLower(strings.TrimSpace(kind))
	if rk, ok := builtinKinds[alias]; ok {
		return rk, nil
	}

	s.kindMu.RLock()
	rk, ok := s.kinds[alias]
	s.kindMu.RUnlock()
	if ok {
		return rk, nil
	}

	dc, err := s.Discovery()
	if err != nil {
		return resolvedKind{}, err
	}

	lists, err := dc.ServerPreferredResources()
	if err != nil {
		return resolvedKind{}, fmt.Errorf("discovering resources for kind %q: %w", kind, err)
	}

	for _, list := range lists {
		gv, parseErr := schema.ParseGroupVersion(list.GroupVersion)
		if parseErr != nil {
			continue
		}
		for _, res := range list.APIResources {
			if strings.Contains(res.Name, "/") {
				continue
			}
			if res.Name == alias || res.SingularName == alias || strings.EqualFold(res.Kind, alias) {
				rk = resolvedKind{
					gvr:        gv.WithResource(res.Name),
					namespaced: res.Namespaced,
				}
				s.kindMu.Lock()
				s.kinds[alias] = rk
				s.kindMu.Unlock()
				return rk, nil
			}
		}
	}

	return resolvedKind{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

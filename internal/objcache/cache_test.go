package objcache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/knav/internal/session"
)

// fakeLister serves listings from an in-memory map keyed by kind.
type fakeLister struct {
	mu    sync.Mutex
	name  string
	kinds map[string][]string
	calls int
	err   error
}

func newFakeLister(name string, podNames ...string) *fakeLister {
	return &fakeLister{
		name:  name,
		kinds: map[string][]string{"pods": podNames},
	}
}

func (f *fakeLister) Name() string { return f.name }

func (f *fakeLister) List(_ context.Context, kind, namespace string) ([]session.ObjectMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	names := f.kinds[kind]
	metas := make([]session.ObjectMeta, len(names))
	for i, n := range names {
		metas[i] = session.ObjectMeta{Kind: kind, Namespace: "default", Name: n, ResourceVersion: "7"}
	}
	return metas, nil
}

func (f *fakeLister) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestListCachesUntilRefresh(t *testing.T) {
	lister := newFakeLister("alpha", "web-0", "web-1")
	c := New()
	ctx := context.Background()

	refs, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "web-0", refs[0].Name)
	assert.Equal(t, "alpha", refs[0].Cluster)
	assert.Equal(t, "7", refs[0].ResourceVersion)
	assert.False(t, refs[0].FetchedAt.IsZero())

	_, err = c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, 1, lister.listCalls(), "second list is served from the cache")

	_, err = c.List(ctx, lister, "pods", "default", true)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.listCalls(), "forceRefresh goes to the cluster")
}

func TestRefreshReplacesEntryAtomically(t *testing.T) {
	lister := newFakeLister("alpha", "web-0", "web-1", "web-2")
	c := New()
	ctx := context.Background()

	before, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	require.Len(t, before, 3)

	// A failed refresh must leave the previous listing untouched.
	lister.mu.Lock()
	lister.err = fmt.Errorf("apiserver unavailable")
	lister.mu.Unlock()

	_, err = c.Refresh(ctx, lister, "pods", "default")
	require.Error(t, err)

	after, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// A successful refresh fully replaces it.
	lister.mu.Lock()
	lister.err = nil
	lister.kinds["pods"] = []string{"web-9"}
	lister.mu.Unlock()

	refreshed, err := c.Refresh(ctx, lister, "pods", "default")
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, "web-9", refreshed[0].Name)
}

func TestListReturnsACopy(t *testing.T) {
	lister := newFakeLister("alpha", "web-0")
	c := New()
	ctx := context.Background()

	refs, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	refs[0].Name = "mutated"

	again, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, "web-0", again[0].Name)
}

func TestInvalidate(t *testing.T) {
	lister := newFakeLister("alpha", "web-0")
	c := New()
	ctx := context.Background()

	_, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)

	c.Invalidate("alpha", "pods", "default")

	_, err = c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.listCalls())
}

func TestInvalidateClusterDropsOnlyThatCluster(t *testing.T) {
	alpha := newFakeLister("alpha", "web-0")
	beta := newFakeLister("beta", "db-0")
	c := New()
	ctx := context.Background()

	_, err := c.List(ctx, alpha, "pods", "default", false)
	require.NoError(t, err)
	_, err = c.List(ctx, beta, "pods", "default", false)
	require.NoError(t, err)

	c.InvalidateCluster("alpha")

	_, err = c.List(ctx, alpha, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, 2, alpha.listCalls(), "alpha entry was dropped")

	_, err = c.List(ctx, beta, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, 1, beta.listCalls(), "beta entry survived")
}

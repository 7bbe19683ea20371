package nav

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/knav/internal/objcache"
	"github.com/giantswarm/knav/internal/session"
)

// fakeLister serves a fixed pod listing for one cluster.
type fakeLister struct {
	name string
	pods []string
	err  error
}

func (f *fakeLister) Name() string { return f.name }

func (f *fakeLister) List(_ context.Context, kind, _ string) ([]session.ObjectMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	metas := make([]session.ObjectMeta, len(f.pods))
	for i, n := range f.pods {
		metas[i] = session.ObjectMeta{Kind: kind, Namespace: "default", Name: n}
	}
	return metas, nil
}

func TestInitialState(t *testing.T) {
	s := New()
	assert.Empty(t, s.Cluster())
	assert.Empty(t, s.Namespace())
	assert.False(t, s.HasSelection())
	assert.Empty(t, s.Selection())
}

func TestUseNamespaceRequiresCluster(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.UseNamespace("prod"), ErrNoCluster)

	s.UseCluster("alpha")
	require.NoError(t, s.UseNamespace("prod"))
	assert.Equal(t, "prod", s.Namespace())
}

func TestUseClusterClearsDependentState(t *testing.T) {
	s := New()
	lister := &fakeLister{name: "alpha", pods: []string{"web-0"}}
	cache := objcache.New()

	s.UseCluster("alpha")
	require.NoError(t, s.UseNamespace("prod"))
	require.NoError(t, s.Select(context.Background(), cache, lister, "pods", "web-0"))
	require.True(t, s.HasSelection())

	// Same cluster: nothing is cleared.
	s.UseCluster("alpha")
	assert.Equal(t, "prod", s.Namespace())
	assert.True(t, s.HasSelection())

	// Different cluster: namespace and selection go.
	s.UseCluster("beta")
	assert.Equal(t, "beta", s.Cluster())
	assert.Empty(t, s.Namespace())
	assert.False(t, s.HasSelection())
}

func TestUseNamespaceClearsSelectionOnChange(t *testing.T) {
	s := New()
	lister := &fakeLister{name: "alpha", pods: []string{"web-0"}}
	cache := objcache.New()

	s.UseCluster("alpha")
	require.NoError(t, s.UseNamespace("prod"))
	require.NoError(t, s.Select(context.Background(), cache, lister, "pods", "web-0"))

	// Re-entering the same namespace keeps the selection.
	require.NoError(t, s.UseNamespace("prod"))
	assert.True(t, s.HasSelection())

	require.NoError(t, s.UseNamespace("staging"))
	assert.False(t, s.HasSelection())
}

func TestSelectPreconditions(t *testing.T) {
	s := New()
	cache := objcache.New()
	lister := &fakeLister{name: "alpha", pods: []string{"web-0"}}

	err := s.Select(context.Background(), cache, lister, "pods", "web-0")
	assert.ErrorIs(t, err, ErrNoCluster)

	s.UseCluster("beta")
	err = s.Select(context.Background(), cache, lister, "pods", "web-0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current cluster")
}

func TestSelectReplacesAtomically(t *testing.T) {
	s := New()
	cache := objcache.New()
	lister := &fakeLister{name: "alpha", pods: []string{"web-0", "web-1", "db-0"}}
	ctx := context.Background()

	s.UseCluster("alpha")
	require.NoError(t, s.Select(ctx, cache, lister, "pods", "web-*"))
	require.Len(t, s.Selection(), 2)

	// A failed resolution leaves the previous selection in place.
	err := s.Select(ctx, cache, lister, "pods", "missing-*")
	assert.ErrorIs(t, err, objcache.ErrNoMatch)
	assert.Len(t, s.Selection(), 2)

	// A listing failure does too. Deployments are not cached yet, so the
	// resolution has to hit the lister.
	lister.err = fmt.Errorf("apiserver down")
	err = s.Select(ctx, cache, lister, "deployments", "api-*")
	require.Error(t, err)
	assert.Len(t, s.Selection(), 2)

	// A successful resolution replaces it wholesale.
	lister.err = nil
	require.NoError(t, s.Select(ctx, cache, lister, "pods", "db-0"))
	require.Len(t, s.Selection(), 1)
	assert.Equal(t, "db-0", s.Selection()[0].Name)
}

func TestSelectionReturnsCopy(t *testing.T) {
	s := New()
	cache := objcache.New()
	lister := &fakeLister{name: "alpha", pods: []string{"web-0"}}

	s.UseCluster("alpha")
	require.NoError(t, s.Select(context.Background(), cache, lister, "pods", "web-0"))

	sel := s.Selection()
	sel[0].Name = "mutated"
	assert.Equal(t, "web-0", s.Selection()[0].Name)
}

func TestClearSelection(t *testing.T) {
	s := New()
	cache := objcache.New()
	lister := &fakeLister{name: "alpha", pods: []string{"web-0"}}

	s.UseCluster("alpha")
	require.NoError(t, s.UseNamespace("prod"))
	require.NoError(t, s.Select(context.Background(), cache, lister, "pods", "web-0"))

	s.ClearSelection()
	assert.False(t, s.HasSelection())
	assert.Equal(t, "alpha", s.Cluster())
	assert.Equal(t, "prod", s.Namespace())
}

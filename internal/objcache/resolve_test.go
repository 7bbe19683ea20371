package objcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(refs []ObjectReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}

func TestResolveNameSelectors(t *testing.T) {
	lister := newFakeLister("alpha", "web-0", "web-1", "web-2", "db-0", "cache")
	c := New()
	ctx := context.Background()

	tests := []struct {
		name     string
		selector string
		want     []string
		wantErr  error
	}{
		{name: "exact", selector: "db-0", want: []string{"db-0"}},
		{name: "glob", selector: "web-*", want: []string{"web-0", "web-1", "web-2"}},
		{name: "glob single char", selector: "web-?", want: []string{"web-0", "web-1", "web-2"}},
		{name: "regex", selector: "/^web-[01]$/", want: []string{"web-0", "web-1"}},
		{name: "regex substring", selector: "/db/", want: []string{"db-0"}},
		{name: "no match", selector: "missing-*", wantErr: ErrNoMatch},
		{name: "bad regex", selector: "/web-[/", wantErr: ErrBadSelector},
		{name: "bad glob", selector: "web-[", wantErr: ErrBadSelector},
		{name: "empty", selector: "   ", wantErr: ErrBadSelector},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			refs, err := c.Resolve(ctx, lister, "pods", "default", tc.selector)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(refs))
		})
	}
}

func TestResolveIndexSelectors(t *testing.T) {
	lister := newFakeLister("alpha", "web-0", "web-1", "web-2", "web-3", "web-4")
	c := New()
	ctx := context.Background()

	// Indexes refer to the last listing, so list first.
	_, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		selector string
		want     []string
		wantErr  error
	}{
		{name: "single index", selector: "3", want: []string{"web-2"}},
		{name: "range", selector: "1-3", want: []string{"web-0", "web-1", "web-2"}},
		{name: "set", selector: "2,4", want: []string{"web-1", "web-3"}},
		{name: "range and extra", selector: "1-2,5", want: []string{"web-0", "web-1", "web-4"}},
		{name: "duplicates dropped", selector: "2,2,1-2", want: []string{"web-1", "web-0"}},
		{name: "zero index", selector: "0", wantErr: ErrIndexOutOfRange},
		{name: "past the end", selector: "6", wantErr: ErrIndexOutOfRange},
		{name: "range past the end", selector: "4-9", wantErr: ErrIndexOutOfRange},
		{name: "inverted range", selector: "3-1", wantErr: ErrBadSelector},
		{name: "dangling comma", selector: "1,", wantErr: ErrBadSelector},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			refs, err := c.Resolve(ctx, lister, "pods", "default", tc.selector)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(refs))
		})
	}

	// Index resolution never triggers a fetch.
	assert.Equal(t, 1, lister.listCalls())
}

func TestResolveIndexWithoutListing(t *testing.T) {
	lister := newFakeLister("alpha", "web-0")
	c := New()

	_, err := c.Resolve(context.Background(), lister, "pods", "default", "1")
	assert.ErrorIs(t, err, ErrStaleSelection)
	assert.Equal(t, 0, lister.listCalls(), "index selectors never fetch")
}

func TestResolveIndexStaleAfterOtherListing(t *testing.T) {
	lister := newFakeLister("alpha", "web-0", "web-1")
	lister.kinds["deployments"] = []string{"api"}
	c := New()
	ctx := context.Background()

	_, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)

	// A listing of a different kind supersedes the numbering.
	_, err = c.List(ctx, lister, "deployments", "default", false)
	require.NoError(t, err)

	_, err = c.Resolve(ctx, lister, "pods", "default", "1")
	assert.ErrorIs(t, err, ErrStaleSelection)

	// The most recent listing accepts indexes.
	refs, err := c.Resolve(ctx, lister, "deployments", "default", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"api"}, names(refs))

	// Listing pods again restores their numbering.
	_, err = c.List(ctx, lister, "pods", "default", true)
	require.NoError(t, err)
	refs, err = c.Resolve(ctx, lister, "pods", "default", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"web-1"}, names(refs))
}

func TestResolveIndexAfterCachedRelisting(t *testing.T) {
	lister := newFakeLister("alpha", "web-0", "web-1")
	lister.kinds["deployments"] = []string{"api"}
	c := New()
	ctx := context.Background()

	_, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	_, err = c.List(ctx, lister, "deployments", "default", false)
	require.NoError(t, err)

	// Re-listing pods is served from the cache, but it is still the last
	// listing the user saw, so its numbering accepts indexes again.
	_, err = c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.listCalls(), "re-listing pods must hit the cache")

	refs, err := c.Resolve(ctx, lister, "pods", "default", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"web-0"}, names(refs))

	// The deployments numbering was superseded by the cached re-listing.
	_, err = c.Resolve(ctx, lister, "deployments", "default", "1")
	assert.ErrorIs(t, err, ErrStaleSelection)
}

func TestResolveIndexStaleAfterInvalidate(t *testing.T) {
	lister := newFakeLister("alpha", "web-0")
	c := New()
	ctx := context.Background()

	_, err := c.List(ctx, lister, "pods", "default", false)
	require.NoError(t, err)

	c.Invalidate("alpha", "pods", "default")

	_, err = c.Resolve(ctx, lister, "pods", "default", "1")
	assert.ErrorIs(t, err, ErrStaleSelection)
}

func TestResolveNameFetchesWhenCold(t *testing.T) {
	lister := newFakeLister("alpha", "web-0")
	c := New()

	refs, err := c.Resolve(context.Background(), lister, "pods", "default", "web-0")
	require.NoError(t, err)
	assert.Equal(t, []string{"web-0"}, names(refs))
	assert.Equal(t, 1, lister.listCalls(), "name selectors fetch when the cache is cold")
}

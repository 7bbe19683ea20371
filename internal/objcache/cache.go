package objcache

import (
	"context"
	"sync"
	"time"

	"github.com/giantswarm/knav/internal/session"
)

// ObjectReference identifies one object within one cluster, plus the
// resource version and fetch time of the listing that produced it.
// Immutable once constructed.
type ObjectReference struct {
	Cluster         string
	Kind            string
	Namespace       string
	Name            string
	ResourceVersion string
	FetchedAt       time.Time
}

// Key identifies one cache entry.
type Key struct {
	Cluster   string
	Kind      string
	Namespace string
}

// Lister is the session capability the cache needs: an identity and a
// listing operation. *session.Session satisfies it.
type Lister interface {
	Name() string
	List(ctx context.Context, kind, namespace string) ([]session.ObjectMeta, error)
}

// entry is one immutable listing snapshot.
type entry struct {
	refs       []ObjectReference
	fetchedAt  time.Time
	generation uint64
}

// Cache holds the most recent listing per key. All methods are safe for
// concurrent use; refreshes replace entries atomically.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry

	// generation increments on every stored listing; lastKey/lastGen track
	// the most recent listing overall, which is what index selectors are
	// valid against.
	generation uint64
	lastKey    Key
	lastGen    uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*entry)}
}

// List returns the ordered references for (lister, kind, namespace),
// fetching from the cluster when the cache has no entry or forceRefresh
// is set. The returned slice is a copy; callers may keep it.
func (c *Cache) List(ctx context.Context, lister Lister, kind, namespace string, forceRefresh bool) ([]ObjectReference, error) {
	key := Key{Cluster: lister.Name(), Kind: kind, Namespace: namespace}

	if !forceRefresh {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			// Serving from the cache still re-renders the numbered listing,
			// so index selectors now refer to this key again.
			c.lastKey = key
			c.lastGen = e.generation
			refs := copyRefs(e.refs)
			c.mu.Unlock()
			return refs, nil
		}
		c.mu.Unlock()
	}

	return c.refresh(ctx, lister, key)
}

// Refresh forces a new listing for the key, replacing any cached entry.
func (c *Cache) Refresh(ctx context.Context, lister Lister, kind, namespace string) ([]ObjectReference, error) {
	return c.refresh(ctx, lister, Key{Cluster: lister.Name(), Kind: kind, Namespace: namespace})
}

func (c *Cache) refresh(ctx context.Context, lister Lister, key Key) ([]ObjectReference, error) {
	metas, err := lister.List(ctx, key.Kind, key.Namespace)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refs := make([]ObjectReference, len(metas))
	for i, meta := range metas {
		refs[i] = ObjectReference{
			Cluster:         key.Cluster,
			Kind:            key.Kind,
			Namespace:       meta.Namespace,
			Name:            meta.Name,
			ResourceVersion: meta.ResourceVersion,
			FetchedAt:       now,
		}
	}

	c.mu.Lock()
	c.generation++
	c.entries[key] = &entry{refs: refs, fetchedAt: now, generation: c.generation}
	c.lastKey = key
	c.lastGen = c.generation
	c.mu.Unlock()

	return copyRefs(refs), nil
}

// Invalidate drops the entry for one key.
func (c *Cache) Invalidate(cluster, kind, namespace string) {
	key := Key{Cluster: cluster, Kind: kind, Namespace: namespace}
	c.mu.Lock()
	delete(c.entries, key)
	if c.lastKey == key {
		c.lastGen = 0
	}
	c.mu.Unlock()
}

// InvalidateCluster drops all entries belonging to one cluster. Used on
// disconnect/reconnect, when cached resource versions can no longer be
// trusted.
func (c *Cache) InvalidateCluster(cluster string) {
	c.mu.Lock()
	for key := range c.entries {
		if key.Cluster == cluster {
			delete(c.entries, key)
		}
	}
	if c.lastKey.Cluster == cluster {
		c.lastGen = 0
	}
	c.mu.Unlock()
}

// snapshot returns the entry for key and whether it is the most recent
// listing overall (the condition for index selectors).
func (c *Cache) snapshot(key Key) (*entry, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	return e, true, e.generation == c.lastGen && key == c.lastKey
}

func copyRefs(refs []ObjectReference) []ObjectReference {
	out := make([]ObjectReference, len(refs))
	copy(out, refs)
	return out
}

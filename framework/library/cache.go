package library

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// generation orders every cache write in the process.
var generation atomic.Uint64

// entry is a memoized instance plus an identifier used only in dumps.
type entry struct {
	value any
	id    string
	gen   uint64
}

// cache is one layer of singleton storage. Scopes produced by Clone share
// their parent's layer; scopes produced by a reset get a new layer that
// hides the cleared names and falls through to the parent layer for the
// rest, as the parent was when the layer was forked. Ancestor layers are
// never written by a descendant.
type cache struct {
	parent *cache
	// snapshot is the generation at fork time. Ancestor entries written
	// after it belong to the ancestor alone.
	snapshot uint64

	mu      sync.RWMutex
	entries map[string]*entry
	cleared map[string]struct{}

	// flight makes the first resolution of a name in this layer happen once.
	flight singleflight.Group
}

func newCache() *cache {
	return &cache{
		entries: make(map[string]*entry),
		cleared: make(map[string]struct{}),
	}
}

// fork returns a child layer with names hidden.
func (c *cache) fork(names []string) *cache {
	child := newCache()
	child.parent = c
	child.snapshot = generation.Load()
	for _, n := range names {
		child.cleared[n] = struct{}{}
	}
	return child
}

// get looks name up in this layer, then in ancestors until a layer that
// cleared it, ignoring ancestor entries newer than the fork.
func (c *cache) get(name string) (*entry, bool) {
	limit := uint64(math.MaxUint64)
	for l := c; l != nil; l = l.parent {
		l.mu.RLock()
		e, ok := l.entries[name]
		_, cleared := l.cleared[name]
		l.mu.RUnlock()
		if ok && e.gen <= limit {
			return e, true
		}
		if cleared {
			return nil, false
		}
		limit = min(limit, l.snapshot)
	}
	return nil, false
}

func (c *cache) set(name string, value any) *entry {
	c.mu.Lock()
	e := &entry{value: value, id: shortID(), gen: generation.Add(1)}
	c.entries[name] = e
	c.mu.Unlock()
	return e
}

// visible flattens the layer chain into the entries a lookup would see.
func (c *cache) visible() map[string]*entry {
	names := make(map[string]struct{})
	for l := c; l != nil; l = l.parent {
		l.mu.RLock()
		for n := range l.entries {
			names[n] = struct{}{}
		}
		l.mu.RUnlock()
	}
	out := make(map[string]*entry, len(names))
	for n := range names {
		if e, ok := c.get(n); ok {
			out[n] = e
		}
	}
	return out
}

func shortID() string {
	return uuid.NewString()[:4]
}

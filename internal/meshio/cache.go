package meshio

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/texelforge/uvwrap/internal/model"
)

// CachingLoader wraps a Loader with a bounded LRU cache keyed by path.
// The optimizer reloads the same mesh once per lattice point; the cache
// collapses that to a single disk read. Cached meshes are shared, which
// is safe because meshes are never mutated after construction.
type CachingLoader struct {
	inner Loader
	cache *lru.Cache[string, *model.Mesh]
}

// NewCachingLoader builds a caching loader holding up to size meshes.
func NewCachingLoader(inner Loader, size int) (*CachingLoader, error) {
	cache, err := lru.New[string, *model.Mesh](size)
	if err != nil {
		return nil, err
	}
	return &CachingLoader{inner: inner, cache: cache}, nil
}

// Load returns the cached mesh for path, loading it on a miss. Load
// errors are not cached; a later call retries the disk.
func (c *CachingLoader) Load(path string) (*model.Mesh, error) {
	if mesh, ok := c.cache.Get(path); ok {
		return mesh, nil
	}
	mesh, err := c.inner.Load(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, mesh)
	return mesh, nil
}

// Invalidate drops a path from the cache.
func (c *CachingLoader) Invalidate(path string) {
	c.cache.Remove(path)
}

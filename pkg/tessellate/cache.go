package tessellate

import (
	"sync"
	"sync/atomic"

	"github.com/chazu/projview/pkg/kernel"
	"github.com/chazu/projview/pkg/scene"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes meshes by geometry fingerprint so that redisplaying a scene,
// or displaying shapes with equal geometry, tessellates each geometry once.
// A Cache must only be used with one kernel. It is safe for concurrent use.
type Cache struct {
	workers int

	mu     sync.RWMutex
	meshes map[string]*kernel.Mesh
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache returns an empty cache that tessellates up to workers shapes at
// once. workers below 1 means 1.
func NewCache(workers int) *Cache {
	return &Cache{workers: workers, meshes: make(map[string]*kernel.Mesh)}
}

// Tessellate is like the package-level Tessellate but reuses cached meshes.
// The returned meshes share vertex data with the cache and must not be
// modified.
func (c *Cache) Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	return tessellate(s.Shapes(), k, c)
}

// Shapes is Tessellate over a fixed shape list. Mesh i belongs to shapes[i].
func (c *Cache) Shapes(shapes []*scene.Shape, k kernel.Kernel) ([]*kernel.Mesh, error) {
	return tessellate(shapes, k, c)
}

func (c *Cache) mesh(k kernel.Kernel, g scene.Geometry) (*kernel.Mesh, error) {
	key := scene.Fingerprint(g)
	c.mu.RLock()
	m, ok := c.meshes[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return m, nil
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		c.misses.Add(1)
		m, err := Geometry(k, g)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.meshes[key] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*kernel.Mesh), nil
}

// Len returns the number of cached geometries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.meshes)
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Reset drops every cached mesh.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.meshes = make(map[string]*kernel.Mesh)
	c.mu.Unlock()
}

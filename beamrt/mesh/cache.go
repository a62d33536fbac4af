package mesh

import (
	"sync"
)

// SharedCache memoizes one unit cone per side count for the scene lifetime.
type SharedCache struct {
	mu    sync.Mutex
	cones map[int]*Mesh
	cube  *Mesh

	// OnCreate and OnDestroy are optional; they run with the cache locked.
	OnCreate  func(m *Mesh)
	OnDestroy func(m *Mesh)
}

func NewSharedCache() *SharedCache {
	return &SharedCache{cones: make(map[int]*Mesh)}
}

// Cone returns the shared unit cone with the given side count. Repeated
// calls return the same *Mesh until the cache is purged.
func (c *SharedCache) Cone(sides int) (*Mesh, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.cones[sides]; ok {
		return m, nil
	}
	m, err := BuildCone(1, 1, 1, sides, 0, false)
	if err != nil {
		return nil, err
	}
	c.cones[sides] = m
	if c.OnCreate != nil {
		c.OnCreate(m)
	}
	return m, nil
}

// Cube returns the shared capped three sided variant.
func (c *SharedCache) Cube() *Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cube == nil {
		c.cube = MustBuildCone(1, 1, 1, 3, 0, true)
		if c.OnCreate != nil {
			c.OnCreate(c.cube)
		}
	}
	return c.cube
}

func (c *SharedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.cones)
	if c.cube != nil {
		n++
	}
	return n
}

// Purge destroys every shared mesh. The next lookup builds a fresh one.
func (c *SharedCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for sides, m := range c.cones {
		c.release(m)
		delete(c.cones, sides)
	}
	if c.cube != nil {
		c.release(c.cube)
		c.cube = nil
	}
}

func (c *SharedCache) release(m *Mesh) {
	m.destroy()
	if c.OnDestroy != nil {
		c.OnDestroy(m)
	}
}

package material

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gekko3d/lightbeam/beamrt/asset"
	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/texture"
)

var ErrMissingShader = errors.New("missing beam shader")

// Level1QueueOffset keeps Level-1 materials after every Level-0 one.
const Level1QueueOffset = 100

// Settings are the read-only inputs of a VariantCache.
type Settings struct {
	Level0Shader *Shader
	Level1Shader *Shader

	// Level-1 fallbacks when a beam sets no texture of its own.
	PlainTexture *texture.Texture
	NoiseTexture *texture.Texture
}

// VariantCache owns one material per VariantKey until the next Purge.
type VariantCache struct {
	settings Settings

	mu         sync.Mutex
	materials  map[VariantKey]*Material
	perLevel   map[core.LOD]int
	generation uint64

	// OnCreate and OnDestroy are optional; they run with the cache locked.
	OnCreate  func(m *Material)
	OnDestroy func(m *Material)
}

func NewVariantCache(settings Settings) *VariantCache {
	return &VariantCache{
		settings:  settings,
		materials: make(map[VariantKey]*Material),
		perLevel:  make(map[core.LOD]int),
	}
}

func (c *VariantCache) Settings() Settings { return c.settings }

// Key builds the normalized key for a request, resolving the Level-1
// fallback texture so that equal requests always share a material.
func (c *VariantCache) Key(flags Flags, front bool, lod core.LOD, override *texture.Texture) VariantKey {
	return c.normalize(NewVariantKey(flags, front, lod, override))
}

func (c *VariantCache) normalize(key VariantKey) VariantKey {
	if key.LOD == core.LOD1 {
		key.DepthBlend, key.ClippingPlane = false, false
		if key.Texture == nil {
			if key.Noise {
				key.Texture = c.settings.NoiseTexture
			} else {
				key.Texture = c.settings.PlainTexture
			}
		}
	} else {
		key.Texture = nil
	}
	return key
}

// Get returns the material for key, creating it on first use.
func (c *VariantCache) Get(key VariantKey) (*Material, error) {
	key = c.normalize(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.materials[key]; ok {
		return m, nil
	}

	shader, err := c.shaderFor(key.LOD)
	if err != nil {
		return nil, err
	}

	m := &Material{
		ID:          asset.NewId(),
		Name:        key.String(),
		Key:         key,
		Shader:      shader,
		Instancing:  true,
		Cull:        CullBack,
		RenderQueue: shader.RenderQueue + c.perLevel[key.LOD],
		Texture:     key.Texture,
	}
	if key.Front {
		m.Cull = CullFront
	}
	if key.LOD == core.LOD1 {
		m.RenderQueue += Level1QueueOffset
	}
	if key.Noise {
		m.Keywords = append(m.Keywords, KeywordNoise3D)
	}
	if key.DepthBlend {
		m.Keywords = append(m.Keywords, KeywordDepthBlend)
	}
	if key.ClippingPlane {
		m.Keywords = append(m.Keywords, KeywordClippingPlane)
	}

	c.materials[key] = m
	c.perLevel[key.LOD]++
	if c.OnCreate != nil {
		c.OnCreate(m)
	}
	return m, nil
}

func (c *VariantCache) shaderFor(lod core.LOD) (*Shader, error) {
	var shader *Shader
	switch lod {
	case core.LOD0:
		shader = c.settings.Level0Shader
	case core.LOD1:
		shader = c.settings.Level1Shader
	default:
		return nil, fmt.Errorf("%w: unknown detail level %d", ErrMissingShader, lod)
	}
	if shader == nil {
		return nil, fmt.Errorf("%w for detail level %d", ErrMissingShader, lod)
	}
	return shader, nil
}

func (c *VariantCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.materials)
}

// Generation counts purges.
func (c *VariantCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Purge destroys every cached material. Holders must resolve again through
// Get; a destroyed material is never handed out.
func (c *VariantCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, m := range c.materials {
		m.destroy()
		if c.OnDestroy != nil {
			c.OnDestroy(m)
		}
		delete(c.materials, key)
	}
	clear(c.perLevel)
	c.generation++
}

package material

import (
	"fmt"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/texture"
)

// Flags are the shader features a beam currently needs.
type Flags struct {
	Noise         bool
	DepthBlend    bool
	ClippingPlane bool
}

// VariantKey identifies one shared material. It is compared field by field,
// so adding a feature can never alias two variants.
type VariantKey struct {
	LOD           core.LOD
	Noise         bool
	DepthBlend    bool
	ClippingPlane bool
	Front         bool
	Texture       *texture.Texture // LOD1 only; identity, not content
}

// NewVariantKey drops what the level's shader cannot vary on. The Level-1
// shader has no depth blend or clipping variants, Level-0 samples no texture.
func NewVariantKey(flags Flags, front bool, lod core.LOD, override *texture.Texture) VariantKey {
	key := VariantKey{LOD: lod, Noise: flags.Noise, Front: front}
	switch lod {
	case core.LOD1:
		key.Texture = override
	default:
		key.DepthBlend = flags.DepthBlend
		key.ClippingPlane = flags.ClippingPlane
	}
	return key
}

func (k VariantKey) Flags() Flags {
	return Flags{Noise: k.Noise, DepthBlend: k.DepthBlend, ClippingPlane: k.ClippingPlane}
}

// Bits packs the boolean part of the key: noise 1, depth blend 2, clipping 4, front 8.
func (k VariantKey) Bits() int {
	bits := 0
	if k.Noise {
		bits |= 1 << 0
	}
	if k.DepthBlend {
		bits |= 1 << 1
	}
	if k.ClippingPlane {
		bits |= 1 << 2
	}
	if k.Front {
		bits |= 1 << 3
	}
	return bits
}

func (k VariantKey) String() string {
	if k.LOD == core.LOD1 {
		name := "default"
		if k.Texture != nil {
			name = k.Texture.Name
		}
		return fmt.Sprintf("LOD1-%d-%s", k.Bits(), name)
	}
	return fmt.Sprintf("LOD0-%d", k.Bits())
}

package material

import (
	"slices"
	"sync/atomic"

	"github.com/gekko3d/lightbeam/beamrt/asset"
	"github.com/gekko3d/lightbeam/beamrt/texture"
)

const (
	KeywordNoise3D       = "VLB_NOISE_3D"
	KeywordDepthBlend    = "VLB_DEPTH_BLEND"
	KeywordClippingPlane = "VLB_CLIPPING_PLANE"
)

// AllKeywords lists every toggle a beam shader may branch on.
var AllKeywords = []string{KeywordNoise3D, KeywordDepthBlend, KeywordClippingPlane}

// Shader is an opaque program. Backends interpret Source.
type Shader struct {
	Name        string `json:"name"`
	Source      string `json:"-"`
	Path        string `json:"path,omitempty"`
	RenderQueue int    `json:"render_queue"`
}

type CullMode int

const (
	CullBack  CullMode = 2
	CullFront CullMode = 1 // inside faces, used by the front geometry
)

func (c CullMode) String() string {
	if c == CullFront {
		return "front"
	}
	return "back"
}

// Material is a shared variant. Instances never write to it; per instance
// values travel in a parameter block.
type Material struct {
	ID          asset.Id
	Name        string
	Key         VariantKey
	Shader      *Shader
	Instancing  bool
	Cull        CullMode
	Keywords    []string
	RenderQueue int
	Texture     *texture.Texture

	destroyed atomic.Bool
}

func (m *Material) HasKeyword(keyword string) bool {
	return slices.Contains(m.Keywords, keyword)
}

func (m *Material) Destroyed() bool { return m.destroyed.Load() }

func (m *Material) destroy() { m.destroyed.Store(true) }

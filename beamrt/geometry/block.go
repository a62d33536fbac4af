package geometry

import (
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
)

// Per instance shader parameters.
const (
	ParamConeSlopeCosSin           = "_ConeSlopeCosSin"
	ParamConeRadius                = "_ConeRadius"
	ParamConeApexOffsetZ           = "_ConeApexOffsetZ"
	ParamIntensity                 = "_Intensity"
	ParamColor                     = "_Color"
	ParamAlphaInside               = "_AlphaInside"
	ParamAlphaOutside              = "_AlphaOutside"
	ParamAttenuationLerpLinearQuad = "_AttenuationLerpLinearQuad"
	ParamDistanceFadeStart         = "_DistanceFadeStart"
	ParamDistanceFadeEnd           = "_DistanceFadeEnd"
	ParamDistanceCamClipping       = "_DistanceCamClipping"
	ParamFresnelPow                = "_FresnelPow"
	ParamGlareBehind               = "_GlareBehind"
	ParamGlareFrontal              = "_GlareFrontal"
	ParamDepthBlendDistance        = "_DepthBlendDistance"
	ParamNoiseLocal                = "_NoiseLocal"
	ParamNoiseParam                = "_NoiseParam"
	ParamNoiseGlobal               = "_NoiseGlobal"
	ParamClippingPlaneWS           = "_ClippingPlaneWS"
	ParamCameraParams              = "_CameraParams"
)

// ParamBlock is a named set of uniforms. Scalars are stored in X.
type ParamBlock struct {
	values map[string]mgl32.Vec4
}

func NewParamBlock() *ParamBlock {
	return &ParamBlock{values: make(map[string]mgl32.Vec4)}
}

func (b *ParamBlock) SetFloat(name string, v float32) {
	b.values[name] = mgl32.Vec4{v, 0, 0, 0}
}

func (b *ParamBlock) SetVector(name string, v mgl32.Vec4) {
	b.values[name] = v
}

func (b *ParamBlock) SetColor(name string, c core.Color) {
	b.values[name] = c.Vec4()
}

func (b *ParamBlock) Float(name string) (float32, bool) {
	v, ok := b.values[name]
	return v.X(), ok
}

func (b *ParamBlock) Vector(name string) (mgl32.Vec4, bool) {
	v, ok := b.values[name]
	return v, ok
}

func (b *ParamBlock) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

func (b *ParamBlock) Len() int { return len(b.values) }

// Names returns the parameter names in sorted order.
func (b *ParamBlock) Names() []string {
	return slices.Sorted(maps.Keys(b.values))
}

func (b *ParamBlock) Clone() *ParamBlock {
	return &ParamBlock{values: maps.Clone(b.values)}
}

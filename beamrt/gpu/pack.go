package gpu

import (
	"encoding/binary"
	"math"
	"strings"
	"unicode"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/geometry"
)

// UniformParams is the order parameter slots appear in BeamUniforms.
// Every slot is a vec4<f32>; scalars live in x.
var UniformParams = []string{
	geometry.ParamConeSlopeCosSin,
	geometry.ParamConeRadius,
	geometry.ParamConeApexOffsetZ,
	geometry.ParamIntensity,
	geometry.ParamColor,
	geometry.ParamAlphaInside,
	geometry.ParamAlphaOutside,
	geometry.ParamAttenuationLerpLinearQuad,
	geometry.ParamDistanceFadeStart,
	geometry.ParamDistanceFadeEnd,
	geometry.ParamDistanceCamClipping,
	geometry.ParamFresnelPow,
	geometry.ParamGlareBehind,
	geometry.ParamGlareFrontal,
	geometry.ParamDepthBlendDistance,
	geometry.ParamNoiseLocal,
	geometry.ParamNoiseParam,
	geometry.ParamNoiseGlobal,
	geometry.ParamClippingPlaneWS,
	geometry.ParamCameraParams,
}

const (
	offsetModel     = 0
	offsetViewProj  = 64
	offsetCameraPos = 128
	offsetParams    = 144
	slotSize        = 16
)

// UniformLayout maps every field of BeamUniforms to its byte offset.
type UniformLayout struct {
	Offsets map[string]int
	Size    int // padded to 256 bytes
}

func NewUniformLayout() UniformLayout {
	l := UniformLayout{Offsets: map[string]int{
		"model":      offsetModel,
		"view_proj":  offsetViewProj,
		"camera_pos": offsetCameraPos,
	}}
	for i, name := range UniformParams {
		l.Offsets[name] = offsetParams + i*slotSize
	}
	raw := offsetParams + len(UniformParams)*slotSize
	l.Size = (raw + 255) &^ 255
	return l
}

var layout = NewUniformLayout()

// FrameParams are the per frame values shared by all beams.
type FrameParams struct {
	ViewProj   mgl32.Mat4
	CameraPos  mgl32.Vec3
	GammaColor bool // convert _Color to gamma space for non sRGB targets
}

// PackUniforms serializes one renderer into the BeamUniforms layout.
// Parameters missing from the block are written as zero.
func PackUniforms(model mgl32.Mat4, block *geometry.ParamBlock, frame FrameParams) []byte {
	buf := make([]byte, layout.Size)

	putVec := func(offset int, v []float32) {
		for i, f := range v {
			binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(f))
		}
	}

	putVec(offsetModel, model[:])
	putVec(offsetViewProj, frame.ViewProj[:])
	putVec(offsetCameraPos, frame.CameraPos[:])

	for _, name := range UniformParams {
		v, ok := block.Vector(name)
		if !ok {
			continue
		}
		if name == geometry.ParamColor && frame.GammaColor {
			v = core.Color{R: v[0], G: v[1], B: v[2], A: v[3]}.LinearToGamma().Vec4()
		}
		putVec(layout.Offsets[name], v[:])
	}
	return buf
}

// FieldName turns "_ConeSlopeCosSin" into "cone_slope_cos_sin" and
// "_ClippingPlaneWS" into "clipping_plane_ws".
func FieldName(param string) string {
	var sb strings.Builder
	prevUpper := true
	for _, r := range strings.TrimPrefix(param, "_") {
		upper := unicode.IsUpper(r)
		if upper && !prevUpper {
			sb.WriteByte('_')
		}
		prevUpper = upper
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

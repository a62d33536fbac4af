package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/texture"
)

var ErrInvalidParams = errors.New("invalid beam params")

type AttenuationEquation int

const (
	AttenuationLinear AttenuationEquation = iota
	AttenuationQuadratic
	AttenuationBlend
)

func (a AttenuationEquation) String() string {
	switch a {
	case AttenuationLinear:
		return "linear"
	case AttenuationQuadratic:
		return "quadratic"
	case AttenuationBlend:
		return "blend"
	}
	return fmt.Sprintf("attenuation(%d)", int(a))
}

// LOD selects the shader tier a beam is drawn with.
type LOD int

const (
	LOD0 LOD = iota // full procedural shading
	LOD1            // simplified textured variant
)

const (
	DefaultAlpha                  = 1.0
	DefaultSpotAngle              = 35.0
	MinSpotAngle                  = 0.1
	MaxSpotAngle                  = 179.9
	DefaultConeRadiusStart        = 0.1
	DefaultGeomSides              = 18
	MinGeomSides                  = 3
	MaxGeomSides                  = 256
	DefaultAttenuationBlending    = 0.5
	DefaultFadeStart              = 0.0
	DefaultFadeEnd                = 3.0
	FadeMinThreshold              = 0.01
	DefaultDepthBlendDistance     = 0.0
	DefaultCameraClippingDistance = 0.0
	MaxFresnelPow                 = 10.0
	DefaultFresnelPow             = 8.0
	DefaultGlareFrontal           = 0.5
	DefaultGlareBehind            = 0.5
	DefaultNoiseIntensity         = 0.5
	MinNoiseScale                 = 0.01
	MaxNoiseScale                 = 2.0
	DefaultNoiseScale             = 0.5
)

var DefaultNoiseVelocity = mgl32.Vec3{0.07, 0.18, 0.05}

// BeamParams are the declarative properties of a light beam. Everything the
// geometry and the shader need is derived from them on demand.
type BeamParams struct {
	SpotAngle       float32 `json:"spot_angle"` // full cone angle in degrees
	ConeRadiusStart float32 `json:"cone_radius_start"`
	FadeStart       float32 `json:"fade_start"`
	FadeEnd         float32 `json:"fade_end"`

	Attenuation               AttenuationEquation `json:"attenuation"`
	AttenuationCustomBlending float32             `json:"attenuation_custom_blending"`

	Color        Color   `json:"color"`
	Intensity    float32 `json:"intensity"`
	AlphaInside  float32 `json:"alpha_inside"`
	AlphaOutside float32 `json:"alpha_outside"`
	FresnelPow   float32 `json:"fresnel_pow"`
	GlareFrontal float32 `json:"glare_frontal"`
	GlareBehind  float32 `json:"glare_behind"`

	NoiseEnabled           bool       `json:"noise_enabled"`
	NoiseIntensity         float32    `json:"noise_intensity"`
	NoiseScaleUseGlobal    bool       `json:"noise_scale_use_global"`
	NoiseScaleLocal        float32    `json:"noise_scale_local"`
	NoiseVelocityUseGlobal bool       `json:"noise_velocity_use_global"`
	NoiseVelocityLocal     mgl32.Vec3 `json:"noise_velocity_local"`

	DepthBlendDistance     float32 `json:"depth_blend_distance"`
	CameraClippingDistance float32 `json:"camera_clipping_distance"`

	GeomSides       int              `json:"geom_sides"`
	LOD             LOD              `json:"lod"`
	OverrideTexture *texture.Texture `json:"-"`

	// TrackChanges makes the beam re-derive its geometry every tick.
	TrackChanges bool `json:"track_changes"`
}

func DefaultBeamParams() BeamParams {
	return BeamParams{
		SpotAngle:                 DefaultSpotAngle,
		ConeRadiusStart:           DefaultConeRadiusStart,
		FadeStart:                 DefaultFadeStart,
		FadeEnd:                   DefaultFadeEnd,
		Attenuation:               AttenuationQuadratic,
		AttenuationCustomBlending: DefaultAttenuationBlending,
		Color:                     White,
		Intensity:                 1,
		AlphaInside:               DefaultAlpha,
		AlphaOutside:              DefaultAlpha,
		FresnelPow:                DefaultFresnelPow,
		GlareFrontal:              DefaultGlareFrontal,
		GlareBehind:               DefaultGlareBehind,
		NoiseIntensity:            DefaultNoiseIntensity,
		NoiseScaleUseGlobal:       true,
		NoiseScaleLocal:           DefaultNoiseScale,
		NoiseVelocityUseGlobal:    true,
		NoiseVelocityLocal:        DefaultNoiseVelocity,
		DepthBlendDistance:        DefaultDepthBlendDistance,
		CameraClippingDistance:    DefaultCameraClippingDistance,
		GeomSides:                 DefaultGeomSides,
		LOD:                       LOD0,
	}
}

func (p *BeamParams) Validate() error {
	if !(p.FadeEnd > 0) {
		return fmt.Errorf("%w: fade end must be > 0, got %v", ErrInvalidParams, p.FadeEnd)
	}
	if !(p.SpotAngle > 0 && p.SpotAngle < 180) {
		return fmt.Errorf("%w: spot angle must be in (0, 180), got %v", ErrInvalidParams, p.SpotAngle)
	}
	if p.GeomSides < MinGeomSides {
		return fmt.Errorf("%w: geometry needs at least %d sides, got %d", ErrInvalidParams, MinGeomSides, p.GeomSides)
	}
	if p.ConeRadiusStart < 0 {
		return fmt.Errorf("%w: cone start radius must be >= 0, got %v", ErrInvalidParams, p.ConeRadiusStart)
	}
	if p.Attenuation == AttenuationBlend && (p.AttenuationCustomBlending < 0 || p.AttenuationCustomBlending > 1) {
		return fmt.Errorf("%w: attenuation blending must be in [0, 1], got %v", ErrInvalidParams, p.AttenuationCustomBlending)
	}
	if p.LOD != LOD0 && p.LOD != LOD1 {
		return fmt.Errorf("%w: unknown detail level %d", ErrInvalidParams, p.LOD)
	}
	return nil
}

func (p *BeamParams) ConeRadiusEnd() float32 {
	return p.FadeEnd * float32(math.Tan(float64(mgl32.DegToRad(p.SpotAngle))*0.5))
}

// ConeAngle is the full angle (degrees) of the slant lines joining both radii.
// It differs from SpotAngle as soon as the start radius is not zero.
func (p *BeamParams) ConeAngle() float32 {
	rad := math.Atan2(float64(p.ConeRadiusEnd()-p.ConeRadiusStart), float64(p.FadeEnd))
	return mgl32.RadToDeg(float32(rad)) * 2
}

// ConeApexOffsetZ is the distance behind the origin where both slant lines meet.
func (p *BeamParams) ConeApexOffsetZ() float32 {
	radiusEnd := p.ConeRadiusEnd()
	if radiusEnd == 0 {
		return 0
	}
	ratio := p.ConeRadiusStart / radiusEnd
	if ratio == 1 {
		return 0
	}
	return (p.FadeEnd * ratio) / (1 - ratio)
}

func (p *BeamParams) ConeVolume() float32 {
	r1, r2 := p.ConeRadiusStart, p.ConeRadiusEnd()
	return (math.Pi / 3) * (r1*r1 + r1*r2 + r2*r2) * p.FadeEnd
}

// AttenuationLerpLinearQuad is the mix factor between linear (0) and quadratic (1) falloff.
func (p *BeamParams) AttenuationLerpLinearQuad() float32 {
	switch p.Attenuation {
	case AttenuationLinear:
		return 0
	case AttenuationQuadratic:
		return 1
	}
	return p.AttenuationCustomBlending
}

// SlopeCosSin returns cos/sin of the half cone angle.
func (p *BeamParams) SlopeCosSin() mgl32.Vec2 {
	slope := float64(mgl32.DegToRad(p.ConeAngle())) / 2
	return mgl32.Vec2{float32(math.Cos(slope)), float32(math.Sin(slope))}
}

// LocalBounds is the object space box enclosing the scaled unit cone.
func (p *BeamParams) LocalBounds() Bounds {
	radiusMax := max(p.ConeRadiusStart, p.ConeRadiusEnd())
	length := p.FadeEnd
	return Bounds{
		Center:  mgl32.Vec3{0, 0, length / 2},
		Extents: mgl32.Vec3{radiusMax, radiusMax, length / 2},
	}
}

// InsideBeamFactor tells how deep an object space position sits in the
// (infinitely long) cone: < 0 outside, 0 on the surface, > 0 inside.
func (p *BeamParams) InsideBeamFactor(posOS mgl32.Vec3) float32 {
	if posOS.Z() < 0 {
		return -1
	}
	triangle := mgl32.Vec2{mgl32.Vec2{posOS.X(), posOS.Y()}.Len(), posOS.Z() + p.ConeApexOffsetZ()}
	if triangle.Len() > 0 {
		triangle = triangle.Normalize()
	}
	const maxRadiansDiff = 0.1
	slope := p.SlopeCosSin()
	return mgl32.Clamp((abs(slope.Y())-abs(triangle.X()))/maxRadiansDiff, -1, 1)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Package geometry keeps one renderer in sync with a beam's parameters.
//
// Each refresh re-derives the feature flags, swaps the shared material only
// when the resulting variant key changed, and then pushes a fresh parameter
// block. Numeric parameters never cause a rebind.
package geometry

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/mesh"
)

var ErrIncompleteOptions = errors.New("beam geometry needs mesh cache, material cache and renderer")

// Globals are the scene wide noise settings shared by all beams.
type Globals struct {
	NoiseSupported bool
	NoiseScale     float32
	NoiseVelocity  mgl32.Vec3
}

type Options struct {
	Front     bool // inside faces of the cone
	Meshes    *mesh.SharedCache
	Materials *material.VariantCache
	Renderer  Renderer
	Globals   Globals
}

type BeamGeometry struct {
	opts Options

	mesh     *mesh.Mesh
	material *material.Material
	key      material.VariantKey

	clipping *core.Plane
	last     core.BeamParams
	hasLast  bool

	block   *ParamBlock
	bounds  core.Bounds
	rebinds int
	visible bool
}

func New(opts Options) (*BeamGeometry, error) {
	if opts.Meshes == nil || opts.Materials == nil || opts.Renderer == nil {
		return nil, ErrIncompleteOptions
	}
	return &BeamGeometry{opts: opts, block: NewParamBlock(), visible: true}, nil
}

func (g *BeamGeometry) Front() bool                  { return g.opts.Front }
func (g *BeamGeometry) Mesh() *mesh.Mesh             { return g.mesh }
func (g *BeamGeometry) Material() *material.Material { return g.material }
func (g *BeamGeometry) Key() material.VariantKey     { return g.key }
func (g *BeamGeometry) Bounds() core.Bounds          { return g.bounds }
func (g *BeamGeometry) Renderer() Renderer           { return g.opts.Renderer }
func (g *BeamGeometry) ClippingPlane() (core.Plane, bool) {
	if g.clipping == nil {
		return core.Plane{}, false
	}
	return *g.clipping, true
}

// Block returns a copy of the last pushed parameter block.
func (g *BeamGeometry) Block() *ParamBlock { return g.block.Clone() }

// Rebinds counts material swaps since creation.
func (g *BeamGeometry) Rebinds() int { return g.rebinds }

// Flags derives the shader features p needs right now.
func (g *BeamGeometry) Flags(p *core.BeamParams) material.Flags {
	return material.Flags{
		Noise:         p.NoiseEnabled && p.NoiseIntensity > 0 && g.opts.Globals.NoiseSupported,
		DepthBlend:    p.DepthBlendDistance > 0,
		ClippingPlane: g.clipping != nil,
	}
}

// Refresh brings the renderer in line with p.
func (g *BeamGeometry) Refresh(p *core.BeamParams) error {
	if err := p.Validate(); err != nil {
		return err
	}

	flags := g.Flags(p)
	key := g.opts.Materials.Key(flags, g.opts.Front, p.LOD, p.OverrideTexture)
	if g.material == nil || key != g.key || g.material.Destroyed() {
		m, err := g.opts.Materials.Get(key)
		if err != nil {
			return err
		}
		g.material, g.key = m, key
		g.rebinds++
		g.opts.Renderer.SetMaterial(m)
	}

	cone, err := g.opts.Meshes.Cone(p.GeomSides)
	if err != nil {
		return err
	}
	if cone != g.mesh {
		g.mesh = cone
		g.opts.Renderer.SetMesh(cone)
	}

	g.block = g.buildBlock(p, flags)
	g.opts.Renderer.SetParams(g.block)

	g.bounds = p.LocalBounds()
	g.opts.Renderer.SetBounds(g.bounds)

	g.last = *p
	g.hasLast = true
	return nil
}

func (g *BeamGeometry) buildBlock(p *core.BeamParams, flags material.Flags) *ParamBlock {
	block := NewParamBlock()
	slope := p.SlopeCosSin()
	block.SetVector(ParamConeSlopeCosSin, mgl32.Vec4{slope.X(), slope.Y(), 0, 0})
	block.SetVector(ParamConeRadius, mgl32.Vec4{p.ConeRadiusStart, p.ConeRadiusEnd(), 0, 0})
	block.SetFloat(ParamConeApexOffsetZ, p.ConeApexOffsetZ())
	block.SetFloat(ParamIntensity, p.Intensity)
	block.SetColor(ParamColor, p.Color)
	block.SetFloat(ParamAlphaInside, p.AlphaInside)
	block.SetFloat(ParamAlphaOutside, p.AlphaOutside)
	block.SetFloat(ParamAttenuationLerpLinearQuad, p.AttenuationLerpLinearQuad())
	block.SetFloat(ParamDistanceFadeStart, p.FadeStart)
	block.SetFloat(ParamDistanceFadeEnd, p.FadeEnd)
	block.SetFloat(ParamDistanceCamClipping, p.CameraClippingDistance)
	block.SetFloat(ParamFresnelPow, p.FresnelPow)
	block.SetFloat(ParamGlareBehind, p.GlareBehind)
	block.SetFloat(ParamGlareFrontal, p.GlareFrontal)

	if flags.DepthBlend {
		block.SetFloat(ParamDepthBlendDistance, p.DepthBlendDistance)
	}
	if flags.Noise {
		v := p.NoiseVelocityLocal
		block.SetVector(ParamNoiseLocal, mgl32.Vec4{v.X(), v.Y(), v.Z(), p.NoiseScaleLocal})
		block.SetVector(ParamNoiseParam, mgl32.Vec4{p.NoiseIntensity, boolf(p.NoiseVelocityUseGlobal), boolf(p.NoiseScaleUseGlobal), 0})
		gv := g.opts.Globals.NoiseVelocity
		block.SetVector(ParamNoiseGlobal, mgl32.Vec4{gv.X(), gv.Y(), gv.Z(), g.opts.Globals.NoiseScale})
	}
	if g.clipping != nil {
		block.SetVector(ParamClippingPlaneWS, g.clipping.Vec4())
	}
	if cam, ok := g.block.Vector(ParamCameraParams); ok {
		block.SetVector(ParamCameraParams, cam)
	}
	return block
}

// SetClippingPlane enables clipping against a world space plane and
// refreshes right away when the geometry was refreshed before.
func (g *BeamGeometry) SetClippingPlane(plane core.Plane) error {
	g.clipping = &plane
	return g.refreshLast()
}

func (g *BeamGeometry) ClearClippingPlane() error {
	if g.clipping == nil {
		return nil
	}
	g.clipping = nil
	return g.refreshLast()
}

func (g *BeamGeometry) refreshLast() error {
	if !g.hasLast {
		return nil
	}
	p := g.last
	return g.Refresh(&p)
}

// UpdateCamera pushes the camera forward direction (object space) and how
// deep the camera sits inside the beam. Nothing happens before the first
// successful Refresh.
func (g *BeamGeometry) UpdateCamera(forwardOS mgl32.Vec3, insideFactor float32) {
	if g.material == nil {
		return
	}
	if forwardOS.Len() > 0 {
		forwardOS = forwardOS.Normalize()
	}
	block := g.block.Clone()
	block.SetVector(ParamCameraParams, forwardOS.Vec4(insideFactor))
	g.block = block
	g.opts.Renderer.SetParams(block)
}

func (g *BeamGeometry) SetVisible(visible bool) {
	g.visible = visible
	g.opts.Renderer.SetVisible(visible)
}

func (g *BeamGeometry) Visible() bool { return g.visible }

// Release forgets the bound resources. The next Refresh resolves them again.
func (g *BeamGeometry) Release() {
	g.material = nil
	g.mesh = nil
	g.key = material.VariantKey{}
	g.opts.Renderer.SetMaterial(nil)
	g.opts.Renderer.SetMesh(nil)
}

func boolf(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

package lightbeam

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/geometry"
)

type BeamId uint64

// BeamLifecycle is implemented by components attached to a beam. They are
// notified after the beam itself changed state.
type BeamLifecycle interface {
	OnActivate(b *VolumetricBeam)
	OnDeactivate(b *VolumetricBeam)
	OnTeardown(b *VolumetricBeam)
}

// VolumetricBeam is one light beam in the scene. It draws the cone twice:
// the front geometry renders inside faces, the back geometry outside faces.
type VolumetricBeam struct {
	Id         BeamId
	Name       string
	Params     core.BeamParams
	Transform  core.Transform
	Persistent bool
	Occlusion  *DynamicOcclusion

	world *BeamWorld

	front, back                 *geometry.BeamGeometry
	frontRenderer, backRenderer *geometry.MeshRenderer

	active       bool
	needsRefresh bool
}

func newVolumetricBeam(world *BeamWorld, id BeamId, name string, params core.BeamParams, tr core.Transform) *VolumetricBeam {
	return &VolumetricBeam{
		Id:        id,
		Name:      name,
		Params:    params,
		Transform: tr,
		world:     world,
	}
}

func (b *VolumetricBeam) Active() bool { return b.active }

// Geometry returns the front (inside faces) or back geometry, nil before
// GenerateGeometry.
func (b *VolumetricBeam) Geometry(front bool) *geometry.BeamGeometry {
	if front {
		return b.front
	}
	return b.back
}

// GenerateGeometry (re)binds both geometries to the shared caches. It is the
// only way to apply a new side count to a beam that does not track changes.
func (b *VolumetricBeam) GenerateGeometry() error {
	if b.world == nil {
		return fmt.Errorf("beam %q is not attached to a world", b.Name)
	}
	if b.front == nil {
		b.frontRenderer = geometry.NewMeshRenderer()
		g, err := geometry.New(b.geometryOptions(true, b.frontRenderer))
		if err != nil {
			return err
		}
		b.front = g
	}
	if b.back == nil {
		b.backRenderer = geometry.NewMeshRenderer()
		g, err := geometry.New(b.geometryOptions(false, b.backRenderer))
		if err != nil {
			return err
		}
		b.back = g
	}
	b.front.SetVisible(b.active)
	b.back.SetVisible(b.active)
	return b.refresh()
}

func (b *VolumetricBeam) geometryOptions(front bool, r geometry.Renderer) geometry.Options {
	return geometry.Options{
		Front:     front,
		Meshes:    b.world.Meshes,
		Materials: b.world.Materials,
		Renderer:  r,
		Globals:   b.world.Config.Globals(),
	}
}

// UpdateAfterPropertyChange pushes the current Params to both geometries.
func (b *VolumetricBeam) UpdateAfterPropertyChange() error {
	if b.front == nil || b.back == nil {
		return b.GenerateGeometry()
	}
	return b.refresh()
}

func (b *VolumetricBeam) refresh() error {
	if err := b.front.Refresh(&b.Params); err != nil {
		return fmt.Errorf("beam %q front: %w", b.Name, err)
	}
	if err := b.back.Refresh(&b.Params); err != nil {
		return fmt.Errorf("beam %q back: %w", b.Name, err)
	}
	b.needsRefresh = false
	b.syncModel()
	return nil
}

func (b *VolumetricBeam) syncModel() {
	model := b.Transform.ObjectToWorld()
	for _, r := range b.Renderers() {
		r.SetModel(model)
	}
}

func (b *VolumetricBeam) SetClippingPlane(planeWS core.Plane) error {
	for _, g := range b.geometries() {
		if err := g.SetClippingPlane(planeWS); err != nil {
			return err
		}
	}
	return nil
}

func (b *VolumetricBeam) ClearClippingPlane() error {
	for _, g := range b.geometries() {
		if err := g.ClearClippingPlane(); err != nil {
			return err
		}
	}
	return nil
}

func (b *VolumetricBeam) geometries() []*geometry.BeamGeometry {
	var out []*geometry.BeamGeometry
	if b.front != nil {
		out = append(out, b.front)
	}
	if b.back != nil {
		out = append(out, b.back)
	}
	return out
}

// InsideBeamFactor is > 0 when posWS is inside the cone, < 0 outside.
func (b *VolumetricBeam) InsideBeamFactor(posWS mgl32.Vec3) float32 {
	return b.Params.InsideBeamFactor(b.Transform.InverseTransformPoint(posWS))
}

// Bounds is the world space box of the beam.
func (b *VolumetricBeam) Bounds() core.Bounds {
	return b.Params.LocalBounds().Transformed(b.Transform.ObjectToWorld())
}

func (b *VolumetricBeam) MeshStats() string {
	if b.front == nil || b.front.Mesh() == nil {
		return "no mesh available"
	}
	return fmt.Sprintf("Cone angle: %.1f degrees\nMesh: %s", b.Params.ConeAngle(), b.front.Mesh().Stats())
}

// UpdateCamera feeds the camera direction and inside factor to both shaders.
func (b *VolumetricBeam) UpdateCamera(cam *core.CameraState) {
	forwardOS := b.Transform.InverseTransformDirection(cam.GetForward())
	inside := float32(-1)
	if !cam.Orthographic {
		inside = b.InsideBeamFactor(cam.Position)
	}
	for _, g := range b.geometries() {
		g.UpdateCamera(forwardOS, inside)
	}
}

// Renderers returns the renderers of both geometries, front first.
func (b *VolumetricBeam) Renderers() []*geometry.MeshRenderer {
	var out []*geometry.MeshRenderer
	if b.frontRenderer != nil {
		out = append(out, b.frontRenderer)
	}
	if b.backRenderer != nil {
		out = append(out, b.backRenderer)
	}
	return out
}

func (b *VolumetricBeam) OnActivate() {
	b.active = true
	for _, g := range b.geometries() {
		g.SetVisible(true)
	}
	for _, a := range b.attachments() {
		a.OnActivate(b)
	}
}

func (b *VolumetricBeam) OnDeactivate() {
	b.active = false
	for _, g := range b.geometries() {
		g.SetVisible(false)
	}
	for _, a := range b.attachments() {
		a.OnDeactivate(b)
	}
}

// OnTeardown drops both geometries. The shared mesh and materials stay in
// their caches.
func (b *VolumetricBeam) OnTeardown() {
	for _, a := range b.attachments() {
		a.OnTeardown(b)
	}
	for _, g := range b.geometries() {
		g.Release()
	}
	b.front, b.back = nil, nil
	b.frontRenderer, b.backRenderer = nil, nil
	b.active = false
}

func (b *VolumetricBeam) attachments() []BeamLifecycle {
	if b.Occlusion == nil {
		return nil
	}
	return []BeamLifecycle{b.Occlusion}
}

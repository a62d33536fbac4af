package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/mesh"
)

// Renderer receives what a BeamGeometry resolves. Material changes are
// always delivered before the parameter block that goes with them.
type Renderer interface {
	SetMesh(m *mesh.Mesh)
	SetMaterial(m *material.Material)
	SetParams(b *ParamBlock)
	SetBounds(b core.Bounds)
	SetVisible(visible bool)
}

// MeshRenderer is the CPU side draw state read by the GPU beam pass.
type MeshRenderer struct {
	Mesh     *mesh.Mesh
	Material *material.Material
	Params   *ParamBlock
	Bounds   core.Bounds // object space
	Visible  bool
	Model    mgl32.Mat4

	// Culled is set by the frustum test, independent of Visible.
	Culled bool
}

func NewMeshRenderer() *MeshRenderer {
	return &MeshRenderer{Visible: true, Model: mgl32.Ident4(), Params: NewParamBlock()}
}

func (r *MeshRenderer) SetMesh(m *mesh.Mesh)             { r.Mesh = m }
func (r *MeshRenderer) SetMaterial(m *material.Material) { r.Material = m }
func (r *MeshRenderer) SetBounds(b core.Bounds)          { r.Bounds = b }
func (r *MeshRenderer) SetVisible(visible bool)          { r.Visible = visible }

// SetParams copies b so later writes by the caller are not observed.
func (r *MeshRenderer) SetParams(b *ParamBlock) { r.Params = b.Clone() }

func (r *MeshRenderer) SetModel(m mgl32.Mat4) { r.Model = m }

// WorldBounds is the renderer bounds under the current model matrix.
func (r *MeshRenderer) WorldBounds() core.Bounds {
	return r.Bounds.Transformed(r.Model)
}

// Drawable reports whether the pass has everything it needs.
func (r *MeshRenderer) Drawable() bool {
	return r.Visible && !r.Culled && r.Mesh != nil && !r.Mesh.Destroyed() &&
		r.Material != nil && !r.Material.Destroyed()
}

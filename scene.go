package lightbeam

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
)

// SceneDef defines the beams a scene starts with.
type SceneDef struct {
	Name  string    `json:"name"`
	Beams []BeamDef `json:"beams"`
}

// BeamDef defines a beam instantiation.
type BeamDef struct {
	Name     string     `json:"name"`
	Position mgl32.Vec3 `json:"position"`
	Rotation mgl32.Quat `json:"rotation"`
	Scale    mgl32.Vec3 `json:"scale"`

	// Params nil selects the defaults with the configured side count.
	Params      *core.BeamParams `json:"params,omitempty"`
	TexturePath string           `json:"texture_path,omitempty"`
	Persistent  bool             `json:"persistent,omitempty"`

	Occlusion *DynamicOcclusion `json:"occlusion,omitempty"`
}

func (d BeamDef) BeamParams(cfg Config) core.BeamParams {
	if d.Params != nil {
		return *d.Params
	}
	p := core.DefaultBeamParams()
	p.GeomSides = cfg.DefaultSides
	return p
}

// Transform fills in identity rotation and unit scale when they are unset.
func (d BeamDef) Transform() core.Transform {
	tr := *core.NewTransform()
	tr.Position = d.Position
	if d.Rotation != (mgl32.Quat{}) {
		tr.Rotation = d.Rotation.Normalize()
	}
	if d.Scale != (mgl32.Vec3{}) {
		tr.Scale = d.Scale
	}
	return tr
}

// SpawnScene queues every beam of def and returns their ids in order.
func (cmd *Commands) SpawnScene(def SceneDef) []BeamId {
	ids := make([]BeamId, 0, len(def.Beams))
	for _, b := range def.Beams {
		ids = append(ids, cmd.SpawnBeam(b))
	}
	return ids
}

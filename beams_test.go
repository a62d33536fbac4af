package lightbeam

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lightbeam/beamrt/core"
	"github.com/gekko3d/lightbeam/beamrt/geometry"
	"github.com/gekko3d/lightbeam/beamrt/material"
	"github.com/gekko3d/lightbeam/beamrt/mesh"
)

func newTestWorld(t *testing.T) *BeamWorld {
	t.Helper()
	world, err := NewBeamWorld(DefaultConfig(), nil)
	require.NoError(t, err)
	return world
}

func trackedParams() *core.BeamParams {
	p := core.DefaultBeamParams()
	p.TrackChanges = true
	return &p
}

func TestBeamWorld_SpawnBindsFrontAndBack(t *testing.T) {
	world := newTestWorld(t)

	b, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)

	front, back := b.Geometry(true), b.Geometry(false)
	require.NotNil(t, front)
	require.NotNil(t, back)
	assert.Same(t, front.Mesh(), back.Mesh(), "both sides share the cone")
	assert.NotSame(t, front.Material(), back.Material())
	assert.Len(t, b.Renderers(), 2)
	assert.True(t, b.Active())
	for _, r := range b.Renderers() {
		assert.True(t, r.Drawable())
	}

	assert.Equal(t, 1, world.Meshes.Len())
	assert.Equal(t, 2, world.Materials.Len())
	assert.Contains(t, b.MeshStats(), "Cone angle: ")
	assert.Contains(t, b.MeshStats(), "Mesh: ")
}

func TestBeamWorld_SpawnUsesConfiguredSides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultSides = 7
	world, err := NewBeamWorld(cfg, nil)
	require.NoError(t, err)

	b, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, 7, b.Geometry(true).Mesh().Sides)
}

func TestBeamWorld_IdenticalBeamsShareMaterials(t *testing.T) {
	world := newTestWorld(t)

	a, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)
	b, err := world.Spawn(2, BeamDef{Name: "b", Position: mgl32.Vec3{3, 0, 0}})
	require.NoError(t, err)

	assert.Same(t, a.Geometry(true).Material(), b.Geometry(true).Material())
	assert.Same(t, a.Geometry(false).Material(), b.Geometry(false).Material())
	assert.Equal(t, 2, world.Materials.Len())
	assert.Len(t, world.Renderers(), 4)
}

func TestBeamWorld_SpawnRejectsDuplicateAndInvalid(t *testing.T) {
	world := newTestWorld(t)

	_, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)
	_, err = world.Spawn(1, BeamDef{Name: "again"})
	assert.Error(t, err)

	bad := core.DefaultBeamParams()
	bad.FadeEnd = 0
	_, err = world.Spawn(2, BeamDef{Name: "bad", Params: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidParams)
	_, ok := world.Beam(2)
	assert.False(t, ok)
	assert.Equal(t, 1, world.Len())
}

func TestBeamRefreshSystem_NumericChangeKeepsMaterial(t *testing.T) {
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{Name: "a", Params: trackedParams()})
	require.NoError(t, err)
	bound := b.Geometry(true).Material()

	b.Params.Color = core.Color{R: 1, G: 0, B: 0, A: 1}
	b.Params.Intensity = 2
	beamRefreshSystem(world)

	assert.Same(t, bound, b.Geometry(true).Material())
	assert.Equal(t, 1, b.Geometry(true).Rebinds())
	intensity, _ := b.Renderers()[0].Params.Float(geometry.ParamIntensity)
	assert.Equal(t, float32(2), intensity)
}

func TestBeamRefreshSystem_UntrackedBeamIgnoresEdits(t *testing.T) {
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)

	b.Params.Intensity = 3
	beamRefreshSystem(world)
	intensity, _ := b.Renderers()[0].Params.Float(geometry.ParamIntensity)
	assert.Equal(t, float32(1), intensity)

	require.NoError(t, b.UpdateAfterPropertyChange())
	intensity, _ = b.Renderers()[0].Params.Float(geometry.ParamIntensity)
	assert.Equal(t, float32(3), intensity)
}

func TestBeamRefreshSystem_FlagChangeRebinds(t *testing.T) {
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{Name: "a", Params: trackedParams()})
	require.NoError(t, err)
	before := b.Geometry(true).Material()

	b.Params.NoiseEnabled = true
	beamRefreshSystem(world)

	after := b.Geometry(true).Material()
	assert.NotSame(t, before, after)
	assert.True(t, after.Key.Noise)
	assert.Equal(t, 4, world.Materials.Len())
}

func TestBeamWorld_DespawnRunsHooks(t *testing.T) {
	world := newTestWorld(t)
	_, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)

	var seen int
	world.OnDespawn(func(b *VolumetricBeam) {
		seen = len(b.Renderers())
	})
	require.NoError(t, world.Despawn(1))

	assert.Equal(t, 2, seen, "hooks see the renderers before teardown")
	assert.Equal(t, 0, world.Len())
	assert.Error(t, world.Despawn(1))
}

func TestBeamWorld_TeardownKeepsPersistentBeams(t *testing.T) {
	world := newTestWorld(t)
	_, err := world.Spawn(1, BeamDef{Name: "scene"})
	require.NoError(t, err)
	kept, err := world.Spawn(2, BeamDef{Name: "kept", Persistent: true})
	require.NoError(t, err)
	oldMaterial := kept.Geometry(true).Material()

	var meshes, materials int
	world.OnRelease(
		func(*mesh.Mesh) { meshes++ },
		func(*material.Material) { materials++ },
	)

	world.Teardown()

	assert.Equal(t, 1, world.Len())
	assert.Equal(t, 0, world.Meshes.Len())
	assert.Equal(t, 0, world.Materials.Len())
	assert.Equal(t, 1, meshes)
	assert.Equal(t, 2, materials)
	assert.True(t, oldMaterial.Destroyed())
	assert.False(t, kept.Renderers()[0].Drawable())

	beamRefreshSystem(world)

	assert.NotSame(t, oldMaterial, kept.Geometry(true).Material())
	assert.True(t, kept.Renderers()[0].Drawable())
	assert.Equal(t, 2, world.Materials.Len())
}

func TestVolumetricBeam_InsideFactorAndBounds(t *testing.T) {
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{Name: "a", Position: mgl32.Vec3{10, 0, 0}})
	require.NoError(t, err)

	assert.Greater(t, b.InsideBeamFactor(mgl32.Vec3{10, 0, 1}), float32(0))
	assert.Less(t, b.InsideBeamFactor(mgl32.Vec3{15, 0, 1}), float32(0))
	assert.Equal(t, float32(-1), b.InsideBeamFactor(mgl32.Vec3{10, 0, -1}))

	bounds := b.Bounds()
	assert.InDelta(t, 10, bounds.Center.X(), 1e-5)
	assert.InDelta(t, b.Params.FadeEnd/2, bounds.Center.Z(), 1e-5)
}

func TestVolumetricBeam_ClippingPlaneTogglesVariant(t *testing.T) {
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)

	require.NoError(t, b.SetClippingPlane(core.NewPlane(mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 0, 2})))
	assert.True(t, b.Geometry(true).Material().Key.ClippingPlane)
	assert.True(t, b.Geometry(false).Material().Key.ClippingPlane)

	require.NoError(t, b.ClearClippingPlane())
	assert.False(t, b.Geometry(true).Material().Key.ClippingPlane)
}

func TestVolumetricBeam_DeactivateHides(t *testing.T) {
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{Name: "a"})
	require.NoError(t, err)

	b.OnDeactivate()
	for _, r := range b.Renderers() {
		assert.False(t, r.Drawable())
	}
	b.OnActivate()
	for _, r := range b.Renderers() {
		assert.True(t, r.Drawable())
	}
}

func TestBeamCameraSystem_CullsAndFeedsCamera(t *testing.T) {
	world := newTestWorld(t)
	visible, err := world.Spawn(1, BeamDef{Name: "front"})
	require.NoError(t, err)
	hidden, err := world.Spawn(2, BeamDef{Name: "behind", Position: mgl32.Vec3{0, -30, 0}})
	require.NoError(t, err)

	cam := &Camera{CameraState: *core.NewCameraState(), Aspect: 16.0 / 9.0}
	beamCameraSystem(world, cam)

	for _, r := range visible.Renderers() {
		assert.False(t, r.Culled)
		camParams, ok := r.Params.Vector(geometry.ParamCameraParams)
		require.True(t, ok)
		assert.InDelta(t, 1, camParams.Vec3().Len(), 1e-5)
	}
	for _, r := range hidden.Renderers() {
		assert.True(t, r.Culled)
	}
}

func TestBeamModule_SceneChangeTearsDown(t *testing.T) {
	app := NewAppBuilder().
		UseStates(0, 2).
		UseModule(BeamModule{Config: DefaultConfig()}).
		Build()
	world, ok := resource[BeamWorld](app)
	require.True(t, ok)

	cmd := app.Commands()
	id := cmd.SpawnBeam(BeamDef{Name: "a"})
	keep := cmd.SpawnBeam(BeamDef{Name: "kept", Persistent: true})
	app.FlushCommands()
	require.Equal(t, 2, world.Len())

	cmd.ChangeScene(1)
	require.False(t, app.Tick())

	_, ok = world.Beam(id)
	assert.False(t, ok)
	kept, ok := world.Beam(keep)
	require.True(t, ok)

	app.Tick()
	assert.True(t, kept.Renderers()[0].Drawable(), "persistent beam rebinds after the purge")
}

func TestCommands_DespawnBeam(t *testing.T) {
	app := NewAppBuilder().UseModule(BeamModule{Config: DefaultConfig()}).Build()
	world, _ := resource[BeamWorld](app)

	cmd := app.Commands()
	id := cmd.SpawnBeam(BeamDef{Name: "a"})
	app.FlushCommands()
	require.Equal(t, 1, world.Len())

	cmd.DespawnBeam(id)
	app.FlushCommands()
	assert.Equal(t, 0, world.Len())
}

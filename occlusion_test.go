package lightbeam

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lightbeam/beamrt/core"
)

type fakeRaycaster struct {
	hits  []RaycastHit
	calls int

	lastOrigin, lastDir mgl32.Vec3
	lastMax             float32
}

func (f *fakeRaycaster) RaycastAll(origin, dir mgl32.Vec3, maxDistance float32, layerMask int) []RaycastHit {
	f.calls++
	f.lastOrigin, f.lastDir, f.lastMax = origin, dir, maxDistance
	return f.hits
}

func box(center mgl32.Vec3, extents mgl32.Vec3) core.Bounds {
	return core.Bounds{Center: center, Extents: extents}
}

// downBeam spawns a beam at (0,0,4) shining along -Z.
func downBeam(t *testing.T, occ DynamicOcclusion) (*BeamWorld, *VolumetricBeam) {
	t.Helper()
	world := newTestWorld(t)
	b, err := world.Spawn(1, BeamDef{
		Name:      "down",
		Position:  mgl32.Vec3{0, 0, 4},
		Rotation:  mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{1, 0, 0}),
		Occlusion: &occ,
	})
	require.NoError(t, err)
	return world, b
}

func TestDynamicOcclusion_Validate(t *testing.T) {
	tests := []struct {
		name      string
		area      float32
		wait      int
		wantArea  float32
		wantFrame int
	}{
		{"defaults kept", 0.5, 3, 0.5, 3},
		{"negative area", -2, 3, 0, 3},
		{"zero wait", 0, 0, 0, 1},
		{"huge wait", 0, 500, 0, MaxWaitFrameCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DynamicOcclusion{MinOccluderArea: tt.area, WaitFrameCount: tt.wait}
			o.Validate()
			assert.Equal(t, tt.wantArea, o.MinOccluderArea)
			assert.Equal(t, tt.wantFrame, o.WaitFrameCount)
		})
	}
}

func TestDynamicOcclusion_BestHit(t *testing.T) {
	small := box(mgl32.Vec3{}, mgl32.Vec3{0.1, 0.1, 0.1})
	large := box(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	hits := []RaycastHit{
		{Distance: 3, Bounds: large},
		{Distance: 1, Bounds: small},
		{Distance: 2, Bounds: large},
	}

	o := DefaultDynamicOcclusion()
	best, ok := o.BestHit(hits)
	require.True(t, ok)
	assert.Equal(t, float32(1), best.Distance)

	o.MinOccluderArea = 1
	best, ok = o.BestHit(hits)
	require.True(t, ok)
	assert.Equal(t, float32(2), best.Distance, "small occluders are skipped")

	o.MinOccluderArea = 100
	_, ok = o.BestHit(hits)
	assert.False(t, ok)
}

func TestDynamicOcclusion_SurfaceAlignment(t *testing.T) {
	_, b := downBeam(t, DefaultDynamicOcclusion())
	occluders := &OccluderSet{}
	occluders.Add(Occluder{Name: "table", Bounds: box(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 1, 0.1})})

	require.NoError(t, b.Occlusion.Process(b, occluders))

	hit, ok := b.Occlusion.CurrentHit()
	require.True(t, ok)
	assert.InDelta(t, 2.9, hit.Distance, 1e-4)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, hit.Normal)

	plane, ok := b.Geometry(true).ClippingPlane()
	require.True(t, ok)
	assert.InDelta(t, 1, plane.Normal.Z(), 1e-5)
	// plane through z=1.1 moved 0.1 along its normal
	assert.InDelta(t, -1.0, plane.Distance, 1e-4)
	assert.True(t, b.Geometry(true).Material().Key.ClippingPlane)
}

func TestDynamicOcclusion_BeamAlignment(t *testing.T) {
	occ := DefaultDynamicOcclusion()
	occ.PlaneAlignment = PlaneAlignmentBeam
	occ.PlaneOffset = 0
	_, b := downBeam(t, occ)
	rc := &fakeRaycaster{hits: []RaycastHit{{
		Point:    mgl32.Vec3{0, 0, 2},
		Normal:   mgl32.Vec3{1, 0, 0},
		Distance: 2,
		Bounds:   box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}),
	}}}

	require.NoError(t, b.Occlusion.Process(b, rc))

	assert.InDelta(t, 4, rc.lastOrigin.Z(), 1e-5)
	assert.InDelta(t, -1, rc.lastDir.Z(), 1e-5)
	assert.Equal(t, b.Params.FadeEnd, rc.lastMax)

	plane, ok := b.Geometry(false).ClippingPlane()
	require.True(t, ok)
	assert.InDelta(t, 1, plane.Normal.Z(), 1e-5, "plane faces back along the beam")
	assert.InDelta(t, -2, plane.Distance, 1e-4)
}

func TestDynamicOcclusion_NoHitClears(t *testing.T) {
	_, b := downBeam(t, DefaultDynamicOcclusion())
	rc := &fakeRaycaster{hits: []RaycastHit{{Normal: mgl32.Vec3{0, 0, 1}, Distance: 1, Bounds: box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})}}}
	require.NoError(t, b.Occlusion.Process(b, rc))
	_, clipped := b.Geometry(true).ClippingPlane()
	require.True(t, clipped)

	rc.hits = nil
	require.NoError(t, b.Occlusion.Process(b, rc))

	_, clipped = b.Geometry(true).ClippingPlane()
	assert.False(t, clipped)
	_, ok := b.Occlusion.CurrentHit()
	assert.False(t, ok)
	assert.False(t, b.Geometry(true).Material().Key.ClippingPlane)
}

func TestDynamicOcclusion_DeactivateClears(t *testing.T) {
	_, b := downBeam(t, DefaultDynamicOcclusion())
	rc := &fakeRaycaster{hits: []RaycastHit{{Normal: mgl32.Vec3{0, 0, 1}, Distance: 1, Bounds: box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})}}}
	require.NoError(t, b.Occlusion.Process(b, rc))

	b.OnDeactivate()

	_, clipped := b.Geometry(true).ClippingPlane()
	assert.False(t, clipped)
}

func TestDynamicOcclusion_Throttle(t *testing.T) {
	occ := DefaultDynamicOcclusion()
	occ.WaitFrameCount = 3
	_, b := downBeam(t, occ)
	rc := &fakeRaycaster{}

	var frames []int
	for frame := 1; frame <= 7; frame++ {
		before := rc.calls
		require.NoError(t, b.Occlusion.Update(b, rc))
		if rc.calls > before {
			frames = append(frames, frame)
		}
	}
	assert.Equal(t, []int{1, 4, 7}, frames)
}

func TestOccluderSet_RaycastAll(t *testing.T) {
	s := &OccluderSet{}
	s.Add(Occluder{Name: "near", Bounds: box(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{1, 1, 0.5}), Layer: 0})
	s.Add(Occluder{Name: "far", Bounds: box(mgl32.Vec3{0, 0, 8}, mgl32.Vec3{1, 1, 0.5}), Layer: 3})
	s.Add(Occluder{Name: "aside", Bounds: box(mgl32.Vec3{5, 0, 4}, mgl32.Vec3{1, 1, 1}), Layer: 0})

	hits := s.RaycastAll(mgl32.Vec3{}, mgl32.Vec3{0, 0, 2}, 10, LayerMaskAll)
	require.Len(t, hits, 2)
	assert.InDelta(t, 1.5, hits[0].Distance, 1e-5)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, hits[0].Normal)
	assert.InDelta(t, 7.5, hits[1].Distance, 1e-5)

	hits = s.RaycastAll(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 10, 1<<3)
	require.Len(t, hits, 1)
	assert.InDelta(t, 7.5, hits[0].Distance, 1e-5)

	hits = s.RaycastAll(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 5, LayerMaskAll)
	assert.Len(t, hits, 1, "max distance")

	hits = s.RaycastAll(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0, 0, 1}, 10, 1)
	assert.Empty(t, hits, "rays starting inside a box ignore it")

	s.Remove("near")
	assert.Len(t, s.Occluders, 2)
}

func TestOcclusionModule_UsesOccluderSet(t *testing.T) {
	app := NewAppBuilder().
		UseModule(BeamModule{Config: DefaultConfig()}, OcclusionModule{}).
		Build()
	occluders, ok := resource[OccluderSet](app)
	require.True(t, ok)
	occluders.Add(Occluder{Name: "floor", Bounds: box(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{5, 5, 0.1})})

	occ := DefaultDynamicOcclusion()
	id := app.Commands().SpawnBeam(BeamDef{
		Name:      "down",
		Position:  mgl32.Vec3{0, 0, 2},
		Rotation:  mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{1, 0, 0}),
		Occlusion: &occ,
	})
	app.FlushCommands()
	app.Tick()

	world, _ := resource[BeamWorld](app)
	b, ok := world.Beam(id)
	require.True(t, ok)
	hit, ok := b.Occlusion.CurrentHit()
	require.True(t, ok)
	assert.InDelta(t, 1.9, hit.Distance, 1e-4)
}

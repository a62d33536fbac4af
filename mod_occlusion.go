package lightbeam

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/core"
)

type PlaneAlignment int

const (
	// PlaneAlignmentSurface orients the clipping plane like the hit surface.
	PlaneAlignmentSurface PlaneAlignment = iota
	// PlaneAlignmentBeam keeps the clipping plane perpendicular to the beam.
	PlaneAlignmentBeam
)

const (
	LayerMaskAll          = -1
	DefaultWaitFrameCount = 3
	MaxWaitFrameCount     = 60
	DefaultPlaneOffset    = 0.1
)

type RaycastHit struct {
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Distance float32
	// Bounds of the collider that was hit.
	Bounds core.Bounds
}

// Raycaster is provided by the host physics. It returns every hit along the
// ray up to maxDistance, in no particular order.
type Raycaster interface {
	RaycastAll(origin, dir mgl32.Vec3, maxDistance float32, layerMask int) []RaycastHit
}

// DynamicOcclusion clips its beam against the nearest occluder in front of
// it. Raycasts run once every WaitFrameCount frames.
type DynamicOcclusion struct {
	LayerMask       int            `json:"layer_mask"`
	MinOccluderArea float32        `json:"min_occluder_area"`
	WaitFrameCount  int            `json:"wait_frame_count"`
	PlaneAlignment  PlaneAlignment `json:"plane_alignment"`
	PlaneOffset     float32        `json:"plane_offset"`

	// Raycaster overrides the OccluderSet resource for this beam.
	Raycaster Raycaster `json:"-"`

	frameCountToWait int
	hit              *RaycastHit
}

func DefaultDynamicOcclusion() DynamicOcclusion {
	return DynamicOcclusion{
		LayerMask:       LayerMaskAll,
		MinOccluderArea: 0,
		WaitFrameCount:  DefaultWaitFrameCount,
		PlaneAlignment:  PlaneAlignmentSurface,
		PlaneOffset:     DefaultPlaneOffset,
	}
}

// Validate clamps the settings into their accepted ranges.
func (o *DynamicOcclusion) Validate() {
	o.MinOccluderArea = max(o.MinOccluderArea, 0)
	o.WaitFrameCount = min(max(o.WaitFrameCount, 1), MaxWaitFrameCount)
}

// BestHit picks the nearest hit whose collider is large enough.
func (o *DynamicOcclusion) BestHit(hits []RaycastHit) (RaycastHit, bool) {
	best := -1
	bestLength := float32(math.MaxFloat32)
	for i, h := range hits {
		if h.Bounds.MaxArea2D() >= o.MinOccluderArea && h.Distance < bestLength {
			bestLength = h.Distance
			best = i
		}
	}
	if best == -1 {
		return RaycastHit{}, false
	}
	return hits[best], true
}

// CurrentHit is the occluder the beam is clipped against, if any.
func (o *DynamicOcclusion) CurrentHit() (RaycastHit, bool) {
	if o.hit == nil {
		return RaycastHit{}, false
	}
	return *o.hit, true
}

// Process raycasts along the beam right away and updates its clipping plane.
func (o *DynamicOcclusion) Process(b *VolumetricBeam, rc Raycaster) error {
	if rc == nil {
		return o.setHitNull(b)
	}
	forward := b.Transform.Forward()
	hits := rc.RaycastAll(b.Transform.Position, forward, b.Params.FadeEnd, o.LayerMask)
	hit, ok := o.BestHit(hits)
	if !ok {
		return o.setHitNull(b)
	}

	var plane core.Plane
	switch o.PlaneAlignment {
	case PlaneAlignmentBeam:
		plane = core.NewPlane(forward.Mul(-1), hit.Point)
	default:
		plane = core.NewPlane(hit.Normal, hit.Point)
	}
	plane = plane.Translate(plane.Normal.Mul(o.PlaneOffset))

	o.hit = &hit
	return b.SetClippingPlane(plane)
}

// Update runs Process on the first call and then every WaitFrameCount calls.
func (o *DynamicOcclusion) Update(b *VolumetricBeam, rc Raycaster) error {
	var err error
	if o.frameCountToWait <= 0 {
		err = o.Process(b, rc)
		o.frameCountToWait = o.WaitFrameCount
	}
	o.frameCountToWait--
	return err
}

func (o *DynamicOcclusion) setHitNull(b *VolumetricBeam) error {
	o.hit = nil
	return b.ClearClippingPlane()
}

func (o *DynamicOcclusion) OnActivate(b *VolumetricBeam) {
	o.frameCountToWait = 0
}

func (o *DynamicOcclusion) OnDeactivate(b *VolumetricBeam) {
	_ = o.setHitNull(b)
}

func (o *DynamicOcclusion) OnTeardown(b *VolumetricBeam) {
	o.hit = nil
}

// Occluder is an axis aligned box collider.
type Occluder struct {
	Name   string
	Bounds core.Bounds
	Layer  int
}

// OccluderSet is a minimal Raycaster over axis aligned boxes, used when the
// host does not plug in its own physics.
type OccluderSet struct {
	Occluders []Occluder
}

func (s *OccluderSet) Add(o Occluder) {
	s.Occluders = append(s.Occluders, o)
}

func (s *OccluderSet) Remove(name string) {
	s.Occluders = slices.DeleteFunc(s.Occluders, func(o Occluder) bool { return o.Name == name })
}

func (s *OccluderSet) RaycastAll(origin, dir mgl32.Vec3, maxDistance float32, layerMask int) []RaycastHit {
	if dir.Len() == 0 {
		return nil
	}
	dir = dir.Normalize()

	var hits []RaycastHit
	for _, o := range s.Occluders {
		if layerMask != LayerMaskAll && layerMask&(1<<o.Layer) == 0 {
			continue
		}
		t, normal, ok := rayBox(origin, dir, o.Bounds)
		if !ok || t > maxDistance {
			continue
		}
		hits = append(hits, RaycastHit{
			Point:    origin.Add(dir.Mul(t)),
			Normal:   normal,
			Distance: t,
			Bounds:   o.Bounds,
		})
	}
	return hits
}

// rayBox is the slab test. Rays starting inside a box do not hit it.
func rayBox(origin, dir mgl32.Vec3, b core.Bounds) (float32, mgl32.Vec3, bool) {
	bmin, bmax := b.Min(), b.Max()
	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))
	nearAxis := -1
	var nearSign float32

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < bmin[axis] || origin[axis] > bmax[axis] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (bmin[axis] - origin[axis]) * inv
		t2 := (bmax[axis] - origin[axis]) * inv
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tNear {
			tNear = t1
			nearAxis = axis
			nearSign = sign
		}
		tFar = min(tFar, t2)
		if tNear > tFar {
			return 0, mgl32.Vec3{}, false
		}
	}
	if nearAxis < 0 || tNear < 0 {
		return 0, mgl32.Vec3{}, false
	}
	var normal mgl32.Vec3
	normal[nearAxis] = nearSign
	return tNear, normal, true
}

// OcclusionModule updates every beam that carries a DynamicOcclusion.
type OcclusionModule struct{}

func (mod OcclusionModule) Install(app *App, cmd *Commands) {
	if _, ok := resource[OccluderSet](app); !ok {
		cmd.AddResources(&OccluderSet{})
	}
	app.UseSystem(
		System(occlusionSystem).
			InStage(Update).
			RunAlways(),
	)
}

func occlusionSystem(world *BeamWorld, occluders *OccluderSet) {
	for _, b := range world.Beams() {
		if b.Occlusion == nil || !b.active {
			continue
		}
		var rc Raycaster = occluders
		if b.Occlusion.Raycaster != nil {
			rc = b.Occlusion.Raycaster
		}
		if err := b.Occlusion.Update(b, rc); err != nil {
			world.logger.Errorf("occlusion beam %d: %v", b.Id, err)
		}
	}
}

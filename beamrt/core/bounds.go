package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis aligned box stored as center and half size.
type Bounds struct {
	Center  mgl32.Vec3
	Extents mgl32.Vec3
}

func NewBoundsMinMax(minB, maxB mgl32.Vec3) Bounds {
	return Bounds{
		Center:  minB.Add(maxB).Mul(0.5),
		Extents: maxB.Sub(minB).Mul(0.5),
	}
}

func (b Bounds) Min() mgl32.Vec3  { return b.Center.Sub(b.Extents) }
func (b Bounds) Max() mgl32.Vec3  { return b.Center.Add(b.Extents) }
func (b Bounds) Size() mgl32.Vec3 { return b.Extents.Mul(2) }

func (b Bounds) AABB() [2]mgl32.Vec3 {
	return [2]mgl32.Vec3{b.Min(), b.Max()}
}

// Contains reports whether p lies inside or on the box.
func (b Bounds) Contains(p mgl32.Vec3) bool {
	minB, maxB := b.Min(), b.Max()
	for i := 0; i < 3; i++ {
		if p[i] < minB[i] || p[i] > maxB[i] {
			return false
		}
	}
	return true
}

// MaxArea2D is the largest face area of the box, used to rank occluders.
func (b Bounds) MaxArea2D() float32 {
	s := b.Size()
	return max(s.X()*s.Y(), s.Y()*s.Z(), s.X()*s.Z())
}

// Transformed returns a conservative world box of b under m.
func (b Bounds) Transformed(m mgl32.Mat4) Bounds {
	minB, maxB := b.Min(), b.Max()
	corners := [8]mgl32.Vec3{
		{minB.X(), minB.Y(), minB.Z()},
		{maxB.X(), minB.Y(), minB.Z()},
		{minB.X(), maxB.Y(), minB.Z()},
		{maxB.X(), maxB.Y(), minB.Z()},
		{minB.X(), minB.Y(), maxB.Z()},
		{maxB.X(), minB.Y(), maxB.Z()},
		{minB.X(), maxB.Y(), maxB.Z()},
		{maxB.X(), maxB.Y(), maxB.Z()},
	}

	inf := float32(1e20)
	wMin := mgl32.Vec3{inf, inf, inf}
	wMax := mgl32.Vec3{-inf, -inf, -inf}
	for _, c := range corners {
		wc := m.Mul4x1(c.Vec4(1.0)).Vec3()
		wMin = mgl32.Vec3{min(wMin.X(), wc.X()), min(wMin.Y(), wc.Y()), min(wMin.Z(), wc.Z())}
		wMax = mgl32.Vec3{max(wMax.X(), wc.X()), max(wMax.Y(), wc.Y()), max(wMax.Z(), wc.Z())}
	}
	return NewBoundsMinMax(wMin, wMax)
}

// AABBInFrustum tests a min/max box against planes whose normals point inside.
func AABBInFrustum(aabb [2]mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for i := 0; i < 6; i++ {
		plane := planes[i]
		// Most inside corner; if even that one is behind the plane the box is out.
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = aabb[1][axis]
			} else {
				p[axis] = aabb[0][axis]
			}
		}

		dist := plane[0]*p[0] + plane[1]*p[1] + plane[2]*p[2] + plane[3]
		if dist < 0 {
			return false
		}
	}
	return true
}

package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is Normal.p + Distance = 0 with a unit normal.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

func NewPlane(normal, point mgl32.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Distance: -n.Dot(point)}
}

// Translate moves the plane by t, only the component along the normal matters.
func (p Plane) Translate(t mgl32.Vec3) Plane {
	if l := t.Len(); l > 0 {
		p.Distance += t.Normalize().Dot(p.Normal) * l
	}
	return p
}

func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

func (p Plane) Vec4() mgl32.Vec4 {
	return p.Normal.Vec4(p.Distance)
}

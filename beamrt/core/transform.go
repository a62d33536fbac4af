package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a beam in the world. The beam shines along local +Z.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

func (t *Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
}

func (t *Transform) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	return t.ObjectToWorld().Mul4x1(p.Vec4(1)).Vec3()
}

func (t *Transform) InverseTransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	return t.WorldToObject().Mul4x1(p.Vec4(1)).Vec3()
}

func (t *Transform) InverseTransformDirection(d mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Conjugate().Rotate(d)
}

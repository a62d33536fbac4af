// Package mesh generates the truncated cone shared by every beam.
//
// The cone runs along +Z from the origin. Positions are unit sized: beams
// scale them per instance in the vertex shader, so one mesh per side count is
// enough for the whole scene.
package mesh

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lightbeam/beamrt/asset"
)

// MinTruncatedRadius keeps the apex ring open so the shader can still
// derive a normal from XY.
const MinTruncatedRadius = 0.001

var ErrInvalidGeometry = errors.New("invalid cone geometry")

var (
	UVSide = mgl32.Vec2{0, 0}
	UVCap  = mgl32.Vec2{1, 1}
)

type Mesh struct {
	ID        asset.Id
	Positions []mgl32.Vec3
	UVs       []mgl32.Vec2 // UVSide or UVCap
	Indices   []uint32

	Sides    int
	Segments int
	Capped   bool

	destroyed atomic.Bool
}

func (m *Mesh) VertexCount() int   { return len(m.Positions) }
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

func (m *Mesh) Destroyed() bool { return m.destroyed.Load() }

func (m *Mesh) destroy() { m.destroyed.Store(true) }

func (m *Mesh) Stats() string {
	return fmt.Sprintf("%d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
}

// IndexCount is the exact number of indices BuildCone emits.
func IndexCount(sides, segments int, capped bool) int {
	n := sides * 2 * max(segments+1, 1) * 3
	if capped {
		n += sides * 3
	}
	return n
}

// BuildCone builds a cone of the given length between two radii with
// segments intermediate rings. The start cap is only emitted when requested
// and radiusStart > 0.
func BuildCone(length, radiusStart, radiusEnd float32, sides, segments int, capStart bool) (*Mesh, error) {
	switch {
	case sides < 3:
		return nil, fmt.Errorf("%w: sides must be >= 3, got %d", ErrInvalidGeometry, sides)
	case segments < 0:
		return nil, fmt.Errorf("%w: segments must be >= 0, got %d", ErrInvalidGeometry, segments)
	case !(length > 0):
		return nil, fmt.Errorf("%w: length must be > 0, got %v", ErrInvalidGeometry, length)
	case radiusStart < 0:
		return nil, fmt.Errorf("%w: start radius must be >= 0, got %v", ErrInvalidGeometry, radiusStart)
	case radiusEnd < 0:
		return nil, fmt.Errorf("%w: end radius must be >= 0, got %v", ErrInvalidGeometry, radiusEnd)
	}

	genCap := capStart && radiusStart > 0
	radiusStart = max(radiusStart, MinTruncatedRadius)

	rings := segments + 2
	vertCountSides := sides * rings
	vertCountTotal := vertCountSides
	if genCap {
		vertCountTotal += sides + 1
	}

	m := &Mesh{
		ID:        asset.NewId(),
		Positions: make([]mgl32.Vec3, vertCountTotal),
		UVs:       make([]mgl32.Vec2, vertCountTotal),
		Indices:   make([]uint32, 0, IndexCount(sides, segments, genCap)),
		Sides:     sides,
		Segments:  segments,
		Capped:    genCap,
	}

	for i := 0; i < sides; i++ {
		cos, sin := ringDir(i, sides)
		for seg := 0; seg < rings; seg++ {
			t := float32(seg) / float32(segments+1)
			radius := radiusStart + (radiusEnd-radiusStart)*t
			m.Positions[i+seg*sides] = mgl32.Vec3{radius * cos, radius * sin, t * length}
			m.UVs[i+seg*sides] = UVSide
		}
	}

	if genCap {
		center := vertCountSides
		m.Positions[center] = mgl32.Vec3{}
		m.UVs[center] = UVCap
		for i := 0; i < sides; i++ {
			cos, sin := ringDir(i, sides)
			m.Positions[center+1+i] = mgl32.Vec3{radiusStart * cos, radiusStart * sin, 0}
			m.UVs[center+1+i] = UVCap
		}
	}

	s := uint32(sides)
	for i := uint32(0); i < s; i++ {
		ip1 := (i + 1) % s
		for k := 0; k < segments+1; k++ {
			offset := uint32(k) * s
			m.Indices = append(m.Indices,
				offset+i, offset+ip1, offset+i+s,
				offset+ip1+s, offset+i+s, offset+ip1,
			)
		}
	}

	if genCap {
		center := uint32(vertCountSides)
		for i := uint32(0); i < s-1; i++ {
			m.Indices = append(m.Indices, center, center+i+1, center+i+2)
		}
		m.Indices = append(m.Indices, center, center+s, center+1)
	}

	if len(m.Indices) != IndexCount(sides, segments, genCap) {
		panic(fmt.Sprintf("cone index count %d does not match %d", len(m.Indices), IndexCount(sides, segments, genCap)))
	}
	return m, nil
}

// MustBuildCone is BuildCone for callers with constant arguments.
func MustBuildCone(length, radiusStart, radiusEnd float32, sides, segments int, capStart bool) *Mesh {
	m, err := BuildCone(length, radiusStart, radiusEnd, sides, segments, capStart)
	if err != nil {
		panic(err)
	}
	return m
}

// BuildConeFromAngle derives the end radius from a full cone angle in degrees.
func BuildConeFromAngle(length, radiusStart, coneAngle float32, sides, segments int, capStart bool) (*Mesh, error) {
	if !(coneAngle > 0 && coneAngle < 180) {
		return nil, fmt.Errorf("%w: cone angle must be in (0, 180), got %v", ErrInvalidGeometry, coneAngle)
	}
	radiusEnd := length * float32(math.Tan(float64(mgl32.DegToRad(coneAngle))*0.5))
	return BuildCone(length, radiusStart, radiusEnd, sides, segments, capStart)
}

func ringDir(i, sides int) (float32, float32) {
	angle := 2 * math.Pi * float64(i) / float64(sides)
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

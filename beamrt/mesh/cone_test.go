package mesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConeIndexCount(t *testing.T) {
	for sides := 3; sides <= 32; sides++ {
		for segments := 0; segments <= 4; segments++ {
			for _, capped := range []bool{false, true} {
				m, err := BuildCone(2, 0.5, 1, sides, segments, capped)
				require.NoError(t, err)

				want := sides * 2 * max(segments+1, 1) * 3
				if capped {
					want += sides * 3
				}
				if len(m.Indices) != want {
					t.Errorf("sides=%d segments=%d cap=%v: got %d indices, want %d", sides, segments, capped, len(m.Indices), want)
				}
				for _, idx := range m.Indices {
					if int(idx) >= m.VertexCount() {
						t.Fatalf("index %d out of range (%d vertices)", idx, m.VertexCount())
					}
				}
			}
		}
	}
}

func TestBuildConeRejectsDegenerateInput(t *testing.T) {
	tests := []struct {
		name     string
		length   float32
		rStart   float32
		sides    int
		segments int
	}{
		{"two sides", 1, 0, 2, 0},
		{"negative segments", 1, 0, 8, -1},
		{"zero length", 0, 0, 8, 0},
		{"negative length", -1, 0, 8, 0},
		{"negative start radius", 1, -0.1, 8, 0},
	}
	for _, tc := range tests {
		m, err := BuildCone(tc.length, tc.rStart, 1, tc.sides, tc.segments, false)
		if !errors.Is(err, ErrInvalidGeometry) || m != nil {
			t.Errorf("%s: expected ErrInvalidGeometry and no mesh, got %v, %v", tc.name, m, err)
		}
	}

	assert.Panics(t, func() { MustBuildCone(1, 0, 1, 2, 0, false) })
}

func TestBuildConeClampsApexRadius(t *testing.T) {
	m, err := BuildCone(1, 0, 1, 4, 0, true)
	require.NoError(t, err)

	// Capping a pointed apex is skipped.
	assert.False(t, m.Capped)
	assert.Equal(t, 4*2, m.VertexCount())

	for i := 0; i < 4; i++ {
		p := m.Positions[i]
		assert.InDelta(t, MinTruncatedRadius, mgl32.Vec2{p.X(), p.Y()}.Len(), 1e-6)
		assert.Equal(t, float32(0), p.Z())
	}
}

func TestBuildConeRingLayout(t *testing.T) {
	m, err := BuildCone(3, 0.5, 1.5, 4, 1, false)
	require.NoError(t, err)

	// Vertex i + seg*sides sits on ring seg.
	ringZ := []float32{0, 1.5, 3}
	ringR := []float32{0.5, 1, 1.5}
	for seg := 0; seg < 3; seg++ {
		for i := 0; i < 4; i++ {
			p := m.Positions[i+seg*4]
			assert.InDelta(t, ringZ[seg], p.Z(), 1e-5)
			assert.InDelta(t, ringR[seg], mgl32.Vec2{p.X(), p.Y()}.Len(), 1e-5)
		}
	}
	assert.Equal(t, []uint32{0, 1, 4, 5, 4, 1}, m.Indices[:6])
	for _, uv := range m.UVs {
		assert.Equal(t, UVSide, uv)
	}
}

func TestBuildConeCap(t *testing.T) {
	m, err := BuildCone(1, 0.25, 1, 5, 0, true)
	require.NoError(t, err)
	require.True(t, m.Capped)

	sideVerts := 5 * 2
	assert.Equal(t, sideVerts+5+1, m.VertexCount())
	assert.Equal(t, mgl32.Vec3{}, m.Positions[sideVerts])
	for i := sideVerts; i < m.VertexCount(); i++ {
		assert.Equal(t, UVCap, m.UVs[i])
	}

	fan := m.Indices[len(m.Indices)-5*3:]
	c := uint32(sideVerts)
	assert.Equal(t, []uint32{c, c + 1, c + 2}, fan[:3])
	assert.Equal(t, []uint32{c, c + 5, c + 1}, fan[len(fan)-3:])
}

func TestBuildConeFromAngle(t *testing.T) {
	m, err := BuildConeFromAngle(3, 0, 90, 8, 0, false)
	require.NoError(t, err)
	last := m.Positions[8]
	assert.InDelta(t, 3, mgl32.Vec2{last.X(), last.Y()}.Len(), 1e-4)

	_, err = BuildConeFromAngle(3, 0, 180, 8, 0, false)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestMeshStats(t *testing.T) {
	m := MustBuildCone(1, 1, 1, 18, 0, false)
	assert.Equal(t, "36 vertices, 36 triangles", m.Stats())
}

package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a linear RGBA color.
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

var White = Color{1, 1, 1, 1}

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

func (c Color) LinearToGamma() Color {
	return Color{linearToGamma(c.R), linearToGamma(c.G), linearToGamma(c.B), c.A}
}

func linearToGamma(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

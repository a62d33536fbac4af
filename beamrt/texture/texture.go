// Package texture builds the 2D textures sampled by the Level-1 beam shader.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand"
	"os"

	"golang.org/x/image/draw"

	"github.com/gekko3d/lightbeam/beamrt/asset"
)

var ErrInvalidSize = errors.New("texture size must be a power of two")

type Texture struct {
	ID    asset.Id
	Name  string
	Image *image.RGBA
}

func New(name string, img *image.RGBA) *Texture {
	return &Texture{ID: asset.NewId(), Name: name, Image: img}
}

func (t *Texture) Width() uint32  { return uint32(t.Image.Bounds().Dx()) }
func (t *Texture) Height() uint32 { return uint32(t.Image.Bounds().Dy()) }

// Texels returns the tightly packed RGBA8 rows ready for upload.
func (t *Texture) Texels() []uint8 {
	return t.Image.Pix
}

func checkSize(size int) error {
	if size <= 0 || size&(size-1) != 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidSize, size)
	}
	return nil
}

// Resample scales any image to a size x size RGBA with Catmull-Rom filtering.
func Resample(src image.Image, size int) (*image.RGBA, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Load decodes a PNG or JPEG file and resamples it to size.
func Load(path string, size int) (*Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	rgba, err := Resample(img, size)
	if err != nil {
		return nil, err
	}
	return New(path, rgba), nil
}

// Plain is a radial falloff: opaque on the beam axis, transparent at the rim.
func Plain(size int) (*Texture, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := (float64(x)-half)/half, (float64(y)-half)/half
			v := 1 - math.Min(math.Sqrt(dx*dx+dy*dy), 1)
			c := uint8(v * v * 255)
			img.SetRGBA(x, y, color.RGBA{c, c, c, c})
		}
	}
	return New("plain", img), nil
}

// Noise is a tiling value noise with 4 octaves, deterministic for a seed.
func Noise(size int, seed int64) (*Texture, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	const cells = 8
	rng := rand.New(rand.NewSource(seed))
	lattice := make([]float64, cells*cells)
	for i := range lattice {
		lattice[i] = rng.Float64()
	}
	sample := func(fx, fy float64, period int) float64 {
		x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
		tx, ty := smooth(fx-float64(x0)), smooth(fy-float64(y0))
		at := func(x, y int) float64 {
			x, y = ((x%period)+period)%period, ((y%period)+period)%period
			return lattice[(y%cells)*cells+(x%cells)]
		}
		a := lerp(at(x0, y0), at(x0+1, y0), tx)
		b := lerp(at(x0, y0+1), at(x0+1, y0+1), tx)
		return lerp(a, b, ty)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var v, amp, total float64 = 0, 1, 0
			period := 2
			for octave := 0; octave < 4; octave++ {
				fx := float64(x) / float64(size) * float64(period)
				fy := float64(y) / float64(size) * float64(period)
				v += sample(fx, fy, period) * amp
				total += amp
				amp *= 0.5
				period *= 2
			}
			c := uint8(v / total * 255)
			img.SetRGBA(x, y, color.RGBA{c, c, c, c})
		}
	}
	return New(fmt.Sprintf("noise-%d", seed), img), nil
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Package imop implements the blend modes used to mix a rendered field with its backdrop.
// The source is composited over the backdrop with the source-over Porter-Duff operator,
// after its colour has been mixed with the backdrop by the active blend mode.
//
// It is mainly used in debug mode, to show the distance field or the detection map
// on top of the image it has been computed from.
package imop

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/esimov/tropic/utils"
	"github.com/samber/lo"
)

const (
	Normal   = "normal"
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

var modes = []string{Normal, Darken, Lighten, Multiply, Screen, Overlay}

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend using the normal mode.
func NewBlend() *Blend {
	return &Blend{OpType: Normal}
}

// Set activates one of the supported blend modes.
func (b *Blend) Set(opType string) error {
	if !lo.Contains(modes, opType) {
		return fmt.Errorf("unsupported blend mode: %v", opType)
	}
	b.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (b *Blend) Get() string {
	return b.OpType
}

// mix applies the blend function to a single backdrop (cb) and source (cs) channel.
func (b *Blend) mix(cb, cs float64) float64 {
	switch b.OpType {
	case Darken:
		return math.Min(cb, cs)
	case Lighten:
		return math.Max(cb, cs)
	case Multiply:
		return cb * cs
	case Screen:
		return cb + cs - cb*cs
	case Overlay:
		if cb <= 0.5 {
			return 2 * cb * cs
		}
		return 1 - 2*(1-cb)*(1-cs)
	}
	return cs
}

// Draw composites src over backdrop and returns the result as a new image.
// The source alpha is scaled by opacity, which is clamped to [0, 1].
// Both images are read over the bounds of backdrop.
func (b *Blend) Draw(src, backdrop *image.NRGBA, opacity float64) *image.NRGBA {
	opacity = utils.Clamp(opacity, 0, 1)
	bounds := backdrop.Bounds()
	dst := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cb := backdrop.NRGBAAt(x, y)
			cs := src.NRGBAAt(x, y)

			ab := float64(cb.A) / 255
			as := float64(cs.A) / 255 * opacity
			ao := as + ab*(1-as)
			if ao == 0 {
				continue
			}

			channel := func(vb, vs uint8) uint8 {
				fb, fs := float64(vb)/255, float64(vs)/255
				// The blended colour only replaces the source where the backdrop is opaque.
				mixed := (1-ab)*fs + ab*b.mix(fb, fs)
				co := as*mixed + ab*fb*(1-as)
				return uint8(math.Round(co / ao * 255))
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: channel(cb.R, cs.R),
				G: channel(cb.G, cs.G),
				B: channel(cb.B, cs.B),
				A: uint8(math.Round(ao * 255)),
			})
		}
	}
	return dst
}

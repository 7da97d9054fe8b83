package tropic

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

// Colormap selects how Render turns grid values into colours.
type Colormap string

const (
	Gray      Colormap = "gray"
	Heat      Colormap = "heat"
	Diverging Colormap = "diverging"
)

var (
	heatLow  = colorful.Color{R: 0.05, G: 0.03, B: 0.25}
	heatHigh = colorful.Color{R: 1, G: 0.92, B: 0.2}
	divNeg   = colorful.Color{R: 0.13, G: 0.4, B: 0.67}
	divMid   = colorful.Color{R: 0.97, G: 0.97, B: 0.97}
	divPos   = colorful.Color{R: 0.7, G: 0.09, B: 0.17}
)

// ParseColormap validates a colour map name.
func ParseColormap(name string) (Colormap, error) {
	cm := Colormap(name)
	if !lo.Contains([]Colormap{Gray, Heat, Diverging}, cm) {
		return "", fmt.Errorf("unknown colormap %q", name)
	}
	return cm, nil
}

func isFinite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// Render maps the finite values of g onto the colour map. Non finite cells are transparent.
// The Diverging map keeps zero at its centre, the other maps stretch [min, max] to the full range.
func Render(g *Grid, cm Colormap) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	finite := lo.Filter(g.Pix, func(v float64, _ int) bool { return isFinite(v) })
	if len(finite) == 0 {
		return dst
	}
	vmin, vmax := floats.Min(finite), floats.Max(finite)
	span := math.Max(math.Abs(vmin), math.Abs(vmax))

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.At(x, y)
			if !isFinite(v) {
				continue
			}
			var c colorful.Color
			switch cm {
			case Diverging:
				t := 0.0
				if span > 0 {
					t = v / span
				}
				if t < 0 {
					c = divMid.BlendLab(divNeg, -t)
				} else {
					c = divMid.BlendLab(divPos, t)
				}
			case Heat:
				c = heatLow.BlendHcl(heatHigh, normalize(v, vmin, vmax)).Clamped()
			default:
				t := normalize(v, vmin, vmax)
				c = colorful.Color{R: t, G: t, B: t}
			}
			r, gr, b := c.Clamped().RGB255()
			dst.SetNRGBA(x, y, color.NRGBA{R: r, G: gr, B: b, A: 0xff})
		}
	}
	return dst
}

func normalize(v, vmin, vmax float64) float64 {
	if vmax == vmin {
		return 0
	}
	return (v - vmin) / (vmax - vmin)
}

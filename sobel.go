package tropic

import (
	"image"
	"math"

	"github.com/esimov/tropic/utils"
)

type kernel [3][3]float64

var (
	kernelX = kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	kernelY = kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// SobelMagnitude returns the gradient magnitude of g, clamped to [0, 255].
// The border pixels are extended by repeating the nearest pixel.
// See https://en.wikipedia.org/wiki/Sobel_operator
func SobelMagnitude(g *Grid) *Grid {
	src := g.Clone().WithAccess(AccessClamp, 0)
	dst := NewGrid(g.Width, g.Height)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			var sumX, sumY float64
			for ky := 0; ky < 3; ky++ {
				for kx := 0; kx < 3; kx++ {
					// Clamped access never fails.
					v, _ := src.Sample(x+kx-1, y+ky-1)
					sumX += v * kernelX[ky][kx]
					sumY += v * kernelY[ky][kx]
				}
			}
			dst.Set(x, y, utils.Min(math.Hypot(sumX, sumY), 255))
		}
	}
	return dst
}

// EdgeMask marks as foreground the pixels whose Sobel gradient magnitude exceeds threshold.
func EdgeMask(img *image.NRGBA, threshold float64) *Mask {
	mag := SobelMagnitude(GridFromImage(img))
	return MaskFunc(mag.Width, mag.Height, func(x, y int) bool {
		return mag.At(x, y) > threshold
	})
}

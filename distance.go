package tropic

import (
	"fmt"
	"math"
)

// SquaredDistanceTransform returns for every cell the squared euclidean distance
// to the nearest foreground cell of the mask. Without any foreground every cell is +Inf.
func (c *Convolver) SquaredDistanceTransform(mask *Mask) *Grid {
	seed := NewGrid(mask.Width, mask.Height)
	for i, fg := range mask.Bits {
		if !fg {
			seed.Pix[i] = math.Inf(-1)
		}
	}
	// In the max-plus semiring the nearest foreground cell is the one
	// maximising -(dx²+dy²), which separates into one pass per axis.
	return c.Convolve(seed, NegSquared{}).Map(func(v float64) float64 {
		return -v
	})
}

// DistanceTransform returns the unsigned euclidean distance to the nearest foreground cell.
func (c *Convolver) DistanceTransform(mask *Mask) *Grid {
	return c.SquaredDistanceTransform(mask).Map(math.Sqrt)
}

// SignedDistanceTransform returns the distance to the mask boundary: positive on the
// background, negative on the foreground. A foreground cell next to the background is -1.
func (c *Convolver) SignedDistanceTransform(mask *Mask) *Grid {
	outside := c.DistanceTransform(mask)
	inside := c.DistanceTransform(mask.Invert())
	return combineSigned(outside, inside)
}

func combineSigned(outside, inside *Grid) *Grid {
	if outside.Width != inside.Width || outside.Height != inside.Height {
		panic(fmt.Sprintf("tropic: signed distance of mismatched grids %dx%d and %dx%d",
			outside.Width, outside.Height, inside.Width, inside.Height))
	}
	dst := NewGrid(outside.Width, outside.Height)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			if d := outside.At(x, y); d > 0 {
				dst.Set(x, y, d)
			} else {
				dst.Set(x, y, -inside.At(x, y))
			}
		}
	}
	return dst
}

// DistanceTransform computes the unsigned distance transform using all available CPUs.
func DistanceTransform(mask *Mask) *Grid {
	return (*Convolver)(nil).DistanceTransform(mask)
}

// SignedDistanceTransform computes the signed distance transform using all available CPUs.
func SignedDistanceTransform(mask *Mask) *Grid {
	return (*Convolver)(nil).SignedDistanceTransform(mask)
}

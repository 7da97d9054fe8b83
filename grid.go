package tropic

import (
	"errors"
	"fmt"

	"github.com/esimov/tropic/utils"
)

// ErrOutOfBounds is returned by Sample when a coordinate falls outside
// a grid which uses the strict access mode.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// Layout defines how the grid cells are laid out in memory.
type Layout int

const (
	RowMajor Layout = iota
	ColMajor
)

// AccessMode defines how Sample resolves coordinates outside of the grid.
type AccessMode int

const (
	// AccessStrict reports out of bounds reads as an error.
	AccessStrict AccessMode = iota
	// AccessClamp repeats the nearest border cell.
	AccessClamp
	// AccessMirror reflects the coordinate back into the grid.
	AccessMirror
	// AccessFixed returns the grid Fill value.
	AccessFixed
)

// indexer maps a coordinate pair to an offset in the backing slice.
type indexer interface {
	index(x, y int) int
}

type rowMajor struct{ width int }

func (r rowMajor) index(x, y int) int { return x + y*r.width }

type colMajor struct{ height int }

func (c colMajor) index(x, y int) int { return y + x*c.height }

func newIndexer(l Layout, width, height int) indexer {
	switch l {
	case ColMajor:
		return colMajor{height: height}
	default:
		return rowMajor{width: width}
	}
}

// Grid is a rectangular, 0-indexed 2D array of real values.
// Grids built from a struct literal are row-major; Pix must then hold Width*Height values.
type Grid struct {
	Width  int
	Height int
	Pix    []float64
	Access AccessMode
	Fill   float64

	layout Layout
	idx    indexer
}

// NewGrid allocates a zero valued row-major grid.
func NewGrid(width, height int) *Grid {
	return NewGridLayout(width, height, RowMajor)
}

// NewGridLayout allocates a zero valued grid stored with the provided layout.
func NewGridLayout(width, height int, l Layout) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("tropic: invalid grid size %dx%d", width, height))
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
		layout: l,
		idx:    newIndexer(l, width, height),
	}
}

// GridFunc builds a row-major grid by evaluating fn at every coordinate.
func GridFunc(width, height int, fn func(x, y int) float64) *Grid {
	g := NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Set(x, y, fn(x, y))
		}
	}
	return g
}

func (g *Grid) index(x, y int) int {
	if g.idx == nil {
		return x + y*g.Width
	}
	return g.idx.index(x, y)
}

// Layout returns the memory layout of the grid.
func (g *Grid) Layout() Layout { return g.layout }

// At returns the value stored at (x, y). The coordinate must be inside the grid.
func (g *Grid) At(x, y int) float64 {
	return g.Pix[g.index(x, y)]
}

// Set stores v at (x, y).
func (g *Grid) Set(x, y int, v float64) {
	g.Pix[g.index(x, y)] = v
}

// In reports whether (x, y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Sample reads the value at (x, y) resolving out of bounds coordinates with the grid access mode.
func (g *Grid) Sample(x, y int) (float64, error) {
	if g.In(x, y) {
		return g.At(x, y), nil
	}
	switch g.Access {
	case AccessClamp:
		return g.At(clamp(x, g.Width), clamp(y, g.Height)), nil
	case AccessMirror:
		return g.At(mirror(x, g.Width), mirror(y, g.Height)), nil
	case AccessFixed:
		return g.Fill, nil
	}
	return 0, fmt.Errorf("sample (%d, %d) in %dx%d grid: %w", x, y, g.Width, g.Height, ErrOutOfBounds)
}

// WithAccess sets the access mode used by Sample and returns the grid.
func (g *Grid) WithAccess(mode AccessMode, fill float64) *Grid {
	g.Access = mode
	g.Fill = fill
	return g
}

// Clone returns a deep copy of the grid, keeping its layout and access mode.
func (g *Grid) Clone() *Grid {
	dst := NewGridLayout(g.Width, g.Height, g.layout)
	copy(dst.Pix, g.Pix)
	dst.Access, dst.Fill = g.Access, g.Fill
	return dst
}

// Map returns a new grid holding fn applied to every cell.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	dst := NewGridLayout(g.Width, g.Height, g.layout)
	for i, v := range g.Pix {
		dst.Pix[i] = fn(v)
	}
	dst.Access, dst.Fill = g.Access, g.Fill
	return dst
}

// row copies the y-th row into buf.
func (g *Grid) row(y int, buf []float64) {
	for x := range buf {
		buf[x] = g.At(x, y)
	}
}

// col copies the x-th column into buf.
func (g *Grid) col(x int, buf []float64) {
	for y := range buf {
		buf[y] = g.At(x, y)
	}
}

func clamp(v, n int) int {
	return utils.Clamp(v, 0, n-1)
}

// mirror reflects v into [0, n) without repeating the border cell.
func mirror(v, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	v %= period
	if v < 0 {
		v += period
	}
	if v >= n {
		v = period - v
	}
	return v
}

// Mask is a 2D boolean grid separating foreground (true) from background.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all background mask.
func NewMask(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("tropic: invalid mask size %dx%d", width, height))
	}
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// MaskFunc builds a mask by evaluating fn at every coordinate.
func MaskFunc(width, height int, fn func(x, y int) bool) *Mask {
	m := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Bits[x+y*width] = fn(x, y)
		}
	}
	return m
}

func (m *Mask) At(x, y int) bool { return m.Bits[x+y*m.Width] }

func (m *Mask) Set(x, y int, v bool) { m.Bits[x+y*m.Width] = v }

// Invert returns the logical complement of the mask.
func (m *Mask) Invert() *Mask {
	dst := NewMask(m.Width, m.Height)
	for i, b := range m.Bits {
		dst.Bits[i] = !b
	}
	return dst
}

// Count returns the number of foreground cells.
func (m *Mask) Count() int {
	var n int
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

package tropic

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MaxConvolve1D computes for every index i the maximum of data[j] + p.Eval(i-j) over all j.
//
// Unimodal penalties are evaluated with two sweeps: a forward sweep over the sources
// left of i and a backward sweep over the sources right of i. For a concave penalty a
// source maximising the value at i beats every source further away at all later
// indices, so each sweep keeps a monotone pointer to the nearest maximiser found so far
// and only scans the live (finite) sources between that pointer and i.
// Any other penalty falls back to the exhaustive search of MaxConvolve1DBrute.
func MaxConvolve1D(data []float64, p Penalty) []float64 {
	res := make([]float64, len(data))
	maxConvolve1D(data, res, p)
	return res
}

var negInf = math.Inf(-1)

// maxConvolve1D writes the convolution of data into res, which must have the same length.
func maxConvolve1D(data, res []float64, p Penalty) {
	n := len(data)
	if n == 0 {
		panic("tropic: max convolution of an empty sequence")
	}
	if !isUnimodal(p) {
		maxConvolve1DBrute(data, res, p)
		return
	}

	self := p.Eval(0)
	for i, v := range data {
		res[i] = v + self
	}
	// skip links every index to the nearest live source in the sweep direction.
	skip := make([]int, n)

	// Forward sweep: sources j < i. skip[j] is the first live index >= j, or n.
	next := n
	for j := n - 1; j >= 0; j-- {
		if data[j] > negInf {
			next = j
		}
		skip[j] = next
	}
	best := -1
	for i := 0; i < n; i++ {
		bv := negInf
		if best >= 0 {
			bj := best
			for j := best; j < i; j = skip[j+1] {
				if v := data[j] + p.Eval(i-j); v >= bv {
					bv, bj = v, j
				}
			}
			best = bj
			if bv > res[i] {
				res[i] = bv
			}
		}
		if data[i] > negInf && data[i]+self >= bv {
			best = i
		}
	}

	// Backward sweep: sources j > i. skip[j] is the last live index <= j, or -1.
	prev := -1
	for j := 0; j < n; j++ {
		if data[j] > negInf {
			prev = j
		}
		skip[j] = prev
	}
	best = -1
	for i := n - 1; i >= 0; i-- {
		bv := negInf
		if best >= 0 {
			bj := best
			for j := best; j > i; j = skip[j-1] {
				if v := data[j] + p.Eval(i-j); v >= bv {
					bv, bj = v, j
				}
			}
			best = bj
			if bv > res[i] {
				res[i] = bv
			}
		}
		if data[i] > negInf && data[i]+self >= bv {
			best = i
		}
	}
}

// MaxConvolve1DBrute is the exhaustive O(N²) version of MaxConvolve1D.
// It is exact for any penalty.
func MaxConvolve1DBrute(data []float64, p Penalty) []float64 {
	res := make([]float64, len(data))
	maxConvolve1DBrute(data, res, p)
	return res
}

func maxConvolve1DBrute(data, res []float64, p Penalty) {
	if len(data) == 0 {
		panic("tropic: max convolution of an empty sequence")
	}
	for i := range data {
		best := math.Inf(-1)
		for j, v := range data {
			if c := v + p.Eval(i-j); c > best {
				best = c
			}
		}
		res[i] = best
	}
}

// Convolver runs the separable 2D max convolution on a bounded pool of workers.
type Convolver struct {
	// Workers limits the number of rows (or columns) processed concurrently.
	// Values below 1 use the number of available CPUs.
	Workers int
}

// NewConvolver returns a Convolver using the given number of workers.
func NewConvolver(workers int) *Convolver {
	return &Convolver{Workers: workers}
}

func (c *Convolver) workers() int {
	if c == nil || c.Workers < 1 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Convolve computes res(x, y) = max over (x', y') of g(x', y') + p(x-x') + p(y-y').
// The 1D operator first runs over every row into an intermediate grid,
// then over every column of that grid. The input grid is left untouched.
func (c *Convolver) Convolve(g *Grid, p Penalty) *Grid {
	tmp := NewGridLayout(g.Width, g.Height, g.layout)
	c.forEach(g.Height, g.Width, func(y int, in, out []float64) {
		g.row(y, in)
		maxConvolve1D(in, out, p)
		for x, v := range out {
			tmp.Set(x, y, v)
		}
	})

	// The column pass reads whole columns, so it only starts once every row is written.
	dst := NewGridLayout(g.Width, g.Height, g.layout)
	c.forEach(g.Width, g.Height, func(x int, in, out []float64) {
		tmp.col(x, in)
		maxConvolve1D(in, out, p)
		for y, v := range out {
			dst.Set(x, y, v)
		}
	})
	dst.Access, dst.Fill = g.Access, g.Fill
	return dst
}

// forEach invokes fn for every line in [0, lines) and waits for all of them to finish.
// Each call receives its own scratch buffers of the given length.
func (c *Convolver) forEach(lines, length int, fn func(line int, in, out []float64)) {
	// The group only bounds the number of running goroutines, the tasks never fail.
	var eg errgroup.Group
	eg.SetLimit(c.workers())

	for i := 0; i < lines; i++ {
		i := i
		eg.Go(func() error {
			in := make([]float64, length)
			out := make([]float64, length)
			fn(i, in, out)
			return nil
		})
	}
	_ = eg.Wait()
}

// MaxConvolve2D runs the separable max convolution using all available CPUs.
func MaxConvolve2D(g *Grid, p Penalty) *Grid {
	return (*Convolver)(nil).Convolve(g, p)
}

// MaxConvolve2DBrute evaluates the 2D max convolution by exhaustive search
// with the penalty p(dx) + p(dy). It is meant for validation and very small grids.
func MaxConvolve2DBrute(g *Grid, p Penalty) *Grid {
	dst := NewGridLayout(g.Width, g.Height, g.layout)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			best := math.Inf(-1)
			for sy := 0; sy < g.Height; sy++ {
				py := p.Eval(y - sy)
				for sx := 0; sx < g.Width; sx++ {
					if v := g.At(sx, sy) + p.Eval(x-sx) + py; v > best {
						best = v
					}
				}
			}
			dst.Set(x, y, best)
		}
	}
	return dst
}

package tropic

import "math"

// Penalty evaluates the log-weight of moving a value by offset cells.
// Implementations must be pure: the same offset always yields the same weight.
type Penalty interface {
	Eval(offset int) float64
}

// PenaltyFunc adapts an ordinary function to the Penalty interface.
// Since nothing is known about its shape, convolutions using it run the exhaustive search.
type PenaltyFunc func(offset int) float64

func (f PenaltyFunc) Eval(offset int) float64 { return f(offset) }

// unimodal is implemented by penalties which are concave in the offset.
// Only those are allowed to take the two-pointer fast path.
type unimodal interface {
	Unimodal() bool
}

func isUnimodal(p Penalty) bool {
	u, ok := p.(unimodal)
	return ok && u.Unimodal()
}

// NegSquared is the negative squared distance -d².
type NegSquared struct{}

func (NegSquared) Eval(offset int) float64 {
	d := float64(offset)
	return -d * d
}

func (NegSquared) Unimodal() bool { return true }

var logSqrt2Pi = 0.5 * math.Log(2*math.Pi)

// IsotropicGaussian is a zero mean Gaussian noise model with the same
// standard deviation along every axis, expressed in pixel units.
type IsotropicGaussian struct {
	Sigma float64
}

// LogDensity returns the 1D log density at distance d.
func (g IsotropicGaussian) LogDensity(d float64) float64 {
	z := d / g.Sigma
	return -logSqrt2Pi - math.Log(g.Sigma) - 0.5*z*z
}

// LogDensity2D returns the log density of the displacement (dx, dy).
func (g IsotropicGaussian) LogDensity2D(dx, dy float64) float64 {
	return g.LogDensity(dx) + g.LogDensity(dy)
}

func (g IsotropicGaussian) Eval(offset int) float64 {
	return g.LogDensity(float64(offset))
}

func (g IsotropicGaussian) Unimodal() bool { return g.Sigma > 0 }

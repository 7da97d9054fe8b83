package tropic

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSigma is returned when the noise model has a non positive standard deviation.
	ErrInvalidSigma = errors.New("standard deviation must be positive")
	// ErrInvalidRates is returned when the detector error rates are not probabilities.
	ErrInvalidRates = errors.New("invalid detector error rates")
)

// DetectionMap holds the per pixel log-certainty that the named landmark is located at that pixel.
type DetectionMap struct {
	Name         string
	LogCertainty *Grid
}

// NewDetectionMap returns a detection map which is impossible (-Inf) everywhere.
func NewDetectionMap(name string, width, height int) *DetectionMap {
	g := NewGrid(width, height)
	for i := range g.Pix {
		g.Pix[i] = math.Inf(-1)
	}
	return &DetectionMap{Name: name, LogCertainty: g}
}

// ErrorRates describes how often the detector fires where the landmark is absent
// (FalsePositive) and misses it where it is present (FalseNegative).
type ErrorRates struct {
	FalsePositive float64
	FalseNegative float64
}

// Validate checks that both rates are probabilities and that they leave
// some information in the detector response.
func (r ErrorRates) Validate() error {
	if r.FalsePositive < 0 || r.FalsePositive > 1 || r.FalseNegative < 0 || r.FalseNegative > 1 {
		return fmt.Errorf("%w: rates must be in [0, 1], got fp=%v fn=%v", ErrInvalidRates, r.FalsePositive, r.FalseNegative)
	}
	if r.FalsePositive+r.FalseNegative >= 1 {
		return fmt.Errorf("%w: fp+fn must be below 1, got %v", ErrInvalidRates, r.FalsePositive+r.FalseNegative)
	}
	return nil
}

// Correct maps a raw detector log-certainty to log(fp + (1-fp-fn)·c).
func (r ErrorRates) Correct(logc float64) float64 {
	return math.Log(r.FalsePositive + (1-r.FalsePositive-r.FalseNegative)*math.Exp(logc))
}

// ConvolvedMap is a detection map already max-convolved with a displacement noise model.
// Point queries on it are constant time.
type ConvolvedMap struct {
	Name  string
	Noise IsotropicGaussian
	grid  *Grid
}

// PreConvolve combines the detection map with an isotropic Gaussian displacement noise
// of standard deviation sigma (in pixels). When rates is not nil the detector error
// correction is applied before the convolution.
func (c *Convolver) PreConvolve(d *DetectionMap, sigma float64, rates *ErrorRates) (*ConvolvedMap, error) {
	if !(sigma > 0) {
		return nil, fmt.Errorf("pre-convolve %q with sigma %v: %w", d.Name, sigma, ErrInvalidSigma)
	}
	src := d.LogCertainty
	if rates != nil {
		if err := rates.Validate(); err != nil {
			return nil, fmt.Errorf("pre-convolve %q: %w", d.Name, err)
		}
		src = src.Map(rates.Correct)
	}
	noise := IsotropicGaussian{Sigma: sigma}

	return &ConvolvedMap{
		Name:  d.Name,
		Noise: noise,
		grid:  c.Convolve(src, noise),
	}, nil
}

// PreConvolve runs Convolver.PreConvolve using all available CPUs.
func PreConvolve(d *DetectionMap, sigma float64, rates *ErrorRates) (*ConvolvedMap, error) {
	return (*Convolver)(nil).PreConvolve(d, sigma, rates)
}

// LogValue returns the pre-convolved log-certainty at the pixel nearest to p.
// Positions outside of the map are impossible and yield -Inf.
func (m *ConvolvedMap) LogValue(p Point) float64 {
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	if !m.grid.In(x, y) {
		return math.Inf(-1)
	}
	return m.grid.At(x, y)
}

// Grid returns the underlying convolved grid.
func (m *ConvolvedMap) Grid() *Grid { return m.grid }

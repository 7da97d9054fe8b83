package tropic

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// ErrLandmarkUnavailable is returned when a renderer cannot place a landmark in the image,
// for example because the model does not define it.
var ErrLandmarkUnavailable = errors.New("landmark position not available")

// Point is a position in image coordinates.
type Point struct {
	X, Y float64
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// LandmarkRenderer projects the named landmarks of the current model instance into the image.
// The boolean result reports whether the landmark could be placed.
type LandmarkRenderer interface {
	Landmark(name string) (Point, bool)
}

// Landmarks is a LandmarkRenderer backed by a fixed set of positions.
type Landmarks map[string]Point

func (l Landmarks) Landmark(name string) (Point, bool) {
	p, ok := l[name]
	return p, ok
}

// Evaluator returns the log likelihood of the landmark configuration produced by a renderer.
type Evaluator interface {
	LogValue(r LandmarkRenderer) (float64, error)
}

// DetectionEvaluator scores landmark positions against pre-convolved detection maps.
type DetectionEvaluator struct {
	Maps []*ConvolvedMap
}

// NewDetectionEvaluator pre-convolves every detection map once, so that each
// later evaluation is a constant time lookup per landmark.
func (c *Convolver) NewDetectionEvaluator(maps []*DetectionMap, sigma float64, rates *ErrorRates) (*DetectionEvaluator, error) {
	ev := &DetectionEvaluator{Maps: make([]*ConvolvedMap, 0, len(maps))}
	for _, m := range maps {
		cm, err := c.PreConvolve(m, sigma, rates)
		if err != nil {
			return nil, err
		}
		ev.Maps = append(ev.Maps, cm)
	}
	return ev, nil
}

func (e *DetectionEvaluator) LogValue(r LandmarkRenderer) (float64, error) {
	var sum float64
	for _, m := range e.Maps {
		p, ok := r.Landmark(m.Name)
		if !ok {
			return 0, fmt.Errorf("%q: %w", m.Name, ErrLandmarkUnavailable)
		}
		sum += m.LogValue(p)
	}
	return sum, nil
}

// PointEvaluator scores landmark positions against annotated target points
// under an isotropic Gaussian noise model.
type PointEvaluator struct {
	Targets map[string]Point
	Noise   IsotropicGaussian
}

func (e *PointEvaluator) LogValue(r LandmarkRenderer) (float64, error) {
	if !(e.Noise.Sigma > 0) {
		return 0, ErrInvalidSigma
	}
	names := lo.Keys(e.Targets)
	// Fixed order keeps the floating point sum reproducible.
	sort.Strings(names)

	var sum float64
	for _, name := range names {
		p, ok := r.Landmark(name)
		if !ok {
			return 0, fmt.Errorf("%q: %w", name, ErrLandmarkUnavailable)
		}
		t := e.Targets[name]
		sum += e.Noise.LogDensity2D(p.X-t.X, p.Y-t.Y)
	}
	return sum, nil
}

// ProductEvaluator treats its evaluators as independent and sums their log values.
type ProductEvaluator []Evaluator

func (e ProductEvaluator) LogValue(r LandmarkRenderer) (float64, error) {
	var sum float64
	for _, ev := range e {
		v, err := ev.LogValue(r)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

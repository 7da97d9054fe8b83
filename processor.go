package tropic

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/tropic/imop"
	"github.com/esimov/tropic/utils"
	log "github.com/sirupsen/logrus"
)

// Mode selects the field computed by the Processor.
type Mode string

const (
	// ModeDistance computes the distance to the nearest foreground pixel.
	ModeDistance Mode = "distance"
	// ModeSigned computes the signed distance to the foreground boundary.
	ModeSigned Mode = "signed"
	// ModeEdges computes the distance to the nearest Sobel edge.
	ModeEdges Mode = "edges"
	// ModeDetect computes the pre-convolved face detection map.
	ModeDetect Mode = "detect"
)

// debugOpacity is the opacity of the rendered field drawn over the source in debug mode.
const debugOpacity = 0.6

// Processor options
type Processor struct {
	Mode Mode
	// Threshold is the luminance threshold for the mask modes
	// and the gradient magnitude threshold for ModeEdges.
	Threshold     float64
	Invert        bool
	BlurRadius    int
	MaxSize       int
	Sigma         float64
	FalsePositive float64
	FalseNegative float64
	Cascade       string
	Colormap      Colormap
	Workers       int
	Debug         bool
	FaceDetector  *FaceDetector
	Spinner       *utils.Spinner

	mu sync.Mutex
}

// Prepare loads the resources needed by the selected mode. It is safe to call it
// more than once and from several goroutines.
func (p *Processor) Prepare() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.Mode {
	case ModeDistance, ModeSigned, ModeEdges:
	case ModeDetect:
		if !(p.Sigma > 0) {
			return fmt.Errorf("detect mode: %w", ErrInvalidSigma)
		}
		if p.FaceDetector != nil {
			return nil
		}
		if p.Cascade == "" {
			return errors.New("please specify a face classifier when using the detect mode")
		}
		fd, err := LoadFaceDetector(p.Cascade)
		if err != nil {
			return err
		}
		p.FaceDetector = fd
	default:
		return fmt.Errorf("unknown mode %q", p.Mode)
	}
	return nil
}

// errorRates returns the configured detector error rates, or nil when no correction is requested.
func (p *Processor) errorRates() *ErrorRates {
	if p.FalsePositive == 0 && p.FalseNegative == 0 {
		return nil
	}
	return &ErrorRates{FalsePositive: p.FalsePositive, FalseNegative: p.FalseNegative}
}

func (p *Processor) colormap() Colormap {
	if p.Colormap != "" {
		return p.Colormap
	}
	switch p.Mode {
	case ModeSigned:
		return Diverging
	case ModeDetect:
		return Heat
	}
	return Gray
}

// preprocess downscales and blurs the source image as requested by the options.
func (p *Processor) preprocess(img *image.NRGBA) *image.NRGBA {
	if p.MaxSize > 0 {
		b := img.Bounds()
		if b.Dx() > p.MaxSize || b.Dy() > p.MaxSize {
			img = imaging.Fit(img, p.MaxSize, p.MaxSize, imaging.Lanczos)
		}
	}
	if p.BlurRadius > 0 {
		img = imaging.Blur(img, float64(p.BlurRadius))
	}
	return img
}

// Field computes the grid selected by the processor mode over img.
func (p *Processor) Field(img *image.NRGBA) (*Grid, error) {
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	conv := NewConvolver(p.Workers)
	now := time.Now()
	defer func() {
		log.Debugf("%s field of %dx%d image took %s", p.Mode,
			img.Bounds().Dx(), img.Bounds().Dy(), utils.FormatTime(time.Since(now)))
	}()

	switch p.Mode {
	case ModeDistance, ModeSigned:
		mask := MaskFromImage(img, p.Threshold, p.Invert)
		if n := mask.Count(); n == 0 || n == len(mask.Bits) {
			log.Warnf("mask has %d foreground pixels out of %d, distances are not finite", n, len(mask.Bits))
		}
		if p.Mode == ModeSigned {
			return conv.SignedDistanceTransform(mask), nil
		}
		return conv.DistanceTransform(mask), nil
	case ModeEdges:
		mask := EdgeMask(img, p.Threshold)
		if p.Invert {
			mask = mask.Invert()
		}
		log.Debugf("detected %d edge pixels", mask.Count())
		return conv.DistanceTransform(mask), nil
	case ModeDetect:
		dm := p.FaceDetector.DetectionMap(img)
		cm, err := conv.PreConvolve(dm, p.Sigma, p.errorRates())
		if err != nil {
			return nil, err
		}
		return cm.Grid(), nil
	}
	return nil, fmt.Errorf("unknown mode %q", p.Mode)
}

// Process decodes the image from r, computes the field selected by the mode
// and encodes its rendering into w. Files are encoded by their extension.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return err
	}
	img := p.preprocess(imgToNRGBA(src))

	field, err := p.Field(img)
	if err != nil {
		return err
	}
	res := Render(field, p.colormap())

	if p.Debug {
		blend := imop.NewBlend()
		if err := blend.Set(imop.Overlay); err != nil {
			return err
		}
		res = blend.Draw(res, img, debugOpacity)
	}
	return encodeImg(w, res)
}

package tropic

import (
	"fmt"
	"image"
	"math"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/esimov/tropic/utils"
)

// FaceLandmark is the landmark name used for detection maps built from face detections.
const FaceLandmark = "face"

// FaceDetector finds faces with a pigo cascade classifier and turns the
// detections into a detection map for the face centre landmark.
type FaceDetector struct {
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64
	Angle       float64
	// MinScore drops detections with a lower score.
	MinScore float32

	classifier *pigo.Pigo
}

// NewFaceDetector unpacks a binary pigo cascade.
func NewFaceDetector(cascade []byte) (fd *FaceDetector, err error) {
	// The unpacker indexes the packet without checking its length.
	defer func() {
		if r := recover(); r != nil {
			fd, err = nil, fmt.Errorf("error unpacking the cascade file: %v", r)
		}
	}()
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &FaceDetector{
		MinSize:     20,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		classifier:  classifier,
	}, nil
}

// LoadFaceDetector reads the cascade file from path.
func LoadFaceDetector(path string) (*FaceDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the cascade file: %w", err)
	}
	return NewFaceDetector(cascade)
}

// Detect runs the classifier over img and returns the clustered detections.
func (fd *FaceDetector) Detect(img *image.NRGBA) []pigo.Detection {
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()
	maxSize := fd.MaxSize
	if maxSize <= 0 {
		maxSize = utils.Max(dx, dy)
	}

	params := pigo.CascadeParams{
		MinSize:     fd.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: fd.ShiftFactor,
		ScaleFactor: fd.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: rgbToGrayscale(img),
			Rows:   dy,
			Cols:   dx,
			Dim:    dx,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	faces := fd.classifier.RunCascade(params, fd.Angle)
	faces = fd.classifier.ClusterDetections(faces, fd.IoU)

	kept := faces[:0]
	for _, f := range faces {
		if f.Q >= fd.MinScore {
			kept = append(kept, f)
		}
	}
	return kept
}

// DetectionMap runs Detect and converts the result with DetectionMapFromFaces.
func (fd *FaceDetector) DetectionMap(img *image.NRGBA) *DetectionMap {
	b := img.Bounds()
	return DetectionMapFromFaces(FaceLandmark, b.Dx(), b.Dy(), fd.Detect(img))
}

// DetectionMapFromFaces places the log-sigmoid of every detection score at the
// detection centre. Cells without a detection are impossible (-Inf).
// Detections whose centre falls outside of the map are ignored.
func DetectionMapFromFaces(name string, width, height int, faces []pigo.Detection) *DetectionMap {
	dm := NewDetectionMap(name, width, height)
	g := dm.LogCertainty
	for _, f := range faces {
		if !g.In(f.Col, f.Row) {
			continue
		}
		if lc := logSigmoid(float64(f.Q)); lc > g.At(f.Col, f.Row) {
			g.Set(f.Col, f.Row, lc)
		}
	}
	return dm
}

// logSigmoid returns log(1 / (1 + e^-q)) without overflowing for large |q|.
func logSigmoid(q float64) float64 {
	if q < 0 {
		return q - math.Log1p(math.Exp(q))
	}
	return -math.Log1p(math.Exp(-q))
}

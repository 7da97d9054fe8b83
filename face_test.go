package tropic

import (
	"image"
	"math"
	"os"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionMapFromFaces(t *testing.T) {
	faces := []pigo.Detection{
		{Row: 4, Col: 6, Scale: 20, Q: 5},
		{Row: 4, Col: 6, Scale: 22, Q: 2},
		{Row: 1, Col: 2, Scale: 18, Q: -1},
		{Row: 40, Col: 2, Scale: 18, Q: 9},
	}
	dm := DetectionMapFromFaces(FaceLandmark, 10, 8, faces)
	require.NotNil(t, dm)
	assert.Equal(t, FaceLandmark, dm.Name)

	g := dm.LogCertainty
	assert.InDelta(t, logSigmoid(5), g.At(6, 4), 1e-12)
	assert.InDelta(t, logSigmoid(-1), g.At(2, 1), 1e-12)

	var finite int
	for _, v := range g.Pix {
		if !math.IsInf(v, -1) {
			finite++
		}
	}
	assert.Equal(t, 2, finite)
}

func TestDetectionMapFromFaces_PreConvolve(t *testing.T) {
	dm := DetectionMapFromFaces(FaceLandmark, 12, 12, []pigo.Detection{{Row: 6, Col: 5, Q: 3}})
	cm, err := PreConvolve(dm, 2, nil)
	require.NoError(t, err)

	noise := IsotropicGaussian{Sigma: 2}
	assert.InDelta(t, logSigmoid(3)+noise.LogDensity2D(2, -1), cm.LogValue(Point{X: 7, Y: 5}), 1e-9)
}

func TestLogSigmoid(t *testing.T) {
	for _, q := range []float64{-30, -2, 0, 0.5, 4, 30} {
		assert.InDelta(t, math.Log(1/(1+math.Exp(-q))), logSigmoid(q), 1e-9)
	}
	assert.InDelta(t, -1000, logSigmoid(-1000), 1e-9)
	assert.InDelta(t, 0, logSigmoid(1000), 1e-12)
	assert.LessOrEqual(t, logSigmoid(50), 0.0)
}

func TestFaceDetector_InvalidCascade(t *testing.T) {
	_, err := LoadFaceDetector("testdata/missing_cascade")
	assert.Error(t, err)

	path := t.TempDir() + "/cascade"
	require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0644))
	_, err = LoadFaceDetector(path)
	assert.Error(t, err)
}

const (
	cascadePath = "testdata/facefinder"
	samplePath  = "testdata/sample.jpg"
)

func loadSample(t *testing.T) *image.NRGBA {
	t.Helper()
	f, err := os.Open(samplePath)
	require.NoError(t, err)
	defer f.Close()

	src, _, err := image.Decode(f)
	require.NoError(t, err)
	return imgToNRGBA(src)
}

func TestFaceDetector_Detect(t *testing.T) {
	fd, err := LoadFaceDetector(cascadePath)
	require.NoError(t, err)
	fd.ShiftFactor = 0.2
	fd.IoU = 0.1

	img := loadSample(t)
	faces := fd.Detect(img)
	require.NotEmpty(t, faces)

	b := img.Bounds()
	for _, f := range faces {
		assert.Positive(t, f.Q)
		assert.True(t, f.Col >= 0 && f.Col < b.Dx() && f.Row >= 0 && f.Row < b.Dy())
	}

	// An impossible score threshold drops every detection.
	fd.MinScore = math.MaxFloat32
	assert.Empty(t, fd.Detect(img))
}

func TestFaceDetector_DetectionMap(t *testing.T) {
	fd, err := LoadFaceDetector(cascadePath)
	require.NoError(t, err)
	fd.ShiftFactor = 0.2
	fd.IoU = 0.1

	img := loadSample(t)
	faces := fd.Detect(img)
	require.NotEmpty(t, faces)

	dm := fd.DetectionMap(img)
	assert.Equal(t, FaceLandmark, dm.Name)
	assert.Equal(t, img.Bounds().Dx(), dm.LogCertainty.Width)
	assert.Equal(t, img.Bounds().Dy(), dm.LogCertainty.Height)

	best := faces[0]
	for _, f := range faces {
		assert.False(t, math.IsInf(dm.LogCertainty.At(f.Col, f.Row), -1))
		if f.Q > best.Q {
			best = f
		}
	}

	// The strongest face is the peak of the pre-convolved map.
	cm, err := PreConvolve(dm, 4, nil)
	require.NoError(t, err)
	peak := cm.LogValue(Point{X: float64(best.Col), Y: float64(best.Row)})
	assert.InDelta(t, logSigmoid(float64(best.Q))+cm.Noise.LogDensity2D(0, 0), peak, 1e-9)
	for _, v := range cm.Grid().Pix {
		assert.LessOrEqual(t, v, peak+1e-9)
	}
}

package imop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlend_Basic(t *testing.T) {
	assert := assert.New(t)

	op := NewBlend()
	assert.Equal(Normal, op.Get())
	err := op.Set("blend_mode_not_supported")
	assert.Error(err)
	assert.Equal(Normal, op.Get())

	assert.NoError(op.Set(Darken))
	assert.Equal(Darken, op.Get())
	assert.NoError(op.Set(Lighten))
	assert.Equal(Lighten, op.Get())
}

func TestBlend_Modes(t *testing.T) {
	assert := assert.New(t)

	pinkFront := color.RGBA{R: 214, G: 20, B: 65, A: 255}
	orangeBack := color.RGBA{R: 250, G: 121, B: 17, A: 255}

	rect := image.Rect(0, 0, 1, 1)
	source := image.NewNRGBA(rect)
	backdrop := image.NewNRGBA(rect)
	draw.Draw(source, rect, &image.Uniform{pinkFront}, image.Point{}, draw.Src)
	draw.Draw(backdrop, rect, &image.Uniform{orangeBack}, image.Point{}, draw.Src)

	testCases := []struct {
		mode     string
		expected []uint8
	}{
		{Normal, []uint8{214, 20, 65, 255}},
		{Darken, []uint8{214, 20, 17, 255}},
		{Lighten, []uint8{250, 121, 65, 255}},
		{Multiply, []uint8{210, 9, 4, 255}},
		{Screen, []uint8{254, 132, 78, 255}},
		{Overlay, []uint8{253, 19, 9, 255}},
	}

	blend := NewBlend()
	for _, tc := range testCases {
		t.Run(tc.mode, func(t *testing.T) {
			assert.NoError(blend.Set(tc.mode))
			res := blend.Draw(source, backdrop, 1)
			assert.EqualValues(tc.expected, res.Pix)
		})
	}
}

func TestBlend_TransparentSourceKeepsBackdrop(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)
	source := image.NewNRGBA(rect)
	backdrop := image.NewNRGBA(rect)
	draw.Draw(backdrop, rect, &image.Uniform{color.NRGBA{R: 10, G: 20, B: 30, A: 255}}, image.Point{}, draw.Src)

	blend := NewBlend()
	assert.NoError(t, blend.Set(Multiply))
	res := blend.Draw(source, backdrop, 1)
	assert.Equal(t, backdrop.Pix, res.Pix)

	// Zero opacity hides even an opaque source.
	draw.Draw(source, rect, &image.Uniform{color.White}, image.Point{}, draw.Src)
	res = blend.Draw(source, backdrop, 0)
	assert.Equal(t, backdrop.Pix, res.Pix)
}

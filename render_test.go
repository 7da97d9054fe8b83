package tropic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_ParseColormap(t *testing.T) {
	for _, name := range []string{"gray", "heat", "diverging"} {
		cm, err := ParseColormap(name)
		require.NoError(t, err)
		assert.Equal(t, Colormap(name), cm)
	}
	_, err := ParseColormap("rainbow")
	assert.Error(t, err)
}

func TestRender_Gray(t *testing.T) {
	g := NewGrid(3, 1)
	g.Pix = []float64{0, 5, math.Inf(1)}
	img := Render(g, Gray)

	assert.Equal(t, []uint8{0, 0, 0, 255}, img.Pix[0:4])
	assert.Equal(t, []uint8{255, 255, 255, 255}, img.Pix[4:8])
	// Non finite cells stay transparent.
	assert.Equal(t, uint8(0), img.Pix[11])
}

func TestRender_Diverging(t *testing.T) {
	g := NewGrid(3, 1)
	g.Pix = []float64{-2, 0, 2}
	img := Render(g, Diverging)

	neg, mid, pos := img.NRGBAAt(0, 0), img.NRGBAAt(1, 0), img.NRGBAAt(2, 0)
	assert.Greater(t, neg.B, neg.R)
	assert.Greater(t, pos.R, pos.B)
	assert.Greater(t, mid.G, neg.G)
	assert.Equal(t, uint8(255), mid.A)
}

func TestRender_Heat(t *testing.T) {
	g := NewGrid(2, 2)
	g.Pix = []float64{math.Inf(-1), -10, -5, 0}
	img := Render(g, Heat)

	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
	low, high := img.NRGBAAt(1, 0), img.NRGBAAt(1, 1)
	assert.Greater(t, int(high.R)+int(high.G), int(low.R)+int(low.G))
}

func TestRender_NoFiniteValues(t *testing.T) {
	g := NewGrid(2, 2).Map(func(float64) float64 { return math.Inf(1) })
	img := Render(g, Gray)
	for _, v := range img.Pix {
		assert.Equal(t, uint8(0), v)
	}
}

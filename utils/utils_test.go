package utils

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtils_ShouldBeValidUrl(t *testing.T) {
	assert.True(t, IsValidUrl("https://github.com/esimov/tropic/"))
	assert.False(t, IsValidUrl("testdata/mask.png"))
	assert.False(t, IsValidUrl("-"))
}

func TestUtils_ShouldDetectValidFileType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	ftype, err := DetectContentType(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ftype)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("not an image"), 0644))
	ftype, err = DetectContentType(txt)
	require.NoError(t, err)
	assert.NotContains(t, ftype, "image")
}

func TestUtils_Math(t *testing.T) {
	assert.Equal(t, 2, Min(2, 3))
	assert.Equal(t, 2, Min(3, 2))
	assert.Equal(t, 3, Max(2, 3))
	assert.Equal(t, 1.5, Abs(-1.5))
	assert.Equal(t, 10, Clamp(12, 0, 10))
	assert.Equal(t, 0, Clamp(-4, 0, 10))
}

func TestUtils_FormatTime(t *testing.T) {
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 5.00s", FormatTime(2*time.Minute+5*time.Second))
	assert.Equal(t, "1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "1d 2h 0m 0.00s", FormatTime(26*time.Hour))
}

func TestUtils_DecorateText(t *testing.T) {
	assert.Equal(t, ErrorColor+"oops"+DefaultColor, DecorateText("oops", ErrorMessage))
	assert.Equal(t, "plain", DecorateText("plain", MessageType(42)))
}

func TestUtils_SpinnerStartStop(t *testing.T) {
	var buf safeBuffer
	s := NewSpinner("working", time.Millisecond, false)
	s.SetWriter(&buf)
	s.StopMsg = "done"

	s.Start()
	s.Start()
	time.Sleep(5 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Contains(t, buf.String(), "working")
	assert.Contains(t, buf.String(), "done")
}

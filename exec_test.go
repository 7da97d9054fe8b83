package tropic

import (
	"image"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/esimov/tropic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietSpinner() *utils.Spinner {
	s := utils.NewSpinner("", time.Millisecond, false)
	s.SetWriter(io.Discard)
	return s
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch filepath.Ext(path) {
	case ".gif":
		require.NoError(t, gif.Encode(f, img, nil))
	default:
		require.NoError(t, png.Encode(f, img))
	}
}

func TestExec_OutputName(t *testing.T) {
	assert.Equal(t, "a.png", outputName("/tmp/src/a.png"))
	assert.Equal(t, "b.JPG", outputName("b.JPG"))
	assert.Equal(t, "c.png", outputName("dir/c.gif"))
}

func TestExec_SingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "square.png")
	dst := filepath.Join(dir, "field.png")
	writeImage(t, src, squareImage())

	p := &Processor{Mode: ModeSigned, Threshold: 127, Spinner: quietSpinner()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-"}))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	res, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, squareImage().Bounds(), res.Bounds())

	err = p.Execute(&Ops{Src: src, Dst: filepath.Join(dir, "field.tiff"), PipeName: "-"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = p.Execute(&Ops{Src: filepath.Join(dir, "missing.png"), Dst: dst, PipeName: "-"})
	assert.Error(t, err)
}

func TestExec_Directory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeImage(t, filepath.Join(src, "one.png"), squareImage())
	writeImage(t, filepath.Join(src, "two.gif"), squareImage())
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	writeImage(t, filepath.Join(src, "nested", "three.png"), squareImage())
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip"), 0644))

	p := &Processor{Mode: ModeDistance, Threshold: 127, Spinner: quietSpinner()}
	require.NoError(t, p.Execute(&Ops{Src: src, Dst: dst, PipeName: "-", Workers: 2}))

	for _, name := range []string{"one.png", "two.png", "three.png"} {
		assert.FileExists(t, filepath.Join(dst, name))
	}
	assert.NoFileExists(t, filepath.Join(dst, "notes.txt"))
}

func TestExec_WalkDir(t *testing.T) {
	src := t.TempDir()
	writeImage(t, filepath.Join(src, "a.PNG"), squareImage())
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), nil, 0644))

	done := make(chan struct{})
	defer close(done)
	paths, errc := walkDir(done, src, validExtensions)

	var found []string
	for p := range paths {
		found = append(found, filepath.Base(p))
	}
	assert.NoError(t, <-errc)
	assert.Equal(t, []string{"a.PNG"}, found)
}

package tropic

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned when the output file extension has no known encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// encodeImg encodes an image to a destination of type io.Writer.
// Files are encoded by their extension, any other writer receives a jpeg.
func encodeImg(w io.Writer, img image.Image) error {
	switch w := w.(type) {
	case *os.File:
		switch ext := strings.ToLower(filepath.Ext(w.Name())); ext {
		case "", ".jpg", ".jpeg":
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
		case ".png":
			return png.Encode(w, img)
		case ".bmp":
			return bmp.Encode(w, img)
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
		}
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	}
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := srcBounds.Dx() * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}

// luminance returns the Rec. 601 luma of the pixel at (x, y) in the range [0, 255].
func luminance(src *image.NRGBA, x, y int) float64 {
	i := src.PixOffset(x, y)
	r, g, b := src.Pix[i], src.Pix[i+1], src.Pix[i+2]
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// rgbToGrayscale converts an image to grayscale mode and
// returns the pixel values as an one dimensional array.
func rgbToGrayscale(src *image.NRGBA) []uint8 {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	gray := make([]uint8, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray[y*width+x] = uint8(luminance(src, b.Min.X+x, b.Min.Y+y))
		}
	}
	return gray
}

// GridFromImage returns the luminance of every pixel as a grid of values in [0, 255].
func GridFromImage(src *image.NRGBA) *Grid {
	b := src.Bounds()
	return GridFunc(b.Dx(), b.Dy(), func(x, y int) float64 {
		return luminance(src, b.Min.X+x, b.Min.Y+y)
	})
}

// MaskFromImage thresholds the image luminance: pixels brighter than threshold
// are foreground. With invert set the dark pixels are foreground instead.
// Fully transparent pixels are always background.
func MaskFromImage(src *image.NRGBA, threshold float64, invert bool) *Mask {
	b := src.Bounds()
	return MaskFunc(b.Dx(), b.Dy(), func(x, y int) bool {
		px, py := b.Min.X+x, b.Min.Y+y
		if src.Pix[src.PixOffset(px, py)+3] == 0 {
			return false
		}
		return (luminance(src, px, py) > threshold) != invert
	})
}

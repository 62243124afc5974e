package imagery

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/tiff"
)

// ConvertTIFFToPNG decodes an 8-bit RGB(A) TIFF and writes it as PNG.
// Pixel values are copied unchanged; any alpha channel is dropped.
func ConvertTIFFToPNG(tifPath, pngPath string) (retErr error) {
	in, err := os.Open(tifPath)
	if err != nil {
		return fmt.Errorf("failed to open TIFF: %w", err)
	}
	defer in.Close()

	img, err := tiff.Decode(in)
	if err != nil {
		return fmt.Errorf("failed to decode TIFF %s: %w", tifPath, err)
	}

	out, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("failed to create PNG file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			retErr = errors.Join(retErr, closeErr)
		}
	}()

	if err := png.Encode(out, OpaqueRGB(img)); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// OpaqueRGB copies the non-premultiplied RGB samples of img into an opaque NRGBA image
func OpaqueRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, c)
		}
	}
	return dst
}

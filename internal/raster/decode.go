package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// MaxUploadBytes bounds the size of a single uploaded image
const MaxUploadBytes = 200 << 20

// TIFFReader decodes TIFF bytes of any depth and band count
type TIFFReader func(data []byte) (*Array, error)

// Decoder turns uploaded bytes into a Buffer
type Decoder struct {
	// ReadTIFF is used for TIFF uploads; nil falls back to the pure Go reader,
	// which only handles 8 and 16-bit files
	ReadTIFF TIFFReader
}

// Decode uses the default Decoder
func Decode(data []byte, mimeType string) (*Buffer, error) {
	return Decoder{}.Decode(data, mimeType)
}

// Decode dispatches on mimeType
func (d Decoder) Decode(data []byte, mimeType string) (*Buffer, error) {
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(data), MaxUploadBytes)
	}

	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/tiff", "image/tif":
		read := d.ReadTIFF
		if read == nil {
			read = ReadTIFFPure
		}
		a, err := read(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read tiff: %w", err)
		}
		buf, err := ToBuffer(a)
		if err != nil {
			return nil, err
		}
		buf.Source = Info{Format: "TIFF", Mode: ArrayMode(a), Bands: a.Channels}
		return buf, nil
	case "image/png", "image/jpeg", "image/jpg":
		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		buf, err := FromImage(img)
		if err != nil {
			return nil, err
		}
		mode, bands := ImageMode(img)
		buf.Source = Info{Format: strings.ToUpper(format), Mode: mode, Bands: bands}
		return buf, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mimeType)
}

// ReadTIFFPure reads a TIFF with golang.org/x/image/tiff
func ReadTIFFPure(data []byte) (*Array, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch m := img.(type) {
	case *image.Gray:
		a := NewArray(w, h, 1, KindUint8)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a.Data[y*w+x] = float64(m.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return a, nil
	case *image.Gray16:
		a := NewArray(w, h, 1, KindInteger)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a.Data[y*w+x] = float64(m.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return a, nil
	}

	buf, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	return buf.Array(), nil
}

// MimeType guesses the upload type from a file name
func MimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return ""
}

package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Buffer is an 8-bit three channel raster, interleaved RGB
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8

	Geo    *GeoRef
	Source Info
}

// Info describes the file a Buffer was decoded from
type Info struct {
	Format string `json:"format"` // PNG, JPEG or TIFF
	Mode   string `json:"mode"`
	Bands  int    `json:"bands"`
}

// NewBuffer allocates a black buffer
func NewBuffer(width, height int) *Buffer {
	return &Buffer{Width: width, Height: height, Pix: make([]uint8, 3*width*height)}
}

// At returns channel c of pixel (x, y)
func (b *Buffer) At(x, y, c int) uint8 {
	return b.Pix[3*(y*b.Width+x)+c]
}

// Set stores v in channel c of pixel (x, y)
func (b *Buffer) Set(x, y, c int, v uint8) {
	b.Pix[3*(y*b.Width+x)+c] = v
}

// Channel returns every sample of channel c as float64
func (b *Buffer) Channel(c int) []float64 {
	out := make([]float64, 0, b.Width*b.Height)
	for i := c; i < len(b.Pix); i += 3 {
		out = append(out, float64(b.Pix[i]))
	}
	return out
}

// SameSize reports whether both buffers cover the same pixel grid
func (b *Buffer) SameSize(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// Image returns an opaque copy of the buffer
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// ToBuffer normalizes a and fits it to three channels. One channel (or gray
// plus alpha) is repeated into R, G and B; beyond three only the first three
// are kept.
func ToBuffer(a *Array) (*Buffer, error) {
	n, err := Normalize(a)
	if err != nil {
		return nil, err
	}

	var src [3]int
	switch {
	case n.Channels >= 3:
		src = [3]int{0, 1, 2}
	case n.Channels >= 1:
		src = [3]int{0, 0, 0}
	default:
		return nil, fmt.Errorf("unsupported channel count %d", n.Channels)
	}

	buf := NewBuffer(n.Width, n.Height)
	for c := 0; c < 3; c++ {
		band := n.Band(src[c])
		for i, v := range band {
			buf.Pix[3*i+c] = uint8(v)
		}
	}
	buf.Geo = a.Geo
	return buf, nil
}

// ArrayMode names the colour mode of an array: L, LA, RGB and RGBA for 8-bit
// samples, otherwise the band count and sample kind
func ArrayMode(a *Array) string {
	if a.Kind == KindUint8 {
		switch a.Channels {
		case 1:
			return "L"
		case 2:
			return "LA"
		case 3:
			return "RGB"
		case 4:
			return "RGBA"
		}
	}
	if a.Channels == 1 {
		return a.Kind.String()
	}
	return fmt.Sprintf("%d-band %s", a.Channels, a.Kind)
}

// ImageMode names the colour mode of a decoded image
func ImageMode(img image.Image) (mode string, bands int) {
	switch img.(type) {
	case *image.Gray:
		return "L", 1
	case *image.Gray16:
		return "L;16", 1
	case *image.Paletted:
		return "P", 1
	case *image.RGBA, *image.YCbCr:
		return "RGB", 3
	case *image.NRGBA:
		return "RGBA", 4
	case *image.RGBA64:
		return "RGB;16", 3
	case *image.NRGBA64:
		return "RGBA;16", 4
	case *image.CMYK:
		return "CMYK", 4
	}
	return "RGB", 3
}

// FromImage converts a decoded image. 16-bit grayscale and colour images are
// stretched like any other wide integer raster; everything else is read as
// 8-bit RGB with alpha dropped.
func FromImage(img image.Image) (*Buffer, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyRaster
	}

	switch m := img.(type) {
	case *image.Gray16:
		a := NewArray(w, h, 1, KindInteger)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a.Data[y*w+x] = float64(m.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return ToBuffer(a)
	case *image.RGBA64, *image.NRGBA64:
		a := NewArray(w, h, 3, KindInteger)
		n := w * h
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				i := y*w + x
				a.Data[i] = float64(c.R)
				a.Data[n+i] = float64(c.G)
				a.Data[2*n+i] = float64(c.B)
			}
		}
		return ToBuffer(a)
	}

	buf := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			buf.Set(x, y, 0, c.R)
			buf.Set(x, y, 1, c.G)
			buf.Set(x, y, 2, c.B)
		}
	}
	return buf, nil
}

// Array returns the buffer as a three band uint8 array
func (b *Buffer) Array() *Array {
	a := NewArray(b.Width, b.Height, 3, KindUint8)
	n := b.Width * b.Height
	for i := 0; i < n; i++ {
		for c := 0; c < 3; c++ {
			a.Data[c*n+i] = float64(b.Pix[3*i+c])
		}
	}
	return a
}

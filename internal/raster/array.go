package raster

import (
	"errors"
	"fmt"
	"math"
)

// Kind is the sample type a raster was stored with
type Kind int

const (
	KindUint8 Kind = iota
	KindInteger
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var ErrEmptyRaster = errors.New("raster has no pixels")

// GeoRef places a north-up raster: the top-left corner of pixel (0, 0) is at
// OriginX/OriginY in the EPSG coordinate system and pixels are PixelWidth by
// PixelHeight units, both positive.
type GeoRef struct {
	EPSG        int
	Geographic  bool
	OriginX     float64
	OriginY     float64
	PixelWidth  float64
	PixelHeight float64
}

// Array is a multi-band raster with band-sequential samples:
// sample (x, y) of band b is Data[b*Width*Height + y*Width + x].
type Array struct {
	Width    int
	Height   int
	Channels int
	Kind     Kind
	Data     []float64
	Geo      *GeoRef // nil when the source carries no georeferencing
}

// NewArray allocates a zeroed array
func NewArray(width, height, channels int, kind Kind) *Array {
	return &Array{
		Width:    width,
		Height:   height,
		Channels: channels,
		Kind:     kind,
		Data:     make([]float64, width*height*channels),
	}
}

func (a *Array) validate() error {
	if a == nil || a.Width <= 0 || a.Height <= 0 || a.Channels <= 0 {
		return ErrEmptyRaster
	}
	if len(a.Data) != a.Width*a.Height*a.Channels {
		return fmt.Errorf("raster data has %d samples, want %dx%dx%d", len(a.Data), a.Width, a.Height, a.Channels)
	}
	return nil
}

// Band returns the samples of band b
func (a *Array) Band(b int) []float64 {
	n := a.Width * a.Height
	return a.Data[b*n : (b+1)*n]
}

// Normalize maps the array to 8-bit samples. uint8 arrays are returned
// unchanged. Anything else is stretched linearly from its [min, max] onto
// [0, 255] and truncated; a constant array becomes all zeros. NaN samples do
// not take part in min/max and map to 0.
func Normalize(a *Array) (*Array, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if a.Kind == KindUint8 {
		return a, nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range a.Data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := NewArray(a.Width, a.Height, a.Channels, KindUint8)
	out.Geo = a.Geo
	span := hi - lo
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || span == 0 {
		return out, nil
	}
	for i, v := range a.Data {
		if math.IsNaN(v) {
			continue
		}
		s := math.Trunc((v - lo) / span * 255)
		out.Data[i] = math.Max(0, math.Min(255, s))
	}
	return out, nil
}

package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"satview/internal/raster"
	"satview/pkg/geotiff"
)

func gradient(w, h int, offset uint8) *raster.Buffer {
	b := raster.NewBuffer(w, h)
	for i := range b.Pix {
		b.Pix[i] = uint8(i%200) + offset
	}
	return b
}

func TestCompareIdenticalImages(t *testing.T) {
	a := gradient(8, 6, 0)
	b := gradient(8, 6, 0)

	r, err := Compare(a, b)
	require.NoError(t, err)
	require.NotNil(t, r.Difference)
	assert.Empty(t, r.Note)

	for _, ch := range r.Channels {
		assert.Equal(t, 0.0, ch.Delta, ch.Name)
		assert.Equal(t, ch.OriginalMean, ch.ResultMean)
		assert.Equal(t, 48, ch.Difference[0], ch.Name)
		assert.Equal(t, 48, ch.Difference.Total())
		assert.Equal(t, 48, ch.Original.Total())
		assert.Zero(t, ch.DifferenceMean)
	}
}

func TestCompareDeltaAndDifference(t *testing.T) {
	a := raster.NewBuffer(2, 1)
	b := raster.NewBuffer(2, 1)
	copy(a.Pix, []uint8{10, 100, 255, 30, 100, 0})
	copy(b.Pix, []uint8{20, 90, 0, 40, 100, 255})

	r, err := Compare(a, b)
	require.NoError(t, err)

	assert.Equal(t, "red", r.Channels[0].Name)
	assert.Equal(t, 10.0, r.Channels[0].Delta)
	assert.Equal(t, -5.0, r.Channels[1].Delta)
	assert.Equal(t, 0.0, r.Channels[2].Delta)

	// |b - a| without 8-bit wrap-around
	assert.Equal(t, []uint8{10, 10, 255, 10, 0, 255}, r.Difference.Pix)
	assert.Equal(t, 255.0, r.Channels[2].DifferenceMean)
	assert.Equal(t, 2, r.Channels[2].Difference[Bins-1])
}

func TestHistogramBins(t *testing.T) {
	h := histogram([]float64{0, 5, 6, 128, 255})
	require.Len(t, h, Bins)
	assert.Equal(t, 2, h[0])
	assert.Equal(t, 1, h[1])
	assert.Equal(t, 1, h[25])
	assert.Equal(t, 1, h[49])
}

func TestCompareSizeMismatch(t *testing.T) {
	r, err := Compare(gradient(4, 4, 0), gradient(3, 4, 5))
	require.NoError(t, err)
	assert.Nil(t, r.Difference)
	assert.Contains(t, r.Note, "differ in size")
	assert.Nil(t, r.Channels[0].Difference)
	assert.Equal(t, 16, r.Channels[0].Original.Total())
	assert.Equal(t, 12, r.Channels[0].Result.Total())

	assert.ErrorIs(t, WriteDifferenceTIFF(r, filepath.Join(t.TempDir(), "d.tif")), ErrSizeMismatch)
}

func TestCompareRequiresBoth(t *testing.T) {
	_, err := Compare(nil, gradient(1, 1, 0))
	assert.ErrorIs(t, err, ErrMissingImage)

	_, err = Compare(raster.NewBuffer(0, 0), gradient(1, 1, 0))
	assert.ErrorIs(t, err, raster.ErrEmptyRaster)
}

func TestWriteDifferenceTIFF(t *testing.T) {
	a := gradient(3, 2, 0)
	b := gradient(3, 2, 7)
	r, err := Compare(a, b)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "diff.tif")
	require.NoError(t, WriteDifferenceTIFF(r, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := tiff.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	red, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(7*0x101), red)
}

func TestDifferenceKeepsGeoreferencing(t *testing.T) {
	geo := &raster.GeoRef{EPSG: 3857, OriginX: 8637000, OriginY: 1458000, PixelWidth: 10, PixelHeight: 10}
	a := gradient(2, 2, 0)
	b := gradient(2, 2, 3)
	b.Geo = geo

	r, err := Compare(a, b)
	require.NoError(t, err)
	assert.Equal(t, geo, r.Difference.Geo)

	tags := geoTags(r.Difference.Geo)
	assert.Equal(t, []float64{0, 0, 0, 8637000, 1458000, 0}, tags[geotiff.TagType_ModelTiepointTag])
	assert.Nil(t, geoTags(nil))
}

package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satview/internal/geo"
)

func testHandle(t *testing.T, c Collection) (*Handle, geo.Point, geo.Region) {
	t.Helper()
	req := testRequest(t)
	region := geo.RegionAround(req.Point, geo.DefaultBufferMeters)
	return &Handle{
		Query: Query{Collection: c, Point: req.Point, Region: region, Start: req.Dates.Start, End: req.Dates.ExclusiveEnd()},
		Scene: Scene{ID: "LC08_144051_20230301", CloudValue: 3.2},
	}, req.Point, region
}

func TestExportNilHandleIsNoop(t *testing.T) {
	svc := newFakeService()
	dir := filepath.Join(t.TempDir(), "never-created")

	res, err := NewExporter(svc).Export(context.Background(), nil, "LANDSAT_8", geo.Region{}, geo.Point{}, dir)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, svc.exports)
	assert.NoDirExists(t, dir)
}

func TestExportWritesAllFiles(t *testing.T) {
	svc := newFakeService()
	h, point, region := testHandle(t, Landsat8)
	dir := filepath.Join(t.TempDir(), "nested", "out")

	res, err := NewExporter(svc).Export(context.Background(), h, "LANDSAT_8", region, point, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "LANDSAT_8_12.9716_77.5946.tif"), res.GeoTIFF)
	assert.Equal(t, filepath.Join(dir, "LANDSAT_8_12.9716_77.5946_rgb.tif"), res.RGBTIFF)
	assert.Equal(t, filepath.Join(dir, "LANDSAT_8_12.9716_77.5946.png"), res.PNG)
	assert.Len(t, res.Files(), 3)
	for _, f := range res.Files() {
		assert.FileExists(t, f)
	}
	assert.Empty(t, res.Footprint)
	assert.NoFileExists(t, filepath.Join(dir, "LANDSAT_8_12.9716_77.5946.geojson"))

	require.Len(t, svc.exports, 2)
	assert.Nil(t, svc.exports[0].Visualization)
	assert.Equal(t, 10.0, svc.exports[0].Scale)
	require.NotNil(t, svc.exports[1].Visualization)
	assert.Equal(t, Landsat8.Visualization(), *svc.exports[1].Visualization)
}

func TestExportFootprintSidecar(t *testing.T) {
	svc := newFakeService()
	h, point, region := testHandle(t, Landsat8)
	exporter := NewExporter(svc)
	exporter.Footprints = true

	res, err := exporter.Export(context.Background(), h, "LANDSAT_8", region, point, t.TempDir())
	require.NoError(t, err)
	assert.Len(t, res.Files(), 3)

	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	data, err := os.ReadFile(res.Footprint)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "LC08_144051_20230301", fc.Features[0].Properties["scene"])
	assert.Equal(t, "2023-12-31", fc.Features[0].Properties["end"])
}

func TestExportPNGPreservesPixels(t *testing.T) {
	svc := newFakeService()
	src := testRGB(6, 4)
	svc.visualImage = src
	h, point, region := testHandle(t, Sentinel2)

	res, err := NewExporter(svc).Export(context.Background(), h, "SENTINEL_2", region, point, t.TempDir())
	require.NoError(t, err)

	f, err := os.Open(res.PNG)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	require.Equal(t, src.Bounds(), img.Bounds())
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			assert.Equal(t, src.NRGBAAt(x, y), got)
		}
	}
}

func TestExportGeoTIFFFailure(t *testing.T) {
	svc := newFakeService()
	svc.exportErrs["LANDSAT_9"] = errors.New("permission denied")
	h, point, region := testHandle(t, Landsat9)

	res, err := NewExporter(svc).Export(context.Background(), h, "LANDSAT_9", region, point, t.TempDir())
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, StageGeoTIFF, exportErr.Stage)
	assert.Empty(t, res.Files())
}

func TestExportPNGFailureKeepsGeoTIFF(t *testing.T) {
	svc := newFakeService()
	svc.corruptRGB["SENTINEL_2"] = true
	h, point, region := testHandle(t, Sentinel2)

	res, err := NewExporter(svc).Export(context.Background(), h, "SENTINEL_2", region, point, t.TempDir())
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, StagePNG, exportErr.Stage)
	assert.FileExists(t, res.GeoTIFF)
	assert.FileExists(t, res.RGBTIFF)
	assert.Empty(t, res.PNG)
}

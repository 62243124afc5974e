package naming

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutputDirName(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 1, 0, time.Local)
	assert.Equal(t, "satellite_images_20231231_235901", OutputDirName(ts))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "LANDSAT_8_12.9716_77.5946", BaseName("LANDSAT_8", 12.97164, 77.59459))
	assert.Equal(t, "SENTINEL_2_-33.8688_-70.0000", BaseName("SENTINEL_2", -33.8688, -70))
}

func TestPathsFor(t *testing.T) {
	p := PathsFor("out", "LANDSAT_9", 1, 2)
	assert.Equal(t, filepath.Join("out", "LANDSAT_9_1.0000_2.0000.tif"), p.GeoTIFF)
	assert.Equal(t, filepath.Join("out", "LANDSAT_9_1.0000_2.0000_rgb.tif"), p.RGBTIFF)
	assert.Equal(t, filepath.Join("out", "LANDSAT_9_1.0000_2.0000.png"), p.PNG)
	assert.Equal(t, filepath.Join("out", "LANDSAT_9_1.0000_2.0000.geojson"), p.Footprint)
}

package naming

import (
	"fmt"
	"path/filepath"
	"time"

	"satview/internal/common"
)

// OutputDirPrefix prefixes every per-run output directory
const OutputDirPrefix = "satellite_images_"

// File suffixes written for each exported collection
const (
	GeoTIFFExt    = ".tif"
	RGBTIFFSuffix = "_rgb.tif"
	PNGExt        = ".png"
	FootprintExt  = ".geojson"
)

// OutputDirName creates the per-run directory name
// Format: satellite_images_{YYYYMMDD_HHMMSS}
func OutputDirName(t time.Time) string {
	return OutputDirPrefix + common.FormatRunTimestamp(t)
}

// BaseName creates the file stem shared by every export of one collection
// Format: {name}_{lat:.4f}_{lon:.4f}
func BaseName(name string, lat, lon float64) string {
	return fmt.Sprintf("%s_%.4f_%.4f", name, lat, lon)
}

// ExportPaths holds the file paths produced for one collection
type ExportPaths struct {
	GeoTIFF   string
	RGBTIFF   string
	PNG       string
	Footprint string
}

// PathsFor returns the export paths for a collection inside outputDir
func PathsFor(outputDir, name string, lat, lon float64) ExportPaths {
	base := filepath.Join(outputDir, BaseName(name, lat, lon))
	return ExportPaths{
		GeoTIFF:   base + GeoTIFFExt,
		RGBTIFF:   base + RGBTIFFSuffix,
		PNG:       base + PNGExt,
		Footprint: base + FootprintExt,
	}
}

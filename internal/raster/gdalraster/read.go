// Package gdalraster reads scientific TIFFs of any sample type through GDAL.
package gdalraster

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"
	log "github.com/sirupsen/logrus"

	"satview/internal/raster"
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(godal.RegisterAll)
}

// ReadTIFF decodes TIFF bytes. GDAL opens files, so the bytes are spooled
// to a temporary file first.
func ReadTIFF(data []byte) (*raster.Array, error) {
	tmp, err := os.CreateTemp("", "satview-*.tif")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return ReadFile(tmp.Name())
}

// ReadFile reads every band of the raster at path
func ReadFile(path string) (*raster.Array, error) {
	register()

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gdal open %s: %w", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	if st.SizeX <= 0 || st.SizeY <= 0 || st.NBands <= 0 {
		return nil, raster.ErrEmptyRaster
	}

	bands := ds.Bands()
	a := raster.NewArray(st.SizeX, st.SizeY, len(bands), kindOf(bands[0].Structure().DataType))
	for i, band := range bands {
		if err := band.Read(0, 0, a.Band(i), st.SizeX, st.SizeY); err != nil {
			return nil, fmt.Errorf("read band %d: %w", i+1, err)
		}
	}
	a.Geo = geoRef(ds)

	log.WithField("path", path).Debugf("[Raster] Read %dx%d, %d bands, %s", st.SizeX, st.SizeY, len(bands), a.Kind)
	return a, nil
}

// geoRef returns the placement of a north-up dataset with an EPSG coded
// spatial reference, or nil
func geoRef(ds *godal.Dataset) *raster.GeoRef {
	if ds.Projection() == "" {
		return nil
	}
	gt, err := ds.GeoTransform()
	if err != nil || gt[2] != 0 || gt[4] != 0 || gt[1] <= 0 || gt[5] >= 0 {
		return nil
	}
	sr := ds.SpatialRef()
	defer sr.Close()
	code, err := strconv.Atoi(sr.AuthorityCode(""))
	if err != nil || code <= 0 || code > 0xffff {
		return nil
	}
	return &raster.GeoRef{
		EPSG:        code,
		Geographic:  sr.Geographic(),
		OriginX:     gt[0],
		OriginY:     gt[3],
		PixelWidth:  gt[1],
		PixelHeight: -gt[5],
	}
}

func kindOf(dt godal.DataType) raster.Kind {
	switch dt {
	case godal.Byte:
		return raster.KindUint8
	case godal.Float32, godal.Float64:
		return raster.KindFloat
	default:
		return raster.KindInteger
	}
}

package compare

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"satview/internal/raster"
	"satview/pkg/geotiff"
)

// WriteDifferenceTIFF saves the absolute difference raster as an RGB TIFF,
// georeferenced when the compared images were
func WriteDifferenceTIFF(r *Report, path string) (retErr error) {
	if r == nil || r.Difference == nil {
		return ErrSizeMismatch
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		retErr = errors.Join(retErr, f.Close())
	}()

	if err := geotiff.Encode(f, r.Difference.Image(), geoTags(r.Difference.Geo)); err != nil {
		return fmt.Errorf("failed to encode difference: %w", err)
	}
	log.WithField("path", path).Info("[Compare] Wrote difference image")
	return nil
}

func geoTags(g *raster.GeoRef) map[uint16]interface{} {
	if g == nil {
		return nil
	}
	return geotiff.GeoTags(uint16(g.EPSG), g.Geographic, g.OriginX, g.OriginY, g.PixelWidth, g.PixelHeight)
}

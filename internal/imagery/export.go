package imagery

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	log "github.com/sirupsen/logrus"

	"satview/internal/common"
	"satview/internal/geo"
	"satview/internal/utils/naming"
)

// ExportStage names the step of an export that failed
type ExportStage string

const (
	StageGeoTIFF       ExportStage = "geotiff"
	StageVisualization ExportStage = "visualization"
	StagePNG           ExportStage = "png"
)

// ExportError reports which export stage failed for a collection
type ExportError struct {
	Collection string
	Stage      ExportStage
	Err        error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s %s export failed: %v", e.Collection, e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ExportResult lists the files written for one collection. Paths are only set
// once the corresponding file was written successfully.
type ExportResult struct {
	Collection string `json:"collection"`
	GeoTIFF    string `json:"geotiff,omitempty"`
	RGBTIFF    string `json:"rgbTiff,omitempty"`
	PNG        string `json:"png,omitempty"`
	Footprint  string `json:"footprint,omitempty"`
}

// Files returns the image files written, in creation order
func (r *ExportResult) Files() []string {
	var files []string
	for _, p := range []string{r.GeoTIFF, r.RGBTIFF, r.PNG} {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

// Exporter renders image handles to GeoTIFF and PNG files on disk
type Exporter struct {
	service Service
	scale   float64

	// Footprints adds a GeoJSON sidecar next to each raw GeoTIFF. Off by
	// default so a run directory only holds the image files.
	Footprints bool
}

// NewExporter creates an exporter writing at ExportScale metres per pixel
func NewExporter(service Service) *Exporter {
	return &Exporter{service: service, scale: ExportScale}
}

// Export writes <name>_<lat>_<lon>.tif, _rgb.tif and .png into outputDir,
// plus a .geojson footprint when Footprints is set.
// A nil handle is a no-op returning (nil, nil). On failure the returned result
// still lists the files that were written before the failing stage.
func (e *Exporter) Export(ctx context.Context, handle *Handle, name string, region geo.Region, point geo.Point, outputDir string) (*ExportResult, error) {
	if handle == nil {
		return nil, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &ExportError{Collection: name, Stage: StageGeoTIFF, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}

	paths := naming.PathsFor(outputDir, name, point.Lat, point.Lon)
	result := &ExportResult{Collection: name}
	logger := log.WithField("collection", name)

	logger.Infof("Saving %s GeoTIFF...", name)
	raw, err := e.service.ExportGeoTIFF(ctx, ExportRequest{Handle: handle, Region: region, Scale: e.scale})
	if err != nil {
		return result, &ExportError{Collection: name, Stage: StageGeoTIFF, Err: err}
	}
	if err := os.WriteFile(paths.GeoTIFF, raw, 0644); err != nil {
		return result, &ExportError{Collection: name, Stage: StageGeoTIFF, Err: err}
	}
	result.GeoTIFF = paths.GeoTIFF

	if e.Footprints {
		e.writeFootprint(handle, region, paths.Footprint, result)
	}

	logger.Infof("Exporting RGB TIF for %s...", name)
	vis := handle.Collection().Visualization()
	rgb, err := e.service.ExportGeoTIFF(ctx, ExportRequest{Handle: handle, Region: region, Scale: e.scale, Visualization: &vis})
	if err != nil {
		return result, &ExportError{Collection: name, Stage: StageVisualization, Err: err}
	}
	if err := os.WriteFile(paths.RGBTIFF, rgb, 0644); err != nil {
		return result, &ExportError{Collection: name, Stage: StageVisualization, Err: err}
	}
	result.RGBTIFF = paths.RGBTIFF

	logger.Infof("Converting to PNG: %s", paths.PNG)
	if err := ConvertTIFFToPNG(paths.RGBTIFF, paths.PNG); err != nil {
		return result, &ExportError{Collection: name, Stage: StagePNG, Err: err}
	}
	result.PNG = paths.PNG

	logger.Info("PNG saved successfully")
	return result, nil
}

// writeFootprint stores the exported area and scene metadata next to the GeoTIFF.
// A failure here is logged and does not fail the export.
func (e *Exporter) writeFootprint(handle *Handle, region geo.Region, path string, result *ExportResult) {
	fc := geojson.NewFeatureCollection()
	fc.Append(region.Feature(map[string]interface{}{
		"collection": handle.Collection().Name,
		"catalog":    handle.Collection().CatalogID,
		"scene":      handle.Scene.ID,
		"cloud":      handle.Scene.CloudValue,
		"start":      common.FormatISO8601(handle.Query.Start),
		"end":        common.FormatISO8601(handle.Query.End.AddDate(0, 0, -1)),
		"scale":      e.scale,
	}))

	data, err := fc.MarshalJSON()
	if err == nil {
		err = os.WriteFile(path, data, 0644)
	}
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("Failed to write footprint sidecar")
		return
	}
	result.Footprint = path
}

// Package session wires settings into a ready acquisition pipeline and image
// decoder. Both the CLI and the desktop app start here.
package session

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"satview/internal/compare"
	"satview/internal/config"
	"satview/internal/earthengine"
	"satview/internal/imagery"
	"satview/internal/raster"
	"satview/internal/raster/gdalraster"
)

// NewService opens an Earth Engine session from settings
func NewService(ctx context.Context, s *config.UserSettings) (imagery.Service, error) {
	client, err := earthengine.NewClient(ctx, earthengine.Config{
		Project:         s.EEProject,
		CredentialsFile: s.CredentialsFile,
		Endpoint:        s.EEEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewPipeline builds the acquisition pipeline for service from settings.
// progress may be nil.
func NewPipeline(service imagery.Service, s *config.UserSettings, progress func(imagery.Outcome, int, int)) *imagery.Pipeline {
	return imagery.NewPipeline(service, imagery.PipelineOptions{
		OutputRoot:   s.OutputRoot,
		BufferMeters: s.BufferMeters,
		Collections:  s.SelectedCollections(),
		Footprints:   s.WriteFootprints,
		Progress:     progress,
	})
}

// Decoder reads TIFF uploads through GDAL
func Decoder() raster.Decoder {
	return raster.Decoder{ReadTIFF: gdalraster.ReadTIFF}
}

// DecodeFile reads and decodes an image file, choosing the codec by extension
func DecodeFile(path string) (*raster.Buffer, error) {
	mimeType := raster.MimeType(path)
	if mimeType == "" {
		return nil, fmt.Errorf("%w: %s", raster.ErrUnsupportedFormat, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > raster.MaxUploadBytes {
		return nil, fmt.Errorf("%s is larger than %d MB", path, raster.MaxUploadBytes>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	buf, err := Decoder().Decode(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithField("path", path).Debugf("[Session] Decoded %dx%d image", buf.Width, buf.Height)
	return buf, nil
}

// CompareFiles decodes both files and compares them. A decode failure for
// either file aborts the comparison.
func CompareFiles(originalPath, resultPath string) (*compare.Report, error) {
	original, err := DecodeFile(originalPath)
	if err != nil {
		return nil, fmt.Errorf("original image: %w", err)
	}
	result, err := DecodeFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("result image: %w", err)
	}
	return compare.Compare(original, result)
}

package imagery

import (
	"context"
	"time"

	"satview/internal/geo"
)

// ExportScale is the ground sample distance of every export, in metres per pixel
const ExportScale = 10.0

// Query selects the least cloudy image of a collection around a point
type Query struct {
	Collection Collection
	Point      geo.Point
	Region     geo.Region
	Start      time.Time
	// End is exclusive
	End time.Time
}

// Scene identifies the remote image chosen by a Query
type Scene struct {
	ID         string    `json:"id"`
	CloudValue float64   `json:"cloudValue"`
	Acquired   time.Time `json:"acquired"`
}

// Handle is a reference to a remote image that has been filtered, band-selected,
// rescaled and clipped. A nil *Handle means no image qualified.
type Handle struct {
	Query Query
	Scene Scene
}

// Collection returns the collection the handle was built from
func (h *Handle) Collection() Collection {
	return h.Query.Collection
}

// ExportRequest asks the service to render a Handle to GeoTIFF bytes
type ExportRequest struct {
	Handle *Handle
	Region geo.Region
	Scale  float64
	// Visualization is nil for the raw reflectance export
	Visualization *Visualization
}

// Service is the remote earth-observation API
type Service interface {
	// FirstImage returns the least cloudy scene for q, or nil when none qualifies
	FirstImage(ctx context.Context, q Query) (*Scene, error)
	// ExportGeoTIFF renders the request as GeoTIFF bytes
	ExportGeoTIFF(ctx context.Context, req ExportRequest) ([]byte, error)
}

package imagery

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"satview/internal/geo"
	"satview/internal/input"
)

// QueryBuilder turns a collection, point and date range into an image Handle
type QueryBuilder struct {
	service Service
}

// NewQueryBuilder creates a query builder backed by service
func NewQueryBuilder(service Service) *QueryBuilder {
	return &QueryBuilder{service: service}
}

// Build finds the least cloudy image of collection intersecting point within
// dates. It returns (nil, nil) when no image passes the cloud filter.
func (b *QueryBuilder) Build(ctx context.Context, collection Collection, point geo.Point, region geo.Region, dates input.DateRange) (*Handle, error) {
	q := Query{
		Collection: collection,
		Point:      point,
		Region:     region,
		Start:      dates.Start,
		End:        dates.ExclusiveEnd(),
	}

	logger := log.WithFields(log.Fields{
		"collection": collection.Name,
		"catalog":    collection.CatalogID,
		"dates":      dates.String(),
	})
	logger.Debug("Querying collection")

	scene, err := b.service.FirstImage(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection.Name, err)
	}
	if scene == nil {
		logger.Warnf("No %s images found matching the criteria", collection.Name)
		return nil, nil
	}

	logger.WithFields(log.Fields{
		"scene": scene.ID,
		"cloud": scene.CloudValue,
	}).Info("Selected least cloudy image")

	return &Handle{Query: q, Scene: *scene}, nil
}

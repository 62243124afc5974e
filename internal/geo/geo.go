package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

// DefaultBufferMeters is the radius of the square area fetched around a point
const DefaultBufferMeters = 225.0

// Coordinate limits for WGS84 decimal degrees
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 location in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPoint validates lat/lon and returns a Point
func NewPoint(lat, lon float64) (Point, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Point{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}
	if lat < MinLat || lat > MaxLat {
		return Point{}, fmt.Errorf("%w: latitude %f out of range [%g, %g]", ErrInvalidCoordinate, lat, MinLat, MaxLat)
	}
	if lon < MinLon || lon > MaxLon {
		return Point{}, fmt.Errorf("%w: longitude %f out of range [%g, %g]", ErrInvalidCoordinate, lon, MinLon, MaxLon)
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// Orb returns the point in orb's lon/lat order
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lon)
}

// Region is the rectangular area exported around a Point
type Region struct {
	Bound orb.Bound
}

// RegionAround buffers the point by radius metres and takes the bounds.
// Near the antimeridian the bound is unwrapped so one edge lies past ±180°
// and Min.Lon <= Max.Lon always holds.
func RegionAround(p Point, radiusMeters float64) Region {
	b := geo.NewBoundAroundPoint(p.Orb(), radiusMeters)
	if b.Min.Lon() > b.Max.Lon() {
		if p.Lon >= 0 {
			b.Max[0] += 360
		} else {
			b.Min[0] -= 360
		}
	}
	return Region{Bound: b}
}

// Contains reports whether p lies inside the region
func (r Region) Contains(p Point) bool {
	return r.Bound.Contains(p.Orb())
}

// South, West, North and East return the region edges in degrees
func (r Region) South() float64 { return r.Bound.Min.Lat() }
func (r Region) West() float64  { return r.Bound.Min.Lon() }
func (r Region) North() float64 { return r.Bound.Max.Lat() }
func (r Region) East() float64  { return r.Bound.Max.Lon() }

// Ring returns the closed exterior ring as [lon, lat] pairs, counter-clockwise
func (r Region) Ring() [][]float64 {
	ring := r.Bound.ToRing()
	out := make([][]float64, len(ring))
	for i, pt := range ring {
		out[i] = []float64{pt.Lon(), pt.Lat()}
	}
	return out
}

// Mercator returns the region bounds projected to EPSG:3857 metres
func (r Region) Mercator() orb.Bound {
	min := project.Point(r.Bound.Min, project.WGS84.ToMercator)
	max := project.Point(r.Bound.Max, project.WGS84.ToMercator)
	return orb.Bound{Min: min, Max: max}
}

// Feature returns the region footprint as a GeoJSON feature with the given properties
func (r Region) Feature(props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(r.Bound.ToPolygon())
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

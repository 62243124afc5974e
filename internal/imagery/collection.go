package imagery

import (
	"fmt"
	"strings"
)

// CloudThreshold is the maximum cloud percentage accepted for any collection
const CloudThreshold = 20.0

// Family groups collections that share band names and scaling
type Family string

const (
	FamilyLandsat  Family = "landsat"
	FamilySentinel Family = "sentinel"
)

// Rescale converts raw digital numbers to surface reflectance as
// value*Multiply + Add, or value/Divide when Divide is set
type Rescale struct {
	Multiply float64
	Add      float64
	Divide   float64
}

// Apply evaluates the rescale for one raw value
func (r Rescale) Apply(dn float64) float64 {
	if r.Divide != 0 {
		return dn / r.Divide
	}
	return dn*r.Multiply + r.Add
}

// Visualization is the display stretch used for the RGB export
type Visualization struct {
	Bands []string
	Min   float64
	Max   float64
	Gamma float64
}

// Collection describes one remote image collection
type Collection struct {
	Name           string
	CatalogID      string
	Family         Family
	CloudAttribute string
	CloudThreshold float64
	Bands          []string
	Rescale        Rescale
}

var (
	Landsat8 = Collection{
		Name:           "LANDSAT_8",
		CatalogID:      "LANDSAT/LC08/C02/T1_L2",
		Family:         FamilyLandsat,
		CloudAttribute: "CLOUD_COVER",
		CloudThreshold: CloudThreshold,
		Bands:          []string{"SR_B4", "SR_B3", "SR_B2"},
		Rescale:        Rescale{Multiply: 0.0000275, Add: -0.2},
	}
	Landsat9 = Collection{
		Name:           "LANDSAT_9",
		CatalogID:      "LANDSAT/LC09/C02/T1_L2",
		Family:         FamilyLandsat,
		CloudAttribute: "CLOUD_COVER",
		CloudThreshold: CloudThreshold,
		Bands:          []string{"SR_B4", "SR_B3", "SR_B2"},
		Rescale:        Rescale{Multiply: 0.0000275, Add: -0.2},
	}
	Sentinel2 = Collection{
		Name:           "SENTINEL_2",
		CatalogID:      "COPERNICUS/S2_SR_HARMONIZED",
		Family:         FamilySentinel,
		CloudAttribute: "CLOUDY_PIXEL_PERCENTAGE",
		CloudThreshold: CloudThreshold,
		Bands:          []string{"B4", "B3", "B2"},
		Rescale:        Rescale{Divide: 10000},
	}
)

// Collections returns every supported collection in processing order
func Collections() []Collection {
	return []Collection{Landsat8, Landsat9, Sentinel2}
}

// CollectionByName looks up a collection by its name, case-insensitively
func CollectionByName(name string) (Collection, error) {
	for _, c := range Collections() {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Collection{}, fmt.Errorf("unknown collection: %s", name)
}

// DisplayName returns the caption shown next to an exported image
func (c Collection) DisplayName() string {
	switch c.Name {
	case Landsat8.Name:
		return "Landsat 8"
	case Landsat9.Name:
		return "Landsat 9"
	case Sentinel2.Name:
		return "Sentinel-2"
	}
	return c.Name
}

// Visualization returns the fixed display stretch for the collection's RGB bands
func (c Collection) Visualization() Visualization {
	return Visualization{
		Bands: c.Bands,
		Min:   0,
		Max:   3000,
		Gamma: 1.4,
	}
}

package earthengine

import (
	"fmt"
	"math"
	"time"

	ee "google.golang.org/api/earthengine/v1"

	"satview/internal/geo"
	"satview/internal/imagery"
)

// Expression graphs are built from nested function invocations; the root
// node is always stored under key "0".
const rootKey = "0"

func invoke(name string, args map[string]ee.ValueNode) ee.ValueNode {
	return ee.ValueNode{FunctionInvocationValue: &ee.FunctionInvocation{FunctionName: name, Arguments: args}}
}

func constant(v interface{}) ee.ValueNode {
	return ee.ValueNode{ConstantValue: v}
}

func list(nodes ...ee.ValueNode) ee.ValueNode {
	values := make([]*ee.ValueNode, len(nodes))
	for i := range nodes {
		values[i] = &nodes[i]
	}
	return ee.ValueNode{ArrayValue: &ee.ArrayValue{Values: values}}
}

func expression(root ee.ValueNode) *ee.Expression {
	return &ee.Expression{Result: rootKey, Values: map[string]ee.ValueNode{rootKey: root}}
}

func pointGeometry(p geo.Point) ee.ValueNode {
	return invoke("GeometryConstructors.Point", map[string]ee.ValueNode{
		"coordinates": constant([]float64{p.Lon, p.Lat}),
	})
}

func regionGeometry(r geo.Region) ee.ValueNode {
	return invoke("GeometryConstructors.Polygon", map[string]ee.ValueNode{
		"coordinates": constant([][][]float64{r.Ring()}),
	})
}

func date(t time.Time) ee.ValueNode {
	return invoke("Date", map[string]ee.ValueNode{
		"value": constant(t.UnixMilli()),
	})
}

// filteredCollection is the collection restricted to images over the point,
// inside [Start, End) and under the cloud threshold
func filteredCollection(q imagery.Query) ee.ValueNode {
	c := q.Collection
	collection := invoke("ImageCollection.load", map[string]ee.ValueNode{
		"id": constant(c.CatalogID),
	})
	collection = invoke("Collection.filter", map[string]ee.ValueNode{
		"collection": collection,
		"filter": invoke("Filter.intersects", map[string]ee.ValueNode{
			"leftField":  constant(".all"),
			"rightValue": pointGeometry(q.Point),
		}),
	})
	collection = invoke("Collection.filter", map[string]ee.ValueNode{
		"collection": collection,
		"filter": invoke("Filter.dateRangeContains", map[string]ee.ValueNode{
			"leftValue": invoke("DateRange", map[string]ee.ValueNode{
				"start": date(q.Start),
				"end":   date(q.End),
			}),
			"rightField": constant("system:time_start"),
		}),
	})
	return invoke("Collection.filter", map[string]ee.ValueNode{
		"collection": collection,
		"filter": invoke("Filter.lessThan", map[string]ee.ValueNode{
			"leftField":  constant(c.CloudAttribute),
			"rightValue": constant(c.CloudThreshold),
		}),
	})
}

// leastCloudy sorts the filtered collection ascending by the cloud attribute
// and takes its first image
func leastCloudy(q imagery.Query) ee.ValueNode {
	sorted := invoke("Collection.limit", map[string]ee.ValueNode{
		"collection": filteredCollection(q),
		"key":        constant(q.Collection.CloudAttribute),
		"ascending":  constant(true),
	})
	return invoke("Collection.first", map[string]ee.ValueNode{
		"collection": sorted,
	})
}

func sizeExpression(q imagery.Query) *ee.Expression {
	return expression(invoke("Collection.size", map[string]ee.ValueNode{
		"collection": filteredCollection(q),
	}))
}

func sceneExpression(q imagery.Query) *ee.Expression {
	first := leastCloudy(q)
	get := func(property string) ee.ValueNode {
		return invoke("Element.get", map[string]ee.ValueNode{
			"object":   first,
			"property": constant(property),
		})
	}
	return expression(list(
		get("system:index"),
		get(q.Collection.CloudAttribute),
		get("system:time_start"),
	))
}

func imageConstant(v float64) ee.ValueNode {
	return invoke("Image.constant", map[string]ee.ValueNode{"value": constant(v)})
}

// reflectance selects the RGB bands and converts digital numbers with the
// collection's own scale and offset
func reflectance(h *imagery.Handle) ee.ValueNode {
	c := h.Collection()
	img := invoke("Image.select", map[string]ee.ValueNode{
		"input":         leastCloudy(h.Query),
		"bandSelectors": constant(c.Bands),
	})

	r := c.Rescale
	if r.Divide != 0 {
		return invoke("Image.divide", map[string]ee.ValueNode{
			"image1": img,
			"image2": imageConstant(r.Divide),
		})
	}
	img = invoke("Image.multiply", map[string]ee.ValueNode{
		"image1": img,
		"image2": imageConstant(r.Multiply),
	})
	return invoke("Image.add", map[string]ee.ValueNode{
		"image1": img,
		"image2": imageConstant(r.Add),
	})
}

func exportExpression(req imagery.ExportRequest) *ee.Expression {
	img := invoke("Image.clip", map[string]ee.ValueNode{
		"input":    reflectance(req.Handle),
		"geometry": regionGeometry(req.Region),
	})
	if vis := req.Visualization; vis != nil {
		img = invoke("Image.visualize", map[string]ee.ValueNode{
			"image": img,
			"bands": constant(vis.Bands),
			"min":   constant(vis.Min),
			"max":   constant(vis.Max),
			"gamma": constant(vis.Gamma),
		})
	}
	return expression(img)
}

// maxGridDimension is the largest width or height computePixels accepts
const maxGridDimension = 32768

// pixelGrid covers the region in EPSG:3857 at scale metres per pixel. Regions
// that collapse or explode under the projection, as they do at the poles, are
// rejected before any request is made.
func pixelGrid(r geo.Region, scale float64) (*ee.PixelGrid, error) {
	b := r.Mercator()
	spanX := b.Max.X() - b.Min.X()
	spanY := b.Max.Y() - b.Min.Y()
	if spanX <= 0 || spanY <= 0 {
		return nil, &Failure{Kind: KindInvalid, Message: fmt.Sprintf("region %v has no extent in EPSG:3857", r.Bound)}
	}
	width := int64(math.Ceil(spanX / scale))
	height := int64(math.Ceil(spanY / scale))
	if width > maxGridDimension || height > maxGridDimension {
		return nil, &Failure{Kind: KindInvalid, Message: fmt.Sprintf("export grid %dx%d exceeds %d pixels per side", width, height, maxGridDimension)}
	}
	return &ee.PixelGrid{
		CrsCode: "EPSG:3857",
		AffineTransform: &ee.AffineTransform{
			ScaleX:     scale,
			ScaleY:     -scale,
			TranslateX: b.Min.X(),
			TranslateY: b.Max.Y(),
		},
		Dimensions: &ee.GridDimensions{Width: width, Height: height},
	}, nil
}

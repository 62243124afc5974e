package imagery

import (
	"bytes"
	"context"
	"image"
	"image/color"

	"satview/pkg/geotiff"
)

type fakeService struct {
	scenes      map[string]*Scene
	queryErrs   map[string]error
	exportErrs  map[string]error
	corruptRGB  map[string]bool
	queries     []Query
	exports     []ExportRequest
	visualImage image.Image
}

func newFakeService() *fakeService {
	return &fakeService{
		scenes:     map[string]*Scene{},
		queryErrs:  map[string]error{},
		exportErrs: map[string]error{},
		corruptRGB: map[string]bool{},
	}
}

func (f *fakeService) FirstImage(_ context.Context, q Query) (*Scene, error) {
	f.queries = append(f.queries, q)
	if err := f.queryErrs[q.Collection.Name]; err != nil {
		return nil, err
	}
	return f.scenes[q.Collection.Name], nil
}

func (f *fakeService) ExportGeoTIFF(_ context.Context, req ExportRequest) ([]byte, error) {
	f.exports = append(f.exports, req)
	name := req.Handle.Collection().Name
	if err := f.exportErrs[name]; err != nil {
		return nil, err
	}
	if req.Visualization != nil && f.corruptRGB[name] {
		return []byte("not a tiff"), nil
	}

	img := f.visualImage
	if img == nil {
		img = testRGB(4, 3)
	}
	var buf bytes.Buffer
	if err := geotiff.Encode(&buf, img, geotiff.GeoTags(3857, false, 0, 0, req.Scale, req.Scale)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func testRGB(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(50 * y), B: 200, A: 255})
		}
	}
	return img
}

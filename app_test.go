package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satview/internal/config"
	"satview/internal/imagery"
	"satview/pkg/geotiff"
)

type stubService struct {
	scenes  map[string]*imagery.Scene
	queries int
}

func (s *stubService) FirstImage(ctx context.Context, q imagery.Query) (*imagery.Scene, error) {
	s.queries++
	return s.scenes[q.Collection.Name], nil
}

func (s *stubService) ExportGeoTIFF(ctx context.Context, req imagery.ExportRequest) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.SetNRGBA(i%4, i/4, color.NRGBA{R: 90, G: 120, B: 60, A: 255})
	}
	var buf bytes.Buffer
	if err := geotiff.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func testApp(t *testing.T, svc imagery.Service) (*App, *[]AcquireProgress) {
	s := config.DefaultSettings()
	s.OutputRoot = t.TempDir()
	s.EEProject = "test-project"
	s.TelemetryEnabled = false

	a := newApp(s, filepath.Join(t.TempDir(), "settings.json"))
	opened := 0
	a.newService = func(ctx context.Context, s *config.UserSettings) (imagery.Service, error) {
		opened++
		require.Equal(t, 1, opened, "session should be opened once")
		return svc, nil
	}

	var events []AcquireProgress
	a.emit = func(event string, data interface{}) {
		require.Equal(t, "acquire-progress", event)
		events = append(events, data.(AcquireProgress))
	}
	a.openDir = func(path string) {
		t.Errorf("output directory opened without autoOpenOutputDir: %s", path)
	}
	return a, &events
}

func TestAcquireRejectsInvalidInput(t *testing.T) {
	svc := &stubService{}
	a, _ := testApp(t, svc)

	_, err := a.Acquire(AcquireRequest{Lat: 12.9, Lon: 77.5, StartDate: "2023-12-31", EndDate: "2023-01-01"})
	assert.Error(t, err)
	_, err = a.Acquire(AcquireRequest{Lat: 120, Lon: 77.5, StartDate: "2023-01-01", EndDate: "2023-12-31"})
	assert.Error(t, err)
	_, err = a.Acquire(AcquireRequest{Lat: 12.9, Lon: 77.5, StartDate: "01/01/2023", EndDate: "2023-12-31"})
	assert.Error(t, err)
	assert.Zero(t, svc.queries)
}

func TestAcquire(t *testing.T) {
	svc := &stubService{scenes: map[string]*imagery.Scene{
		"SENTINEL_2": {ID: "S2_TILE", CloudValue: 4.2},
	}}
	a, events := testApp(t, svc)

	req := AcquireRequest{Lat: 12.9716, Lon: 77.5946, StartDate: "2023-01-01", EndDate: "2023-12-31"}
	res, err := a.Acquire(req)
	require.NoError(t, err)

	assert.Equal(t, "(12.9716, 77.5946)", res.Point)
	require.Len(t, res.Collections, 3)
	assert.Equal(t, "no_image", res.Collections[0].Status)
	assert.Empty(t, res.Collections[0].Files)

	s2 := res.Collections[2]
	assert.Equal(t, "exported", s2.Status)
	assert.Equal(t, "S2_TILE", s2.SceneID)
	assert.Len(t, s2.Files, 3)
	assert.True(t, strings.HasSuffix(s2.PNGURL, "/SENTINEL_2_12.9716_77.5946.png"), s2.PNGURL)
	for _, f := range s2.Files {
		assert.FileExists(t, f)
	}

	require.Len(t, *events, 3)
	assert.Equal(t, AcquireProgress{Collection: "SENTINEL_2", Status: "exported", Done: 3, Total: 3}, (*events)[2])

	// second run reuses the session
	_, err = a.Acquire(req)
	require.NoError(t, err)
}

func TestAcquireOpensOutputDir(t *testing.T) {
	a, _ := testApp(t, &stubService{})
	a.settings.AutoOpenOutputDir = true
	var opened []string
	a.openDir = func(path string) { opened = append(opened, path) }

	res, err := a.Acquire(AcquireRequest{Lat: 1, Lon: 2, StartDate: "2023-01-01", EndDate: "2023-01-31"})
	require.NoError(t, err)
	assert.Equal(t, []string{res.OutputDir}, opened)
}

func TestAcquireRejectsConcurrentRun(t *testing.T) {
	svc := &stubService{}
	a, _ := testApp(t, svc)

	a.acquiring.Lock()
	_, err := a.Acquire(AcquireRequest{Lat: 1, Lon: 2, StartDate: "2023-01-01", EndDate: "2023-01-31"})
	a.acquiring.Unlock()
	assert.ErrorIs(t, err, ErrAcquireRunning)
	assert.Zero(t, svc.queries)
}

func TestOutputRootDuringSave(t *testing.T) {
	a, _ := testApp(t, &stubService{})
	other := t.TempDir()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = a.outputRoot()
		}
	}()
	s, err := a.GetSettings()
	require.NoError(t, err)
	s.OutputRoot = other
	require.NoError(t, a.SaveSettings(s))
	<-done

	assert.Equal(t, other, a.outputRoot())
}

func TestFileURL(t *testing.T) {
	assert.Equal(t, "file:///home/me/satview/run%201", fileURL("/home/me/satview/run 1"))
}

func writeImage(t *testing.T, path string, w, h int, v uint8) {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestCompareImages(t *testing.T) {
	a, _ := testApp(t, &stubService{})
	dir := t.TempDir()
	p1, p2 := filepath.Join(dir, "one.png"), filepath.Join(dir, "two.png")
	writeImage(t, p1, 5, 5, 100)
	writeImage(t, p2, 5, 5, 100)

	res, err := a.CompareImages(p1, p2)
	require.NoError(t, err)
	for _, ch := range res.Channels {
		assert.Zero(t, ch.Delta)
		assert.Equal(t, 25, ch.Difference[0])
	}
	assert.True(t, strings.HasPrefix(res.OriginalImage, "data:image/png;base64,"))
	assert.NotEmpty(t, res.DifferenceImage)
	assert.Equal(t, ImageInfo{Width: 5, Height: 5, Format: "PNG", Mode: "RGB"}, res.OriginalInfo)
	assert.Equal(t, res.OriginalInfo, res.ResultInfo)
}

func TestCompareImagesSkipsOnDecodeFailure(t *testing.T) {
	a, _ := testApp(t, &stubService{})
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writeImage(t, good, 2, 2, 10)
	bad := filepath.Join(dir, "bad.tif")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))

	res, err := a.CompareImages(bad, good)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestSettingsRoundTrip(t *testing.T) {
	a, _ := testApp(t, &stubService{})

	s, err := a.GetSettings()
	require.NoError(t, err)
	s.Theme = "dark"
	s.EEProject = "other-project"
	require.NoError(t, a.SaveSettings(s))
	assert.FileExists(t, a.GetSettingsPath())
	assert.Nil(t, a.service)

	got, err := a.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)

	bad := *got
	bad.OutputRoot = ""
	assert.Error(t, a.SaveSettings(&bad))
	got, _ = a.GetSettings()
	assert.NotEmpty(t, got.OutputRoot)
}

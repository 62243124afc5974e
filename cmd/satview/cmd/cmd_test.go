package cmd

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

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satview/internal/config"
	"satview/internal/imagery"
)

// emptyService never finds an image
type emptyService struct {
	queries []imagery.Query
}

func (s *emptyService) FirstImage(ctx context.Context, q imagery.Query) (*imagery.Scene, error) {
	s.queries = append(s.queries, q)
	return nil, nil
}

func (s *emptyService) ExportGeoTIFF(ctx context.Context, req imagery.ExportRequest) ([]byte, error) {
	panic("no export expected")
}

func resetFlags(cmds ...interface{ Flags() *pflag.FlagSet }) {
	for _, c := range cmds {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(fetchCmd, compareCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--settings", filepath.Join(t.TempDir(), "settings.json")))
	err := rootCmd.Execute()
	return out.String(), err
}

func withService(t *testing.T, svc imagery.Service) {
	orig := newService
	newService = func(ctx context.Context, s *config.UserSettings) (imagery.Service, error) {
		return svc, nil
	}
	t.Cleanup(func() { newService = orig })
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "satview "+Version+"\n", out)
}

func TestFetchWithFlags(t *testing.T) {
	svc := &emptyService{}
	withService(t, svc)
	root := t.TempDir()

	out, err := run(t, "", "fetch", "--lat", "12.9716", "--lon", "77.5946",
		"--start", "2023-01-01", "--end", "2023-12-31", "--out", root)
	require.NoError(t, err)

	assert.Contains(t, out, "No LANDSAT_8 images found matching the criteria!")
	assert.Contains(t, out, "No SENTINEL_2 images found matching the criteria!")
	assert.Contains(t, out, "All images saved to: "+root)
	require.Len(t, svc.queries, 3)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "satellite_images_"))
}

func TestFetchRejectsEndBeforeStart(t *testing.T) {
	svc := &emptyService{}
	withService(t, svc)

	_, err := run(t, "", "fetch", "--lat", "1", "--lon", "2",
		"--start", "2023-05-01", "--end", "2023-04-01", "--out", t.TempDir())
	assert.Error(t, err)
	assert.Empty(t, svc.queries)
}

func TestFetchFootprintFlag(t *testing.T) {
	var got *config.UserSettings
	orig := newService
	newService = func(ctx context.Context, s *config.UserSettings) (imagery.Service, error) {
		got = s
		return &emptyService{}, nil
	}
	t.Cleanup(func() { newService = orig })

	_, err := run(t, "", "fetch", "--lat", "1", "--lon", "2",
		"--start", "2023-01-01", "--end", "2023-01-31", "--out", t.TempDir(), "--footprint")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.WriteFootprints)

	_, err = run(t, "", "fetch", "--lat", "1", "--lon", "2",
		"--start", "2023-01-01", "--end", "2023-01-31", "--out", t.TempDir())
	require.NoError(t, err)
	assert.False(t, got.WriteFootprints, "footprints stay off by default")
}

func TestFetchInteractive(t *testing.T) {
	svc := &emptyService{}
	withService(t, svc)

	stdin := "abc\n77\n12.9716\n77.5946\n2023-12-31\n2023-01-01\n2023-01-01\n2023-12-31\n"
	out, err := run(t, stdin, "fetch", "--out", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "Invalid coordinates! Please enter numeric values.")
	assert.Contains(t, out, "Error: End date must be after start date.")
	require.Len(t, svc.queries, 3)
	assert.Equal(t, 12.9716, svc.queries[0].Point.Lat)
}

func writePNG(t *testing.T, path string, v uint8) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := 0; i < 9; i++ {
		img.SetNRGBA(i%3, i/3, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writePNG(t, a, 100)
	writePNG(t, b, 120)
	diff := filepath.Join(dir, "diff.tif")

	out, err := run(t, "", "compare", a, b, "--diff-out", diff)
	require.NoError(t, err)
	assert.Contains(t, out, "red")
	assert.Contains(t, out, "+20.00")
	assert.Contains(t, out, "Difference written to "+diff)
	assert.FileExists(t, diff)
}

func TestCompareNeedsTwoFiles(t *testing.T) {
	_, err := run(t, "", "compare", "only-one.png")
	assert.Error(t, err)
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, " ▁█", sparkline([]int{0, 1, 8}))
}

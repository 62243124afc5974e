package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"satview/internal/common"
	"satview/internal/compare"
	"satview/internal/config"
	"satview/internal/handlers/preview"
	"satview/internal/imagery"
	"satview/internal/input"
	"satview/internal/logging"
	"satview/internal/raster"
	"satview/internal/session"
	"satview/internal/telemetry"
)

// Set at build time with -ldflags
var AppVersion = "0.0.0-dev"

// ErrAcquireRunning is returned when Acquire is called during another run
var ErrAcquireRunning = errors.New("an acquisition is already running")

// AcquireRequest is the form submitted by the dashboard
type AcquireRequest struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
}

// CollectionResult is one collection's outcome as shown in the dashboard
type CollectionResult struct {
	Name       string   `json:"name"`
	Caption    string   `json:"caption"`
	Status     string   `json:"status"`
	Message    string   `json:"message,omitempty"`
	SceneID    string   `json:"sceneId,omitempty"`
	Acquired   string   `json:"acquired,omitempty"`
	CloudValue float64  `json:"cloudValue"`
	PNGURL     string   `json:"pngUrl,omitempty"`
	Files      []string `json:"files"`
}

// AcquireResult is returned once every collection was processed
type AcquireResult struct {
	OutputDir   string             `json:"outputDir"`
	Point       string             `json:"point"`
	Collections []CollectionResult `json:"collections"`
}

// AcquireProgress is emitted as "acquire-progress" after each collection
type AcquireProgress struct {
	Collection string `json:"collection"`
	Status     string `json:"status"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
}

// ImageInfo describes one compared file
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Mode   string `json:"mode"`
}

// CompareResult carries the statistics and inline previews of a comparison
type CompareResult struct {
	Channels        [3]compare.Channel `json:"channels"`
	Note            string             `json:"note,omitempty"`
	OriginalInfo    ImageInfo          `json:"originalInfo"`
	ResultInfo      ImageInfo          `json:"resultInfo"`
	OriginalImage   string             `json:"originalImage"`
	ResultImage     string             `json:"resultImage"`
	DifferenceImage string             `json:"differenceImage,omitempty"`
}

// App struct
type App struct {
	ctx          context.Context
	settings     *config.UserSettings
	settingsPath string
	mu           sync.Mutex
	acquiring    sync.Mutex
	devMode      bool
	service      imagery.Service
	preview      *preview.Server
	tracker      *telemetry.Tracker

	// replaced in tests
	newService func(context.Context, *config.UserSettings) (imagery.Service, error)
	emit       func(event string, data interface{})
	openDir    func(path string)
}

// NewApp creates a new App application struct
func NewApp() *App {
	config.LoadEnv()

	settingsPath := config.GetSettingsPath()
	settings, err := config.LoadSettingsFrom(settingsPath)
	if err != nil {
		log.Warnf("Failed to load settings, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	config.ApplyEnv(settings)
	logging.Setup(logging.FromEnv(settings.LogLevel))
	log.Infof("Settings loaded from: %s", settingsPath)

	if telemetry.Key != "" && settings.TelemetryEnabled && config.EnsureTelemetryID(settings) {
		if err := config.SaveSettingsTo(settingsPath, settings); err != nil {
			log.Warnf("Failed to persist telemetry id: %v", err)
		}
	}

	return newApp(settings, settingsPath)
}

func newApp(settings *config.UserSettings, settingsPath string) *App {
	var tracker *telemetry.Tracker
	if settings.TelemetryEnabled {
		tracker = telemetry.New(telemetry.Key, telemetry.Host, settings.TelemetryID)
	}

	a := &App{
		settings:     settings,
		settingsPath: settingsPath,
		preview:      preview.NewServer(settings.OutputRoot),
		tracker:      tracker,
		newService:   session.NewService,
	}
	a.emit = func(event string, data interface{}) {
		if a.ctx != nil {
			wailsRuntime.EventsEmit(a.ctx, event, data)
		}
	}
	a.openDir = func(path string) {
		if a.ctx != nil {
			wailsRuntime.BrowserOpenURL(a.ctx, fileURL(path))
		}
	}
	return a
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if a.devMode {
		log.SetLevel(log.DebugLevel)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(a.outputRoot(), 0755); err != nil {
		wailsRuntime.LogError(ctx, fmt.Sprintf("Failed to create output directory: %v", err))
	}

	if err := a.preview.Start(); err != nil {
		wailsRuntime.LogError(ctx, err.Error())
	}

	a.TrackEvent("app_started", map[string]interface{}{
		"version": a.GetAppVersion(),
		"os":      goruntime.GOOS,
		"arch":    goruntime.GOARCH,
	})
}

// shutdown cleans up resources
func (a *App) shutdown(ctx context.Context) {
	if err := a.preview.Shutdown(ctx); err != nil {
		log.Warnf("Preview server shutdown: %v", err)
	}
	if err := a.tracker.Close(); err != nil {
		log.Warnf("Telemetry flush failed: %v", err)
	}
}

// TrackEvent sends an event to PostHog
func (a *App) TrackEvent(event string, props map[string]interface{}) {
	a.tracker.Track(event, props)
}

// GetAppVersion returns the current application version
func (a *App) GetAppVersion() string {
	return AppVersion
}

// GetPreviewURL returns the base URL of the local preview server
func (a *App) GetPreviewURL() string {
	return a.preview.URL()
}

func (a *App) outputRoot() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.OutputRoot
}

// ensureService opens the Earth Engine session on first use
func (a *App) ensureService(ctx context.Context) (imagery.Service, *config.UserSettings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	settings := *a.settings
	if a.service != nil {
		return a.service, &settings, nil
	}
	svc, err := a.newService(ctx, &settings)
	if err != nil {
		return nil, nil, err
	}
	a.service = svc
	return svc, &settings, nil
}

// Acquire runs the acquisition for the three collections. Invalid input is
// rejected before anything is queried.
func (a *App) Acquire(req AcquireRequest) (*AcquireResult, error) {
	request, err := input.NewRequest(req.Lat, req.Lon, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	// Runs started in the same second would share an output directory
	if !a.acquiring.TryLock() {
		return nil, ErrAcquireRunning
	}
	defer a.acquiring.Unlock()

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	svc, settings, err := a.ensureService(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	progress := func(o imagery.Outcome, done, total int) {
		a.emit("acquire-progress", AcquireProgress{
			Collection: o.Name,
			Status:     string(o.Status),
			Done:       done,
			Total:      total,
		})
	}
	report, err := session.NewPipeline(svc, settings, progress).Run(ctx, request)
	if err != nil {
		return nil, err
	}

	result := &AcquireResult{OutputDir: report.OutputDir, Point: report.Point.String()}
	exported := 0
	for _, o := range report.Outcomes {
		cr := CollectionResult{
			Name:    o.Name,
			Caption: o.Caption,
			Status:  string(o.Status),
			Message: o.Message,
			Files:   []string{},
		}
		if o.Scene != nil {
			cr.SceneID = o.Scene.ID
			cr.CloudValue = o.Scene.CloudValue
			if !o.Scene.Acquired.IsZero() {
				cr.Acquired = common.FormatDisplay(o.Scene.Acquired)
			}
		}
		if o.Result != nil {
			cr.Files = o.Result.Files()
			if o.Result.PNG != "" {
				if u, err := a.preview.FileURL(o.Result.PNG); err == nil {
					cr.PNGURL = u
				} else {
					log.Warnf("No preview for %s: %v", o.Result.PNG, err)
				}
			}
		}
		if o.Status == imagery.StatusExported {
			exported++
		}
		result.Collections = append(result.Collections, cr)
	}

	if settings.AutoOpenOutputDir {
		a.openDir(report.OutputDir)
	}

	a.TrackEvent("acquisition_complete", map[string]interface{}{
		"exported": exported,
		"total":    len(report.Outcomes),
		"seconds":  int(time.Since(start).Seconds()),
	})
	return result, nil
}

// fileURL turns a local path into a file:// URL the OS can open
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// SelectImageFile opens a file picker limited to the comparable formats
func (a *App) SelectImageFile() (string, error) {
	return wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title:            "Select Image",
		DefaultDirectory: a.outputRoot(),
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images (*.png, *.jpg, *.jpeg, *.tif, *.tiff)", Pattern: "*.png;*.jpg;*.jpeg;*.tif;*.tiff"},
		},
	})
}

// CompareImages decodes both files and compares them. If either file cannot
// be decoded no statistics are returned.
func (a *App) CompareImages(originalPath, resultPath string) (*CompareResult, error) {
	original, err := session.DecodeFile(originalPath)
	if err != nil {
		return nil, fmt.Errorf("original image: %w", err)
	}
	result, err := session.DecodeFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("result image: %w", err)
	}

	report, err := compare.Compare(original, result)
	if err != nil {
		return nil, err
	}

	out := &CompareResult{
		Channels:     report.Channels,
		Note:         report.Note,
		OriginalInfo: imageInfo(original),
		ResultInfo:   imageInfo(result),
	}
	if out.OriginalImage, err = dataURI(original); err != nil {
		return nil, err
	}
	if out.ResultImage, err = dataURI(result); err != nil {
		return nil, err
	}
	if report.Difference != nil {
		if out.DifferenceImage, err = dataURI(report.Difference); err != nil {
			return nil, err
		}
	}

	a.TrackEvent("comparison_complete", map[string]interface{}{"sameSize": report.Difference != nil})
	return out, nil
}

func imageInfo(b *raster.Buffer) ImageInfo {
	return ImageInfo{Width: b.Width, Height: b.Height, Format: b.Source.Format, Mode: b.Source.Mode}
}

// dataURI encodes a buffer as an inline PNG for the frontend
func dataURI(b *raster.Buffer) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Image()); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

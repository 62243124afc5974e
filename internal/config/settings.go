package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"satview/internal/common"
	"satview/internal/geo"
	"satview/internal/imagery"
)

// Environment variables that override the settings file
const (
	EnvProject     = "SATVIEW_EE_PROJECT"
	EnvOutputRoot  = "SATVIEW_OUTPUT_ROOT"
	EnvEndpoint    = "SATVIEW_EE_ENDPOINT"
	EnvCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvLogLevel    = "LOG_LEVEL"
)

// UserSettings represents persistent user preferences
type UserSettings struct {
	// Output settings
	OutputRoot      string  `json:"outputRoot"`
	BufferMeters    float64 `json:"bufferMeters"`
	WriteFootprints bool    `json:"writeFootprints"`

	// Earth Engine session
	EEProject       string `json:"eeProject"`
	CredentialsFile string `json:"credentialsFile"`
	EEEndpoint      string `json:"eeEndpoint,omitempty"`

	// Collections fetched per request, in order
	Collections []string `json:"collections"`

	// Default request shown in the dashboard
	DefaultLat       float64 `json:"defaultLat"`
	DefaultLon       float64 `json:"defaultLon"`
	DefaultStartDate string  `json:"defaultStartDate"`
	DefaultEndDate   string  `json:"defaultEndDate"`

	// UI preferences
	Theme             string `json:"theme"` // "light", "dark", "system"
	AutoOpenOutputDir bool   `json:"autoOpenOutputDir"`

	LogLevel string `json:"logLevel"`

	TelemetryEnabled bool   `json:"telemetryEnabled"`
	TelemetryID      string `json:"telemetryId"`
}

// DefaultSettings returns default user settings
func DefaultSettings() *UserSettings {
	homeDir, _ := os.UserHomeDir()

	names := make([]string, 0, 3)
	for _, c := range imagery.Collections() {
		names = append(names, c.Name)
	}

	return &UserSettings{
		OutputRoot:        filepath.Join(homeDir, "satview"),
		BufferMeters:      geo.DefaultBufferMeters,
		Collections:       names,
		DefaultLat:        12.9716, // Bengaluru
		DefaultLon:        77.5946,
		DefaultStartDate:  "2023-01-01",
		DefaultEndDate:    "2023-12-31",
		Theme:             "system",
		AutoOpenOutputDir: false,
		LogLevel:          "info",
		TelemetryEnabled:  true,
	}
}

// GetSettingsPath returns the settings file path under ~/.satview/settings/
func GetSettingsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".satview", "settings", "settings.json")
}

// LoadSettingsFrom loads settings from path, falling back to defaults
// when the file does not exist
func LoadSettingsFrom(path string) (*UserSettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	// Merge with defaults for any missing fields
	defaults := DefaultSettings()
	if settings.OutputRoot == "" {
		settings.OutputRoot = defaults.OutputRoot
	}
	if settings.BufferMeters == 0 {
		settings.BufferMeters = defaults.BufferMeters
	}
	if len(settings.Collections) == 0 {
		settings.Collections = defaults.Collections
	}
	if settings.DefaultStartDate == "" {
		settings.DefaultStartDate = defaults.DefaultStartDate
	}
	if settings.DefaultEndDate == "" {
		settings.DefaultEndDate = defaults.DefaultEndDate
	}
	if settings.Theme == "" {
		settings.Theme = defaults.Theme
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}

	return &settings, nil
}

// SaveSettingsTo validates and writes settings to path
func SaveSettingsTo(path string, settings *UserSettings) error {
	if err := Validate(settings); err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// LoadEnv reads .env files into the process environment. Missing files are skipped.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warnf("[Config] Could not load %s: %v", f, err)
			}
			continue
		}
		log.Debugf("[Config] Loaded environment from %s", f)
	}
}

// ApplyEnv overrides settings with any set environment variables
func ApplyEnv(s *UserSettings) {
	if v, ok := os.LookupEnv(EnvProject); ok && v != "" {
		s.EEProject = v
	}
	if v, ok := os.LookupEnv(EnvOutputRoot); ok && v != "" {
		s.OutputRoot = v
	}
	if v, ok := os.LookupEnv(EnvEndpoint); ok && v != "" {
		s.EEEndpoint = v
	}
	if v, ok := os.LookupEnv(EnvCredentials); ok && v != "" {
		s.CredentialsFile = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		s.LogLevel = v
	}
}

// EnsureTelemetryID assigns a random install id if none is set and reports
// whether one was created
func EnsureTelemetryID(s *UserSettings) bool {
	if s.TelemetryID != "" {
		return false
	}
	s.TelemetryID = uuid.NewString()
	return true
}

// Validate checks settings before they are saved or used
func Validate(s *UserSettings) error {
	if s == nil {
		return fmt.Errorf("settings are required")
	}
	if strings.TrimSpace(s.OutputRoot) == "" {
		return fmt.Errorf("output root cannot be empty")
	}
	if s.BufferMeters <= 0 {
		return fmt.Errorf("buffer must be positive")
	}
	if len(s.Collections) == 0 {
		return fmt.Errorf("at least one collection is required")
	}
	for _, name := range s.Collections {
		if _, err := imagery.CollectionByName(name); err != nil {
			return err
		}
	}
	if _, err := geo.NewPoint(s.DefaultLat, s.DefaultLon); err != nil {
		return fmt.Errorf("default location: %w", err)
	}
	if !common.ValidateISO8601(s.DefaultStartDate) || !common.ValidateISO8601(s.DefaultEndDate) {
		return fmt.Errorf("default dates must be YYYY-MM-DD")
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", s.LogLevel)
	}
	switch s.Theme {
	case "light", "dark", "system":
	default:
		return fmt.Errorf("invalid theme: %s (must be light, dark, or system)", s.Theme)
	}
	return nil
}

// SelectedCollections resolves the configured collection names
func (s *UserSettings) SelectedCollections() []imagery.Collection {
	out := make([]imagery.Collection, 0, len(s.Collections))
	for _, name := range s.Collections {
		if c, err := imagery.CollectionByName(name); err == nil {
			out = append(out, c)
		}
	}
	return out
}

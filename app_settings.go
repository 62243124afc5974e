package main

import (
	log "github.com/sirupsen/logrus"

	"satview/internal/config"
	"satview/internal/logging"
)

// ===================
// Settings Management
// ===================

// GetSettings returns current user settings
func (a *App) GetSettings() (*config.UserSettings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Return a copy to prevent external modifications
	settingsCopy := *a.settings
	settingsCopy.Collections = append([]string(nil), a.settings.Collections...)
	return &settingsCopy, nil
}

// SaveSettings validates and saves user settings and updates app state
func (a *App) SaveSettings(settings *config.UserSettings) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := config.SaveSettingsTo(a.settingsPath, settings); err != nil {
		return err
	}

	reconnect := settings.EEProject != a.settings.EEProject ||
		settings.CredentialsFile != a.settings.CredentialsFile ||
		settings.EEEndpoint != a.settings.EEEndpoint

	a.settings = settings
	a.preview.SetRoot(settings.OutputRoot)
	if level, err := logging.ParseLevel(settings.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if reconnect {
		// The next acquisition opens a new session
		a.service = nil
	}

	log.Infof("Settings saved to %s", a.settingsPath)
	return nil
}

// GetSettingsPath returns the settings file path
func (a *App) GetSettingsPath() string {
	return a.settingsPath
}

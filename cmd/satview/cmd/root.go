package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"satview/internal/config"
	"satview/internal/logging"
)

// Version is set at build time
var Version = "0.0.0-dev"

var (
	settingsPath string
	logLevel     string
	settings     *config.UserSettings
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "satview",
	Short:         "Fetch least-cloudy Landsat and Sentinel-2 imagery around a point and compare images",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()

		s, err := config.LoadSettingsFrom(settingsPath)
		if err != nil {
			return err
		}
		config.ApplyEnv(s)
		logCfg := logging.FromEnv(s.LogLevel)
		if logLevel != "" {
			s.LogLevel = logLevel
			logCfg.Level = logLevel
		}
		logging.Setup(logCfg)
		log.Debugf("[CLI] Settings loaded from %s", settingsPath)

		settings = s
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("failed to execute command")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", config.GetSettingsPath(), "settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

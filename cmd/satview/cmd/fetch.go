package cmd

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"satview/internal/config"
	"satview/internal/geo"
	"satview/internal/imagery"
	"satview/internal/input"
	"satview/internal/session"
	"satview/internal/telemetry"
)

// newService is replaced in tests
var newService = session.NewService

var fetchFlags struct {
	lat, lon   float64
	start, end string
	out        string
	project    string
	footprint  bool
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Export Landsat 8, Landsat 9 and Sentinel-2 imagery around a point",
	Long: `Queries each collection for the least cloudy image over the point within the
date range and writes a GeoTIFF, an RGB GeoTIFF and a PNG per collection into a
new satellite_images_<timestamp> directory. Missing flags are asked for interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchFlags.out != "" {
			settings.OutputRoot = fetchFlags.out
		}
		if fetchFlags.project != "" {
			settings.EEProject = fetchFlags.project
		}
		if cmd.Flags().Changed("footprint") {
			settings.WriteFootprints = fetchFlags.footprint
		}

		req, err := fetchRequest(cmd)
		if err != nil {
			return err
		}

		service, err := newService(cmd.Context(), settings)
		if err != nil {
			return err
		}

		tracker := newTracker(settings)
		defer tracker.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Processing satellite collections...")
		progress := func(o imagery.Outcome, done, total int) {
			printOutcome(out, o)
		}
		report, err := session.NewPipeline(service, settings, progress).Run(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "All images saved to: %s\n", report.OutputDir)

		tracker.Track("cli_fetch", map[string]interface{}{
			"exported": countStatus(report, imagery.StatusExported),
			"no_image": countStatus(report, imagery.StatusNoImage),
		})
		return nil
	},
}

// fetchRequest validates the flags, prompting for whatever was not given
func fetchRequest(cmd *cobra.Command) (input.Request, error) {
	flags := cmd.Flags()
	prompter := input.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	if !(flags.Changed("lat") || flags.Changed("lon") || flags.Changed("start") || flags.Changed("end")) {
		return prompter.Request()
	}

	var point geo.Point
	var err error
	if flags.Changed("lat") && flags.Changed("lon") {
		point, err = geo.NewPoint(fetchFlags.lat, fetchFlags.lon)
	} else {
		point, err = prompter.Point()
	}
	if err != nil {
		return input.Request{}, err
	}

	var dates input.DateRange
	if flags.Changed("start") && flags.Changed("end") {
		dates, err = input.NewDateRange(fetchFlags.start, fetchFlags.end)
	} else {
		dates, err = prompter.Dates()
	}
	if err != nil {
		return input.Request{}, err
	}
	return input.Request{Point: point, Dates: dates}, nil
}

func printOutcome(w io.Writer, o imagery.Outcome) {
	switch o.Status {
	case imagery.StatusExported:
		fmt.Fprintf(w, "%s: %s\n", o.Caption, o.Result.PNG)
	case imagery.StatusNoImage:
		fmt.Fprintln(w, o.Message)
	default:
		fmt.Fprintf(w, "%s failed: %s\n", o.Name, o.Message)
	}
}

func countStatus(report *imagery.Report, status imagery.OutcomeStatus) int {
	n := 0
	for _, o := range report.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func newTracker(s *config.UserSettings) *telemetry.Tracker {
	if !s.TelemetryEnabled || telemetry.Key == "" {
		return telemetry.New("", "", "")
	}
	if config.EnsureTelemetryID(s) {
		if err := config.SaveSettingsTo(settingsPath, s); err != nil {
			log.Warnf("[CLI] Could not persist telemetry id: %v", err)
		}
	}
	return telemetry.New(telemetry.Key, telemetry.Host, s.TelemetryID)
}

func init() {
	f := fetchCmd.Flags()
	f.Float64Var(&fetchFlags.lat, "lat", 0, "latitude in decimal degrees")
	f.Float64Var(&fetchFlags.lon, "lon", 0, "longitude in decimal degrees")
	f.StringVar(&fetchFlags.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&fetchFlags.end, "end", "", "end date, inclusive (YYYY-MM-DD)")
	f.StringVar(&fetchFlags.out, "out", "", "output root (default from settings)")
	f.StringVar(&fetchFlags.project, "project", "", "Earth Engine cloud project")
	f.BoolVar(&fetchFlags.footprint, "footprint", false, "also write a GeoJSON footprint per collection")
	rootCmd.AddCommand(fetchCmd)
}

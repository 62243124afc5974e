package imagery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"satview/internal/geo"
	"satview/internal/input"
	"satview/internal/utils/naming"
)

// OutcomeStatus summarises what happened to one collection
type OutcomeStatus string

const (
	StatusExported     OutcomeStatus = "exported"
	StatusNoImage      OutcomeStatus = "no_image"
	StatusQueryFailed  OutcomeStatus = "query_failed"
	StatusExportFailed OutcomeStatus = "export_failed"
)

// Outcome is the result of processing one collection
type Outcome struct {
	Collection Collection    `json:"-"`
	Name       string        `json:"name"`
	Caption    string        `json:"caption"`
	Status     OutcomeStatus `json:"status"`
	Scene      *Scene        `json:"scene,omitempty"`
	Result     *ExportResult `json:"result,omitempty"`
	Message    string        `json:"message,omitempty"`
	Err        error         `json:"-"`
}

// Report collects the outcomes of one acquisition run
type Report struct {
	OutputDir string    `json:"outputDir"`
	Point     geo.Point `json:"point"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Files returns every image file written during the run
func (r *Report) Files() []string {
	var files []string
	for _, o := range r.Outcomes {
		if o.Result != nil {
			files = append(files, o.Result.Files()...)
		}
	}
	return files
}

// PipelineOptions configures a Pipeline
type PipelineOptions struct {
	// OutputRoot is the parent of the per-run satellite_images_* directory
	OutputRoot   string
	BufferMeters float64
	Collections  []Collection
	// Now defaults to time.Now
	Now func() time.Time
	// Footprints enables the GeoJSON sidecar per exported collection
	Footprints bool
	// Progress, if set, is called after each collection with its outcome and
	// the number of collections done so far
	Progress func(o Outcome, done, total int)
}

// Pipeline runs query and export for every collection, one after another
type Pipeline struct {
	builder  *QueryBuilder
	exporter *Exporter
	opts     PipelineOptions
}

// NewPipeline creates the acquisition pipeline shared by the CLI and the desktop UI
func NewPipeline(service Service, opts PipelineOptions) *Pipeline {
	if opts.BufferMeters <= 0 {
		opts.BufferMeters = geo.DefaultBufferMeters
	}
	if len(opts.Collections) == 0 {
		opts.Collections = Collections()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	exporter := NewExporter(service)
	exporter.Footprints = opts.Footprints
	return &Pipeline{
		builder:  NewQueryBuilder(service),
		exporter: exporter,
		opts:     opts,
	}
}

// Run fetches and exports every collection for req. An invalid request is
// returned before any query. Collection failures are recorded in the report
// and never stop the remaining collections; only a failure to create the
// output directory aborts the run.
func (p *Pipeline) Run(ctx context.Context, req input.Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	region := geo.RegionAround(req.Point, p.opts.BufferMeters)
	outputDir := filepath.Join(p.opts.OutputRoot, naming.OutputDirName(p.opts.Now()))
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log.WithFields(log.Fields{
		"point": req.Point.String(),
		"dates": req.Dates.String(),
		"dir":   outputDir,
	}).Info("Processing satellite collections...")

	report := &Report{OutputDir: outputDir, Point: req.Point}
	total := len(p.opts.Collections)
	for i, c := range p.opts.Collections {
		outcome := p.process(ctx, c, req, region, outputDir)
		report.Outcomes = append(report.Outcomes, outcome)
		if p.opts.Progress != nil {
			p.opts.Progress(outcome, i+1, total)
		}
	}

	log.Infof("All images saved to: %s", outputDir)
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, c Collection, req input.Request, region geo.Region, outputDir string) Outcome {
	outcome := Outcome{Collection: c, Name: c.Name, Caption: c.DisplayName() + " Image"}

	handle, err := p.builder.Build(ctx, c, req.Point, region, req.Dates)
	if err != nil {
		log.WithError(err).WithField("collection", c.Name).Error("Query failed")
		outcome.Status = StatusQueryFailed
		outcome.Err = err
		outcome.Message = err.Error()
		return outcome
	}
	if handle == nil {
		outcome.Status = StatusNoImage
		outcome.Message = fmt.Sprintf("No %s images found matching the criteria!", c.Name)
		return outcome
	}
	scene := handle.Scene
	outcome.Scene = &scene

	result, err := p.exporter.Export(ctx, handle, c.Name, region, req.Point, outputDir)
	outcome.Result = result
	if err != nil {
		var exportErr *ExportError
		if errors.As(err, &exportErr) && exportErr.Stage == StagePNG {
			log.WithError(err).WithField("collection", c.Name).Error("Error converting to PNG")
		} else {
			log.WithError(err).WithField("collection", c.Name).Error("Export failed")
		}
		outcome.Status = StatusExportFailed
		outcome.Err = err
		outcome.Message = err.Error()
		return outcome
	}

	outcome.Status = StatusExported
	return outcome
}

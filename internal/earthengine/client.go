package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	ee "google.golang.org/api/earthengine/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"satview/internal/imagery"
)

// DefaultEndpoint is the public Earth Engine REST root
const DefaultEndpoint = "https://earthengine.googleapis.com/"

var ErrNoProject = errors.New("earth engine project is not configured")

// Config carries everything needed to open an authenticated session
type Config struct {
	// Project is the Google Cloud project registered for Earth Engine
	Project string
	// CredentialsFile is a service account or authorized-user JSON file.
	// Empty means application default credentials.
	CredentialsFile string
	Endpoint        string
	// HTTPClient replaces the authenticated transport entirely
	HTTPClient *http.Client
}

// Client implements imagery.Service on the Earth Engine REST API
type Client struct {
	svc      *ee.Service
	http     *http.Client
	endpoint string
	parent   string
}

var _ imagery.Service = (*Client)(nil)

// NewClient authenticates and returns a ready client. Nothing is contacted
// until the first query.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, ErrNoProject
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	hc := cfg.HTTPClient
	if hc == nil {
		opts := []option.ClientOption{
			option.WithScopes(ee.EarthengineScope, ee.CloudPlatformScope),
		}
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		var err error
		hc, _, err = htransport.NewClient(ctx, opts...)
		if err != nil {
			return nil, &Failure{Kind: KindAuth, Message: buildMessage(KindAuth, err.Error()), Err: err}
		}
	}

	svc, err := ee.NewService(ctx, option.WithHTTPClient(hc), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("failed to create earth engine service: %w", err)
	}

	log.Infof("[EarthEngine] Session ready for project %s (%s)", cfg.Project, endpoint)
	return &Client{
		svc:      svc,
		http:     hc,
		endpoint: endpoint,
		parent:   "projects/" + cfg.Project,
	}, nil
}

// FirstImage counts the matching images and, when there are any, fetches
// the identifying properties of the least cloudy one
func (c *Client) FirstImage(ctx context.Context, q imagery.Query) (*imagery.Scene, error) {
	result, err := c.computeValue(ctx, sizeExpression(q))
	if err != nil {
		return nil, err
	}
	size, ok := result.(float64)
	if !ok {
		return nil, &Failure{Kind: KindService, Message: fmt.Sprintf("unexpected collection size %v", result)}
	}
	log.Debugf("[EarthEngine] %s: %d candidate images", q.Collection.Name, int(size))
	if size == 0 {
		return nil, nil
	}

	result, err = c.computeValue(ctx, sceneExpression(q))
	if err != nil {
		return nil, err
	}
	return parseScene(result)
}

// ExportGeoTIFF renders the clipped image over an EPSG:3857 grid
func (c *Client) ExportGeoTIFF(ctx context.Context, req imagery.ExportRequest) ([]byte, error) {
	if req.Handle == nil {
		return nil, errors.New("export requires an image handle")
	}
	scale := req.Scale
	if scale <= 0 {
		scale = imagery.ExportScale
	}

	grid, err := pixelGrid(req.Region, scale)
	if err != nil {
		return nil, err
	}
	body := &ee.ComputePixelsRequest{
		Expression: exportExpression(req),
		FileFormat: "GEO_TIFF",
		Grid:       grid,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	// computePixels answers with raw file bytes, so it is called directly on
	// the authenticated transport
	url := c.endpoint + "v1/" + c.parent + "/image:computePixels"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, classify(err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	log.Debugf("[EarthEngine] computePixels returned %d bytes in %v", len(data), time.Since(start))
	return data, nil
}

func (c *Client) computeValue(ctx context.Context, expr *ee.Expression) (interface{}, error) {
	resp, err := c.svc.Projects.Value.Compute(c.parent, &ee.ComputeValueRequest{Expression: expr}).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	return resp.Result, nil
}

// parseScene reads the [id, cloud, time_start] list computed by sceneExpression
func parseScene(result interface{}) (*imagery.Scene, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return nil, &Failure{Kind: KindService, Message: fmt.Sprintf("unexpected scene properties %v", result)}
	}
	scene := &imagery.Scene{}
	if id, ok := values[0].(string); ok {
		scene.ID = id
	}
	if cloud, ok := values[1].(float64); ok {
		scene.CloudValue = cloud
	}
	if ms, ok := values[2].(float64); ok {
		scene.Acquired = time.UnixMilli(int64(ms)).UTC()
	}
	return scene, nil
}

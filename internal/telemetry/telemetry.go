// Package telemetry sends anonymous usage events to PostHog.
package telemetry

import (
	"github.com/posthog/posthog-go"
	log "github.com/sirupsen/logrus"
)

// Set at build time with -ldflags "-X satview/internal/telemetry.Key=..."
var (
	Key  string
	Host string
)

// Tracker is a no-op unless both a project key and an install id are set
type Tracker struct {
	client     posthog.Client
	distinctID string
}

// New returns a tracker for the given install id
func New(key, host, distinctID string) *Tracker {
	t := &Tracker{distinctID: distinctID}
	if key == "" || distinctID == "" {
		return t
	}

	client, err := posthog.NewWithConfig(key, posthog.Config{Endpoint: host})
	if err != nil {
		log.Warnf("[Telemetry] Failed to initialize PostHog: %v", err)
		return t
	}
	t.client = client
	return t
}

// Enabled reports whether events are actually sent
func (t *Tracker) Enabled() bool {
	return t != nil && t.client != nil
}

// Track enqueues an event
func (t *Tracker) Track(event string, props map[string]interface{}) {
	if !t.Enabled() {
		return
	}
	if err := t.client.Enqueue(posthog.Capture{
		DistinctId: t.distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		log.Debugf("[Telemetry] Dropped %s: %v", event, err)
	}
}

// Close flushes pending events
func (t *Tracker) Close() error {
	if !t.Enabled() {
		return nil
	}
	return t.client.Close()
}

package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotConfigured signals missing portal credentials. Callers must not
// retry; the check is skipped until configuration is provided.
var ErrNotConfigured = errors.New("fetcher: portal credentials not configured")

// StatusError reports a non-2xx upstream response. The status code is
// propagated to HTTP-facing callers.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d", e.Status)
}

// Device is one reporting unit known to the portal.
type Device struct {
	ID   string `json:"-"`
	Name string `json:"name"`
	Last int64  `json:"last"`
}

// Probe identifies a single sensor channel.
type Probe struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProbeType string `json:"probetype"`
	Last      int64  `json:"last"`
}

// ProbeReading is a single probe with its current value. A nil Value means
// the portal has no reading; evaluation must be skipped for that cycle.
type ProbeReading struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ProbeType string   `json:"probetype"`
	Value     *float64 `json:"value"`
	Last      int64    `json:"last"`
	TimeLast  string   `json:"time_last,omitempty"`
}

// DeviceFetcher retrieves the portal's device roster. The raw payload is
// returned alongside the parsed form for pass-through API handlers.
type DeviceFetcher interface {
	FetchDevices(ctx context.Context) (map[string]Device, json.RawMessage, error)
}

// ProbeFetcher retrieves probe listings and single probe readings.
type ProbeFetcher interface {
	FetchProbes(ctx context.Context) ([]Probe, json.RawMessage, error)
	FetchProbe(ctx context.Context, probeID string) (ProbeReading, json.RawMessage, error)
}

// Gateway bundles all portal read operations.
type Gateway interface {
	DeviceFetcher
	ProbeFetcher
}

package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const apiPath = "/api/tw-api.cgi"

// PortalOptions parameterise the sensor portal gateway.
type PortalOptions struct {
	BaseURL   string
	User      string
	Session   string
	UserAgent string
	Timeout   time.Duration
}

// Portal performs authenticated reads against the Thermweb sensor portal.
// Each call is a single GET; there is no retry or backoff at this layer.
type Portal struct {
	opts    PortalOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewPortal constructs a portal gateway.
func NewPortal(opts PortalOptions, logger zerolog.Logger) *Portal {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://lab.spiderplant.com"
	}

	return &Portal{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "portal_fetcher").Logger(),
	}
}

// FetchDevices returns the device roster keyed by device id.
func (p *Portal) FetchDevices(ctx context.Context) (map[string]Device, json.RawMessage, error) {
	payload, err := p.get(ctx, "devices")
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Devices map[string]Device `json:"devices"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode devices response: %w", err)
	}

	devices := make(map[string]Device, len(parsed.Devices))
	for id, device := range parsed.Devices {
		device.ID = id
		devices[id] = device
	}
	return devices, payload, nil
}

// FetchProbes returns the probe listing.
func (p *Portal) FetchProbes(ctx context.Context) ([]Probe, json.RawMessage, error) {
	payload, err := p.get(ctx, "probes")
	if err != nil {
		return nil, nil, err
	}

	var parsed struct {
		Probes []Probe `json:"probes"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode probes response: %w", err)
	}
	return parsed.Probes, payload, nil
}

// FetchProbe returns a single probe with its current value.
func (p *Portal) FetchProbe(ctx context.Context, probeID string) (ProbeReading, json.RawMessage, error) {
	payload, err := p.get(ctx, "probes/"+probeID)
	if err != nil {
		return ProbeReading{}, nil, err
	}

	var reading ProbeReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return ProbeReading{}, nil, fmt.Errorf("decode probe response: %w", err)
	}
	return reading, payload, nil
}

func (p *Portal) get(ctx context.Context, resource string) (json.RawMessage, error) {
	if p.opts.User == "" || p.opts.Session == "" {
		return nil, ErrNotConfigured
	}

	query := url.Values{}
	query.Set("path", fmt.Sprintf("/v1/users/%s/%s", p.opts.User, resource))
	endpoint := p.baseURL + apiPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create portal request: %w", err)
	}
	req.Header.Set("Cookie", fmt.Sprintf("THERM_PORTAL_USER=%s; THERM_PORTAL_SESSION=%s", p.opts.User, p.opts.Session))
	if ua := strings.TrimSpace(p.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "spider-proxy/1.0")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal request %s: %w", resource, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read portal response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Warn().Int("status", resp.StatusCode).Str("resource", resource).Msg("portal returned error status")
		return nil, &StatusError{Status: resp.StatusCode}
	}

	return payload, nil
}

var _ Gateway = (*Portal)(nil)

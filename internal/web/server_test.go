package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/cache"
	"thermweb-monitor/internal/config"
	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/thresholds"
)

type stubGateway struct {
	devicesRaw json.RawMessage
	devicesErr error
	probesRaw  json.RawMessage
	probesErr  error
	probeRaw   json.RawMessage
	probeErr   error
}

func (g *stubGateway) FetchDevices(ctx context.Context) (map[string]fetcher.Device, json.RawMessage, error) {
	if g.devicesErr != nil {
		return nil, nil, g.devicesErr
	}
	return map[string]fetcher.Device{}, g.devicesRaw, nil
}

func (g *stubGateway) FetchProbes(ctx context.Context) ([]fetcher.Probe, json.RawMessage, error) {
	if g.probesErr != nil {
		return nil, nil, g.probesErr
	}
	return nil, g.probesRaw, nil
}

func (g *stubGateway) FetchProbe(ctx context.Context, probeID string) (fetcher.ProbeReading, json.RawMessage, error) {
	if g.probeErr != nil {
		return fetcher.ProbeReading{}, nil, g.probeErr
	}
	return fetcher.ProbeReading{ID: probeID}, g.probeRaw, nil
}

func newTestServer(t *testing.T, gateway fetcher.Gateway, upstreamURL string) (*Server, *alertstate.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	edgeCache := cache.NewWithClient(client, time.Minute, zerolog.Nop())
	t.Cleanup(func() { edgeCache.Close() })

	states := alertstate.New(edgeCache, zerolog.Nop())
	resolver := thresholds.NewResolver(nil, zerolog.Nop())

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: upstreamURL},
		Server:   config.ServerConfig{ListenAddr: ":0"},
		Monitor: config.MonitorConfig{
			FreezerProbeID:  "fz-01",
			HumidityProbeID: "rh-01",
			DepthProbeID:    "dp-01",
			Devices:         []config.DeviceConfig{{ID: "abc123", Name: "Storage"}},
		},
	}

	server, err := NewServer(cfg, gateway, edgeCache, states, resolver, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server, states
}

func TestDevicesAPIPassthrough(t *testing.T) {
	raw := json.RawMessage(`{"devices":{"abc123":{"name":"Storage","last":1700000000}}}`)
	server, _ := newTestServer(t, &stubGateway{devicesRaw: raw}, "http://upstream.local")

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != string(raw) {
		t.Fatalf("upstream payload must pass through untouched, got %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("CORS header missing, got %q", origin)
	}
}

func TestAPIMissingCredentials(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{probesErr: fetcher.ErrNotConfigured}, "http://upstream.local")

	req := httptest.NewRequest(http.MethodGet, "/api/probes", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body must be JSON: %v", err)
	}
	if body["error"] != "Missing authentication configuration" {
		t.Fatalf("unexpected error body %#v", body)
	}
}

func TestAPIUpstreamStatusPropagates(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{probeErr: &fetcher.StatusError{Status: http.StatusForbidden}}, "http://upstream.local")

	req := httptest.NewRequest(http.MethodGet, "/api/probes/fz-01", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("upstream status must propagate, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "API request failed with status 403") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestPreflightAnsweredDirectly(t *testing.T) {
	server, _ := newTestServer(t, &stubGateway{}, "http://upstream.local")

	req := httptest.NewRequest(http.MethodOptions, "/api/devices", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight should answer 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Max-Age") != "86400" {
		t.Fatal("preflight must set max age")
	}
}

func TestProxyCachesSuccessfulGET(t *testing.T) {
	hits := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>portal page</html>")
	}))
	defer upstream.Close()

	server, _ := newTestServer(t, &stubGateway{}, upstream.URL)
	handler := server.Handler()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/some/page", nil))
	if first.Code != http.StatusOK || first.Body.String() != "<html>portal page</html>" {
		t.Fatalf("first request failed: %d %s", first.Code, first.Body.String())
	}
	if first.Header().Get("X-Cache") == "HIT" {
		t.Fatal("first request cannot be a cache hit")
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/some/page", nil))
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatal("second request should be served from cache")
	}
	if second.Body.String() != "<html>portal page</html>" {
		t.Fatalf("cached body mismatch: %s", second.Body.String())
	}
	if hits != 1 {
		t.Fatalf("upstream should be hit once, got %d", hits)
	}
}

func TestAlertSummaryProbeConditions(t *testing.T) {
	server, states := newTestServer(t, &stubGateway{}, "http://upstream.local")
	ctx := context.Background()
	now := time.Now().UTC()

	raisedAt := now.Add(-33 * time.Minute)
	if err := states.Set(ctx, alertstate.KeyFreezerTemp, alertstate.Record{Active: true, StartTime: &raisedAt}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	temp := -3.0
	humidity := 40.0
	probes := []probeWithValue{
		{Probe: fetcher.Probe{ID: "fz-01", Name: "Freezer", ProbeType: "tf"}, Value: &temp},
		{Probe: fetcher.Probe{ID: "rh-01", Name: "Built in humidity", ProbeType: "rh"}, Value: &humidity},
	}

	items := server.alertSummary(ctx, probes, nil, false, thresholds.Defaults(), now)

	var freezer, humidityItem, device *AlertItem
	for i := range items {
		switch items[i].Probe {
		case "Freezer":
			freezer = &items[i]
		case "Built in humidity":
			humidityItem = &items[i]
		case "Storage Device":
			device = &items[i]
		}
	}

	if freezer == nil || freezer.OK {
		t.Fatalf("freezer at -3 must flag an alert: %#v", items)
	}
	if !strings.Contains(freezer.Message, "🚨 ALERT: 33m") {
		t.Fatalf("active freezer alert must show its duration, got %q", freezer.Message)
	}

	if humidityItem == nil || !humidityItem.OK {
		t.Fatalf("humidity at 40 must be OK: %#v", items)
	}

	if device == nil || !device.OK {
		t.Fatalf("device with no stored alert must show online: %#v", items)
	}
}

func TestAlertSummaryDeviceFallsBackToStoredState(t *testing.T) {
	server, states := newTestServer(t, &stubGateway{}, "http://upstream.local")
	ctx := context.Background()
	now := time.Now().UTC()

	raisedAt := now.Add(-2 * time.Hour)
	key := alertstate.DeviceOfflineKey("abc123")
	if err := states.Set(ctx, key, alertstate.Record{Active: true, StartTime: &raisedAt, DeviceID: "abc123", DeviceName: "Storage"}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	items := server.alertSummary(ctx, nil, nil, false, thresholds.Defaults(), now)

	var device *AlertItem
	for i := range items {
		if items[i].Probe == "Storage Device" {
			device = &items[i]
		}
	}
	if device == nil || device.OK {
		t.Fatalf("stored offline state must surface when the roster is unavailable: %#v", items)
	}
	if !strings.Contains(device.Message, "🚨 OFFLINE: 2h 0m") {
		t.Fatalf("offline duration missing from %q", device.Message)
	}
}

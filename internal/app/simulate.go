package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/monitor"
	"thermweb-monitor/internal/thresholds"
)

// Simulate feeds one synthetic reading through a full health check cycle.
// Alert state lives in a throwaway in-memory store so the run never touches
// the live records, but configured notification channels do fire for real.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	probeID, err := a.simulatedProbeID(opts.Check)
	if err != nil {
		return err
	}

	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("pushover not enabled; transitions will only be logged")
	}

	now := time.Now().UTC()
	roster := make(map[string]fetcher.Device, len(a.Config.Monitor.Devices))
	for _, device := range a.Config.Monitor.Devices {
		roster[device.ID] = fetcher.Device{ID: device.ID, Name: device.Name, Last: now.Unix()}
	}

	gateway := &staticGateway{
		roster:  roster,
		probeID: probeID,
		value:   opts.Value,
		now:     now,
	}

	states := alertstate.New(alertstate.NewMemoryKV(), a.Logger)
	resolver := thresholds.NewResolver(nil, a.Logger)

	checker := monitor.New(a.Config.Monitor, gateway, states, resolver, notifier, nil, a.Logger)

	a.Logger.Info().Str("check", opts.Check).Float64("value", opts.Value).Msg("running simulated health check")
	return checker.Run(ctx)
}

func (a *App) simulatedProbeID(check string) (string, error) {
	switch check {
	case "freezer":
		return a.Config.Monitor.FreezerProbeID, nil
	case "humidity":
		return a.Config.Monitor.HumidityProbeID, nil
	case "depth":
		return a.Config.Monitor.DepthProbeID, nil
	default:
		return "", fmt.Errorf("unknown check %q (expected freezer, humidity, or depth)", check)
	}
}

// staticGateway serves one fabricated reading. Every other probe reports no
// value, which the checker skips without touching state.
type staticGateway struct {
	roster  map[string]fetcher.Device
	probeID string
	value   float64
	now     time.Time
}

func (g *staticGateway) FetchDevices(ctx context.Context) (map[string]fetcher.Device, json.RawMessage, error) {
	return g.roster, json.RawMessage("{}"), nil
}

func (g *staticGateway) FetchProbes(ctx context.Context) ([]fetcher.Probe, json.RawMessage, error) {
	return nil, json.RawMessage("{}"), nil
}

func (g *staticGateway) FetchProbe(ctx context.Context, probeID string) (fetcher.ProbeReading, json.RawMessage, error) {
	reading := fetcher.ProbeReading{
		ID:   probeID,
		Name: "simulated",
		Last: g.now.Unix(),
	}
	if probeID == g.probeID {
		value := g.value
		reading.Value = &value
	}
	return reading, json.RawMessage("{}"), nil
}

var _ fetcher.Gateway = (*staticGateway)(nil)

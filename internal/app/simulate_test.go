package app

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"thermweb-monitor/internal/config"
)

func testApp() *App {
	cfg := &config.Config{
		Monitor: config.MonitorConfig{
			FreezerProbeID: "fz-01",
			Devices:        []config.DeviceConfig{{ID: "abc123", Name: "Storage"}},
		},
	}
	return NewApp(cfg, zerolog.Nop())
}

func TestSimulateUnknownCheck(t *testing.T) {
	a := testApp()
	if err := a.Simulate(context.Background(), SimulateOptions{Check: "pressure", Value: 1}); err == nil {
		t.Fatal("unknown check name must be rejected")
	}
}

func TestSimulateRunsOffline(t *testing.T) {
	a := testApp()
	if err := a.Simulate(context.Background(), SimulateOptions{Check: "freezer", Value: -3}); err != nil {
		t.Fatalf("simulated run failed: %v", err)
	}
}

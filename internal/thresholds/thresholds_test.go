package thresholds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mapStore map[string]string

func (m mapStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := m[key]
	return value, ok, nil
}

type downStore struct{}

func (downStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func TestResolveNilStoreYieldsDefaults(t *testing.T) {
	resolver := NewResolver(nil, zerolog.Nop())
	set := resolver.Resolve(context.Background())
	if set != Defaults() {
		t.Fatalf("expected defaults, got %#v", set)
	}
}

func TestResolveStoreFailureYieldsDefaults(t *testing.T) {
	resolver := NewResolver(downStore{}, zerolog.Nop())
	set := resolver.Resolve(context.Background())
	if set != Defaults() {
		t.Fatalf("unreachable store must fall back to defaults, got %#v", set)
	}
}

func TestResolveOverrides(t *testing.T) {
	store := mapStore{
		"thresholds:FREEZER_MAX_TEMP": "-10",
		"thresholds:DEVICE_TIMEOUT":   "1800",
	}
	resolver := NewResolver(store, zerolog.Nop())
	set := resolver.Resolve(context.Background())

	if set.FreezerMaxTempC != -10 {
		t.Fatalf("freezer override not applied: %g", set.FreezerMaxTempC)
	}
	if set.DeviceTimeout != 30*time.Minute {
		t.Fatalf("device timeout override not applied: %s", set.DeviceTimeout)
	}
	if set.HumidityMaxPercent != DefaultHumidityMaxPercent {
		t.Fatalf("absent override must keep default: %g", set.HumidityMaxPercent)
	}
}

func TestResolveMalformedOverrideFallsBackPerField(t *testing.T) {
	store := mapStore{
		"thresholds:FREEZER_MAX_TEMP":   "warm-ish",
		"thresholds:HUMIDITY_MAX_LEVEL": "60",
		"thresholds:DEVICE_TIMEOUT":     "-5",
	}
	resolver := NewResolver(store, zerolog.Nop())
	set := resolver.Resolve(context.Background())

	if set.FreezerMaxTempC != DefaultFreezerMaxTempC {
		t.Fatalf("malformed float must keep default: %g", set.FreezerMaxTempC)
	}
	if set.HumidityMaxPercent != 60 {
		t.Fatalf("valid override beside a malformed one must apply: %g", set.HumidityMaxPercent)
	}
	if set.DeviceTimeout != DefaultDeviceTimeout {
		t.Fatalf("non-positive timeout must keep default: %s", set.DeviceTimeout)
	}
}

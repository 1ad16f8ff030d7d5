package thresholds

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Compiled-in defaults. Overrides live in the threshold store under the
// well-known keys below; a missing or malformed override falls back to the
// default for that field only.
const (
	DefaultFreezerMaxTempC    = -5.0
	DefaultHumidityMaxPercent = 55.0
	DefaultDepthMaxLevel      = 0.7
	DefaultDepthMinLevel      = 0.171
	DefaultDeviceTimeout      = 15 * time.Minute
)

// Well-known override keys.
const (
	KeyFreezerMaxTemp   = "FREEZER_MAX_TEMP"
	KeyHumidityMaxLevel = "HUMIDITY_MAX_LEVEL"
	KeyDepthMaxLevel    = "DEPTH_MAX_LEVEL"
	KeyDepthMinLevel    = "DEPTH_MIN_LEVEL"
	KeyDeviceTimeout    = "DEVICE_TIMEOUT"
)

// keyPrefix namespaces threshold overrides inside the shared cache.
const keyPrefix = "thresholds:"

// Set is one complete threshold configuration. It is read fresh on every
// health check run, never cached in memory.
type Set struct {
	FreezerMaxTempC    float64
	HumidityMaxPercent float64
	DepthMaxLevel      float64
	DepthMinLevel      float64
	DeviceTimeout      time.Duration
}

// Defaults returns the compiled-in threshold set.
func Defaults() Set {
	return Set{
		FreezerMaxTempC:    DefaultFreezerMaxTempC,
		HumidityMaxPercent: DefaultHumidityMaxPercent,
		DepthMaxLevel:      DefaultDepthMaxLevel,
		DepthMinLevel:      DefaultDepthMinLevel,
		DeviceTimeout:      DefaultDeviceTimeout,
	}
}

// Store is the key-value source of threshold overrides. *cache.Cache
// satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Resolver loads threshold configuration with per-field fallback.
type Resolver struct {
	store  Store
	logger zerolog.Logger
}

// NewResolver constructs a Resolver. A nil store yields pure defaults.
func NewResolver(store Store, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger.With().Str("component", "thresholds").Logger()}
}

// Resolve returns a complete threshold set. It never fails; any lookup or
// parse problem leaves the compiled-in default for that field in place.
func (r *Resolver) Resolve(ctx context.Context) Set {
	set := Defaults()
	if r.store == nil {
		return set
	}

	if v, ok := r.lookupFloat(ctx, KeyFreezerMaxTemp); ok {
		set.FreezerMaxTempC = v
	}
	if v, ok := r.lookupFloat(ctx, KeyHumidityMaxLevel); ok {
		set.HumidityMaxPercent = v
	}
	if v, ok := r.lookupFloat(ctx, KeyDepthMaxLevel); ok {
		set.DepthMaxLevel = v
	}
	if v, ok := r.lookupFloat(ctx, KeyDepthMinLevel); ok {
		set.DepthMinLevel = v
	}
	if v, ok := r.lookupSeconds(ctx, KeyDeviceTimeout); ok {
		set.DeviceTimeout = v
	}

	return set
}

func (r *Resolver) lookupFloat(ctx context.Context, key string) (float64, bool) {
	raw, ok := r.lookup(ctx, key)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		r.logger.Warn().Str("key", key).Str("value", raw).Msg("malformed threshold override, using default")
		return 0, false
	}
	return value, true
}

func (r *Resolver) lookupSeconds(ctx context.Context, key string) (time.Duration, bool) {
	raw, ok := r.lookup(ctx, key)
	if !ok {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || seconds <= 0 {
		r.logger.Warn().Str("key", key).Str("value", raw).Msg("malformed threshold override, using default")
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, bool) {
	raw, found, err := r.store.Get(ctx, keyPrefix+key)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("threshold store unavailable, using default")
		return "", false
	}
	if !found {
		return "", false
	}
	return raw, true
}

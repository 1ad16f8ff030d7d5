package alertstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Alert keys for the fixed monitored conditions. Device offline alerts get
// one key per device id via DeviceOfflineKey.
const (
	KeyFreezerTemp   = "freezer-temp-alert"
	KeyHumidityLevel = "humidity-level-alert"
	KeyDepthEmpty    = "depth-empty-alert"
	KeyDepthFull     = "depth-full-alert"
)

// keyBase is the URL-shaped namespace inherited from the cache layout the
// stored records were first written under. Changing it would orphan every
// existing record.
const keyBase = "https://alerts.cache/"

// DeviceOfflineKey derives the alert key for one device.
func DeviceOfflineKey(deviceID string) string {
	return "device-offline-" + deviceID
}

// CacheKey maps an alert key to its storage key.
func CacheKey(alertKey string) string {
	return keyBase + alertKey
}

// Record is the persisted state of one monitored condition. Records are
// created implicitly inactive and overwritten, never deleted, so the
// last-checked diagnostics survive a cleared alert.
type Record struct {
	Active     bool
	StartTime  *time.Time
	LastClear  *time.Time
	LastCheck  *time.Time
	Value      *float64
	DeviceID   string
	DeviceName string
}

// KV is the backing store. *cache.Cache satisfies it.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Store persists per-alert state records in the edge cache.
type Store struct {
	kv     KV
	logger zerolog.Logger
}

// New constructs a Store.
func New(kv KV, logger zerolog.Logger) *Store {
	return &Store{kv: kv, logger: logger.With().Str("component", "alertstate").Logger()}
}

// Get loads the record for an alert key. A missing key, a store failure, or
// an undecodable value all yield an inactive record; this layer fails safe
// toward "no alert" rather than surfacing errors.
func (s *Store) Get(ctx context.Context, alertKey string) Record {
	raw, found, err := s.kv.Get(ctx, CacheKey(alertKey))
	if err != nil {
		s.logger.Warn().Err(err).Str("alert", alertKey).Msg("alert state read failed, assuming inactive")
		return Record{}
	}
	if !found {
		return Record{}
	}
	return ParseRecord(raw)
}

// Set persists a record under an alert key. The write is a single put.
func (s *Store) Set(ctx context.Context, alertKey string, rec Record) error {
	encoded, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode alert record %s: %w", alertKey, err)
	}
	if err := s.kv.Put(ctx, CacheKey(alertKey), encoded); err != nil {
		return fmt.Errorf("persist alert record %s: %w", alertKey, err)
	}
	return nil
}

// Clear overwrites the record with an inactive snapshot. The key is kept so
// the last clear and last check timestamps remain inspectable.
func (s *Store) Clear(ctx context.Context, alertKey string, now time.Time) error {
	rec := s.Get(ctx, alertKey)
	rec.Active = false
	rec.StartTime = nil
	rec.LastClear = &now
	rec.LastCheck = &now
	return s.Set(ctx, alertKey, rec)
}

// ParseRecord decodes a stored value. Two encodings are tolerated: the
// legacy bare literal "true" (active, no start time) and the JSON record
// shape. Anything else decodes to an inactive record.
func ParseRecord(raw string) Record {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "true" {
		return Record{Active: true}
	}

	var dto recordDTO
	if err := json.Unmarshal([]byte(trimmed), &dto); err != nil {
		return Record{}
	}
	return dto.record()
}

// EncodeRecord serialises a record to its stored JSON form.
func EncodeRecord(rec Record) (string, error) {
	encoded, err := json.Marshal(newRecordDTO(rec))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// recordDTO is the wire shape. Timestamps accept both RFC3339 strings and
// the epoch-millisecond numbers found in records written by earlier
// versions of the monitor.
type recordDTO struct {
	Active     bool      `json:"active"`
	StartTime  *flexTime `json:"startTime,omitempty"`
	LastClear  *flexTime `json:"lastClear,omitempty"`
	LastCheck  *flexTime `json:"lastCheck,omitempty"`
	Value      *float64  `json:"value,omitempty"`
	DeviceID   string    `json:"deviceId,omitempty"`
	DeviceName string    `json:"deviceName,omitempty"`
}

func newRecordDTO(rec Record) recordDTO {
	return recordDTO{
		Active:     rec.Active,
		StartTime:  newFlexTime(rec.StartTime),
		LastClear:  newFlexTime(rec.LastClear),
		LastCheck:  newFlexTime(rec.LastCheck),
		Value:      rec.Value,
		DeviceID:   rec.DeviceID,
		DeviceName: rec.DeviceName,
	}
}

func (d recordDTO) record() Record {
	return Record{
		Active:     d.Active,
		StartTime:  d.StartTime.timePtr(),
		LastClear:  d.LastClear.timePtr(),
		LastCheck:  d.LastCheck.timePtr(),
		Value:      d.Value,
		DeviceID:   d.DeviceID,
		DeviceName: d.DeviceName,
	}
}

type flexTime time.Time

func newFlexTime(t *time.Time) *flexTime {
	if t == nil {
		return nil
	}
	ft := flexTime(*t)
	return &ft
}

func (t *flexTime) timePtr() *time.Time {
	if t == nil {
		return nil
	}
	value := time.Time(*t)
	if value.IsZero() {
		return nil
	}
	return &value
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return err
		}
		*t = flexTime(parsed)
		return nil
	}

	millis, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return err
	}
	*t = flexTime(time.UnixMilli(int64(millis)).UTC())
	return nil
}

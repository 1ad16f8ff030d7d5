package alertstate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseRecordLegacyLiteral(t *testing.T) {
	rec := ParseRecord("true")
	if !rec.Active {
		t.Fatal("legacy literal must decode as active")
	}
	if rec.StartTime != nil {
		t.Fatal("legacy literal carries no start time")
	}
}

func TestParseRecordEpochMillis(t *testing.T) {
	rec := ParseRecord(`{"active":true,"startTime":1700000000000,"value":-3.2,"deviceId":"abc123","deviceName":"Storage"}`)
	if !rec.Active {
		t.Fatal("record should be active")
	}
	if rec.StartTime == nil || !rec.StartTime.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("epoch-millisecond start time mishandled: %v", rec.StartTime)
	}
	if rec.Value == nil || *rec.Value != -3.2 {
		t.Fatalf("value mishandled: %v", rec.Value)
	}
	if rec.DeviceID != "abc123" || rec.DeviceName != "Storage" {
		t.Fatalf("device fields mishandled: %#v", rec)
	}
}

func TestParseRecordRFC3339(t *testing.T) {
	rec := ParseRecord(`{"active":false,"lastClear":"2026-01-02T03:04:05Z"}`)
	if rec.Active {
		t.Fatal("record should be inactive")
	}
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if rec.LastClear == nil || !rec.LastClear.Equal(want) {
		t.Fatalf("RFC3339 last clear mishandled: %v", rec.LastClear)
	}
}

func TestParseRecordGarbage(t *testing.T) {
	for _, raw := range []string{"", "%%%", "{not json", "false-ish"} {
		if rec := ParseRecord(raw); rec.Active {
			t.Fatalf("garbage %q must decode inactive", raw)
		}
	}
}

func TestEncodeRecordRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	v := 61.5
	encoded, err := EncodeRecord(Record{Active: true, StartTime: &start, Value: &v, DeviceID: "abc123"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(encoded, "2026-03-04T05:06:07Z") {
		t.Fatalf("timestamps must encode as RFC3339, got %s", encoded)
	}

	rec := ParseRecord(encoded)
	if !rec.Active || rec.StartTime == nil || !rec.StartTime.Equal(start) {
		t.Fatalf("round trip lost the start time: %#v", rec)
	}
	if rec.Value == nil || *rec.Value != v || rec.DeviceID != "abc123" {
		t.Fatalf("round trip lost fields: %#v", rec)
	}
}

type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func (failingKV) Put(ctx context.Context, key, value string) error {
	return errors.New("redis down")
}

func TestGetFailsSafeInactive(t *testing.T) {
	store := New(failingKV{}, zerolog.Nop())
	rec := store.Get(context.Background(), KeyFreezerTemp)
	if rec.Active {
		t.Fatal("store failure must read as inactive")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	store := New(NewMemoryKV(), zerolog.Nop())
	now := time.Now().UTC().Truncate(time.Second)

	if err := store.Set(context.Background(), KeyHumidityLevel, Record{Active: true, StartTime: &now}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	rec := store.Get(context.Background(), KeyHumidityLevel)
	if !rec.Active || rec.StartTime == nil || !rec.StartTime.Equal(now) {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestClearKeepsKey(t *testing.T) {
	kv := NewMemoryKV()
	store := New(kv, zerolog.Nop())
	ctx := context.Background()

	raisedAt := time.Now().UTC().Add(-time.Hour)
	if err := store.Set(ctx, KeyDepthEmpty, Record{Active: true, StartTime: &raisedAt}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.Clear(ctx, KeyDepthEmpty, now); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	raw, found, err := kv.Get(ctx, CacheKey(KeyDepthEmpty))
	if err != nil || !found {
		t.Fatalf("cleared key must survive: found=%v err=%v", found, err)
	}

	rec := ParseRecord(raw)
	if rec.Active || rec.StartTime != nil {
		t.Fatalf("cleared record must be inactive with no start time: %#v", rec)
	}
	if rec.LastClear == nil || !rec.LastClear.Equal(now) {
		t.Fatalf("cleared record must carry the clear time: %#v", rec)
	}
}

func TestCacheKeyLayout(t *testing.T) {
	if got := CacheKey(KeyFreezerTemp); got != "https://alerts.cache/freezer-temp-alert" {
		t.Fatalf("cache key layout changed: %s", got)
	}
	if got := DeviceOfflineKey("abc123"); got != "device-offline-abc123" {
		t.Fatalf("device key layout changed: %s", got)
	}
}

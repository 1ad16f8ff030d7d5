package web

import (
	"context"
	"fmt"
	"time"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/format"
	"thermweb-monitor/internal/monitor"
	"thermweb-monitor/internal/thresholds"
)

// AlertItem is one row of the dashboard alert summary.
type AlertItem struct {
	OK      bool
	Icon    string
	Message string
	Probe   string
}

type probeWithValue struct {
	fetcher.Probe
	Value *float64
}

// alertSummary renders the point-in-time status view. It is a pure reader:
// probe conditions are judged from the live value against the current
// threshold, and the persisted record only supplies the start time for
// duration text. Device status prefers the live roster and falls back to
// the stored record when the roster could not be fetched this request.
func (s *Server) alertSummary(ctx context.Context, probes []probeWithValue, roster map[string]fetcher.Device, rosterOK bool, set thresholds.Set, now time.Time) []AlertItem {
	items := make([]AlertItem, 0, 4+len(s.cfg.Monitor.Devices))

	if probe, ok := findProbe(probes, s.cfg.Monitor.FreezerProbeID); ok {
		tempC := *probe.Value
		over := monitor.Above.Exceeds(tempC, set.FreezerMaxTempC)
		item := AlertItem{
			OK:    !over,
			Icon:  "🧊",
			Probe: probeLabel(probe, "Freezer Temp"),
		}
		if over {
			item.Message = fmt.Sprintf("Freezer temperature: %g°C (%.1f°F) - above %g°C limit",
				tempC, format.CelsiusToFahrenheit(tempC), set.FreezerMaxTempC)
			item.Message += s.activeSuffix(ctx, alertstate.KeyFreezerTemp, " 🚨 ALERT", now)
		} else {
			item.Message = fmt.Sprintf("Freezer temperature: %g°C (%.1f°F, limit: %g°C/%.1f°F)",
				tempC, format.CelsiusToFahrenheit(tempC), set.FreezerMaxTempC, format.CelsiusToFahrenheit(set.FreezerMaxTempC))
		}
		items = append(items, item)
	}

	if probe, ok := findProbe(probes, s.cfg.Monitor.HumidityProbeID); ok {
		level := *probe.Value
		over := monitor.Above.Exceeds(level, set.HumidityMaxPercent)
		item := AlertItem{
			OK:    !over,
			Icon:  "💧",
			Probe: probeLabel(probe, "Built in humidity"),
		}
		if over {
			item.Message = fmt.Sprintf("Humidity level: %g%% (above %g%% limit)", level, set.HumidityMaxPercent)
			item.Message += s.activeSuffix(ctx, alertstate.KeyHumidityLevel, " 🚨 ALERT", now)
		} else {
			item.Message = fmt.Sprintf("Humidity level: %g%% (limit: %g%%)", level, set.HumidityMaxPercent)
		}
		items = append(items, item)
	}

	if probe, ok := findProbe(probes, s.cfg.Monitor.DepthProbeID); ok {
		depth := *probe.Value
		label := probeLabel(probe, "Tank Depth")

		empty := monitor.Above.Exceeds(depth, set.DepthMaxLevel)
		item := AlertItem{OK: !empty, Icon: "🛢️", Probe: label}
		if empty {
			item.Message = fmt.Sprintf("Tank depth: %g - above %g empty limit", depth, set.DepthMaxLevel)
			item.Message += s.activeSuffix(ctx, alertstate.KeyDepthEmpty, " 🚨 ALERT", now)
		} else {
			item.Message = fmt.Sprintf("Tank depth: %g (empty limit: %g)", depth, set.DepthMaxLevel)
		}
		items = append(items, item)

		full := monitor.Below.Exceeds(depth, set.DepthMinLevel)
		item = AlertItem{OK: !full, Icon: "🛢️", Probe: label}
		if full {
			item.Message = fmt.Sprintf("Tank depth: %g - below %g full limit", depth, set.DepthMinLevel)
			item.Message += s.activeSuffix(ctx, alertstate.KeyDepthFull, " 🚨 ALERT", now)
		} else {
			item.Message = fmt.Sprintf("Tank depth: %g (full limit: %g)", depth, set.DepthMinLevel)
		}
		items = append(items, item)
	}

	for _, device := range s.cfg.Monitor.Devices {
		rec := s.states.Get(ctx, alertstate.DeviceOfflineKey(device.ID))

		name := device.Name
		offline := rec.Active
		if live, ok := roster[device.ID]; rosterOK && ok {
			offline = monitor.Above.Exceeds(now.Sub(time.Unix(live.Last, 0)).Seconds(), set.DeviceTimeout.Seconds())
			if live.Name != "" {
				name = live.Name
			}
		}

		item := AlertItem{
			OK:    !offline,
			Icon:  "📡",
			Probe: name + " Device",
		}
		if offline {
			item.Message = name + " device: Offline"
			if rec.Active && rec.StartTime != nil {
				item.Message += " 🚨 OFFLINE: " + format.Duration(now.Sub(*rec.StartTime))
			} else {
				item.Message += " 🚨 OFFLINE"
			}
		} else {
			item.Message = name + " device: Online"
		}
		items = append(items, item)
	}

	return items
}

// activeSuffix appends the alert duration when the persisted record carries
// a start time, or a bare marker when it predates duration tracking.
func (s *Server) activeSuffix(ctx context.Context, alertKey, marker string, now time.Time) string {
	rec := s.states.Get(ctx, alertKey)
	if !rec.Active {
		return ""
	}
	if rec.StartTime == nil {
		return marker + " SENT"
	}
	return marker + ": " + format.Duration(now.Sub(*rec.StartTime))
}

func findProbe(probes []probeWithValue, probeID string) (probeWithValue, bool) {
	if probeID == "" {
		return probeWithValue{}, false
	}
	for _, probe := range probes {
		if probe.ID == probeID && probe.Value != nil {
			return probe, true
		}
	}
	return probeWithValue{}, false
}

func probeLabel(probe probeWithValue, fallback string) string {
	if probe.Name != "" {
		return probe.Name
	}
	return fallback
}

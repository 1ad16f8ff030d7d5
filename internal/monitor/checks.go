package monitor

import (
	"fmt"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/config"
	"thermweb-monitor/internal/format"
	"thermweb-monitor/internal/thresholds"
)

// notification is one outbound message.
type notification struct {
	Message string
	Title   string
}

// probeCondition is one monitored condition derived from a probe reading.
// The condition table replaces the per-kind check routines: every threshold
// alert is the same fetch-evaluate-classify loop over different parameters.
type probeCondition struct {
	alertKey   string
	label      string
	comparator Comparator
	limit      func(thresholds.Set) float64
	raised     func(value, limit float64, lastReading string) notification
	cleared    func(value, limit float64, lastReading string) notification
}

// probeCheck is one probe fetch with the conditions it feeds. Tank depth
// feeds two conditions from a single reading.
type probeCheck struct {
	name       string
	probeID    string
	conditions []probeCondition
}

func buildProbeChecks(cfg config.MonitorConfig) []probeCheck {
	checks := make([]probeCheck, 0, 3)

	if cfg.FreezerProbeID != "" {
		checks = append(checks, probeCheck{
			name:    "freezer",
			probeID: cfg.FreezerProbeID,
			conditions: []probeCondition{{
				alertKey:   alertstate.KeyFreezerTemp,
				label:      "freezer temperature",
				comparator: Above,
				limit:      func(s thresholds.Set) float64 { return s.FreezerMaxTempC },
				raised: func(value, limit float64, lastReading string) notification {
					return notification{
						Message: fmt.Sprintf("🚨 FREEZER ALERT: Temperature is %g°C (above safe limit of %g°C)\n\nLast reading: %s", value, limit, lastReading),
						Title:   "🧊 Freezer Temperature Alert",
					}
				},
				cleared: func(value, limit float64, lastReading string) notification {
					return notification{
						Message: fmt.Sprintf("✅ FREEZER RECOVERED: Temperature is now %g°C (back within safe range of %g°C)\n\nLast reading: %s", value, limit, lastReading),
						Title:   "🧊 Freezer Temperature Normal",
					}
				},
			}},
		})
	}

	if cfg.HumidityProbeID != "" {
		checks = append(checks, probeCheck{
			name:    "humidity",
			probeID: cfg.HumidityProbeID,
			conditions: []probeCondition{{
				alertKey:   alertstate.KeyHumidityLevel,
				label:      "humidity level",
				comparator: Above,
				limit:      func(s thresholds.Set) float64 { return s.HumidityMaxPercent },
				raised: func(value, limit float64, lastReading string) notification {
					return notification{
						Message: fmt.Sprintf("💧 HUMIDITY ALERT: Level is %g%% (above safe limit of %g%%)\n\nLast reading: %s", value, limit, lastReading),
						Title:   "💧 Humidity Level Alert",
					}
				},
				cleared: func(value, limit float64, lastReading string) notification {
					return notification{
						Message: fmt.Sprintf("✅ HUMIDITY RECOVERED: Level is now %g%% (back within safe range of %g%%)\n\nLast reading: %s", value, limit, lastReading),
						Title:   "💧 Humidity Level Normal",
					}
				},
			}},
		})
	}

	if cfg.DepthProbeID != "" {
		checks = append(checks, probeCheck{
			name:    "depth",
			probeID: cfg.DepthProbeID,
			// Depth grows as the tank empties: too empty above the max
			// level, too full below the min. Both conditions carry their
			// own alert record even though they exclude each other.
			conditions: []probeCondition{
				{
					alertKey:   alertstate.KeyDepthEmpty,
					label:      "tank depth (empty)",
					comparator: Above,
					limit:      func(s thresholds.Set) float64 { return s.DepthMaxLevel },
					raised: func(value, limit float64, lastReading string) notification {
						return notification{
							Message: fmt.Sprintf("🛢️ TANK LOW ALERT: Depth is %g (above empty limit of %g)\n\nLast reading: %s", value, limit, lastReading),
							Title:   "🛢️ Tank Level Alert",
						}
					},
					cleared: func(value, limit float64, lastReading string) notification {
						return notification{
							Message: fmt.Sprintf("✅ TANK LEVEL RECOVERED: Depth is now %g (back within empty limit of %g)\n\nLast reading: %s", value, limit, lastReading),
							Title:   "🛢️ Tank Level Normal",
						}
					},
				},
				{
					alertKey:   alertstate.KeyDepthFull,
					label:      "tank depth (full)",
					comparator: Below,
					limit:      func(s thresholds.Set) float64 { return s.DepthMinLevel },
					raised: func(value, limit float64, lastReading string) notification {
						return notification{
							Message: fmt.Sprintf("🛢️ TANK OVERFULL ALERT: Depth is %g (below full limit of %g)\n\nLast reading: %s", value, limit, lastReading),
							Title:   "🛢️ Tank Level Alert",
						}
					},
					cleared: func(value, limit float64, lastReading string) notification {
						return notification{
							Message: fmt.Sprintf("✅ TANK LEVEL RECOVERED: Depth is now %g (back above full limit of %g)\n\nLast reading: %s", value, limit, lastReading),
							Title:   "🛢️ Tank Level Normal",
						}
					},
				},
			},
		})
	}

	return checks
}

func deviceOfflineNotification(name, offlineFor, lastSeen string) notification {
	return notification{
		Message: fmt.Sprintf("🔴 DEVICE OFFLINE: %s (offline %s, last seen: %s)", name, offlineFor, lastSeen),
		Title:   "📡 Device Offline Alert",
	}
}

func deviceRecoveredNotification(name, lastSeen string) notification {
	return notification{
		Message: fmt.Sprintf("✅ DEVICE RECOVERED: %s is back online\n\nLast reading: %s", name, lastSeen),
		Title:   "📡 Device Recovery",
	}
}

func lastReadingText(timeLast string, last int64) string {
	if timeLast != "" {
		return timeLast
	}
	return format.Timestamp(last)
}

// Package format holds the display formatting shared by notifications,
// dashboard pages, and CLI output.
package format

import (
	"fmt"
	"strconv"
	"time"
)

var displayLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/Puerto_Rico")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Duration renders an elapsed span as "{m}m", or "{h}h {m}m" from one hour
// up. Minutes are floored. Every duration display (alert duration, offline
// duration) goes through here.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// ProbeTypeLabel maps portal probe type codes to display names.
func ProbeTypeLabel(probeType string) string {
	switch probeType {
	case "tf":
		return "Temperature"
	case "rh":
		return "Humidity"
	case "":
		return "Other"
	default:
		return probeType
	}
}

// ProbeValue renders a probe reading for display. Temperature values arrive
// in Celsius and are shown with a Fahrenheit conversion.
func ProbeValue(value *float64, probeType string) string {
	if value == nil {
		return "—"
	}
	switch probeType {
	case "tf":
		return fmt.Sprintf("%s°C (%.1f°F)", trimFloat(*value), CelsiusToFahrenheit(*value))
	case "rh":
		return trimFloat(*value) + "%"
	default:
		return trimFloat(*value)
	}
}

// CelsiusToFahrenheit converts for display only; comparisons stay in Celsius.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// Timestamp renders a portal epoch-seconds timestamp in the site's local
// time zone.
func Timestamp(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).In(displayLocation).Format("01/02/2006, 03:04:05 PM")
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

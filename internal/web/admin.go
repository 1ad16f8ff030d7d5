package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/format"
)

type alertRecordRow struct {
	Key       string
	Active    bool
	Since     string
	Duration  string
	LastCheck string
	LastClear string
	Value     string
}

type adminPageData struct {
	Title      string
	Triggered  bool
	CheckError string
	Thresholds []thresholdRow
	Records    []alertRecordRow
}

type thresholdRow struct {
	Name  string
	Value string
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()
	set := s.resolver.Resolve(ctx)

	data := adminPageData{
		Title:      "Monitor Admin",
		Triggered:  r.URL.Query().Get("triggered") == "1",
		CheckError: r.URL.Query().Get("error"),
		Thresholds: []thresholdRow{
			{Name: "Freezer max temperature (°C)", Value: trim(set.FreezerMaxTempC)},
			{Name: "Humidity max level (%)", Value: trim(set.HumidityMaxPercent)},
			{Name: "Depth max level (empty)", Value: trim(set.DepthMaxLevel)},
			{Name: "Depth min level (full)", Value: trim(set.DepthMinLevel)},
			{Name: "Device offline timeout", Value: set.DeviceTimeout.String()},
		},
	}

	keys := []string{
		alertstate.KeyFreezerTemp,
		alertstate.KeyHumidityLevel,
		alertstate.KeyDepthEmpty,
		alertstate.KeyDepthFull,
	}
	for _, device := range s.cfg.Monitor.Devices {
		keys = append(keys, alertstate.DeviceOfflineKey(device.ID))
	}

	for _, key := range keys {
		rec := s.states.Get(ctx, key)
		row := alertRecordRow{Key: key, Active: rec.Active}
		if rec.StartTime != nil {
			row.Since = rec.StartTime.UTC().Format(time.RFC3339)
			row.Duration = format.Duration(now.Sub(*rec.StartTime))
		}
		if rec.LastCheck != nil {
			row.LastCheck = rec.LastCheck.UTC().Format(time.RFC3339)
		}
		if rec.LastClear != nil {
			row.LastClear = rec.LastClear.UTC().Format(time.RFC3339)
		}
		if rec.Value != nil {
			row.Value = trim(*rec.Value)
		}
		data.Records = append(data.Records, row)
	}

	s.renderHTML(w, s.adminTmpl, data)
}

// handleManualCheck runs one health check cycle on demand. The run uses a
// detached context so a closed browser tab cannot abort a half-finished
// cycle.
func (s *Server) handleManualCheck(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		http.Error(w, "health check not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.checker.Run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("manual health check failed")
		http.Redirect(w, r, "/admin?error="+err.Error(), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin?triggered=1", http.StatusSeeOther)
}

type debugPageData struct {
	Title         string
	PortalUser    string
	PortalSession string
	PushoverToken string
	PushoverUser  string
	RedisAddr     string
	UpstreamBase  string
}

func (s *Server) handleDebugPage(w http.ResponseWriter, r *http.Request) {
	s.renderHTML(w, s.debugTmpl, debugPageData{
		Title:         "Debug",
		PortalUser:    mask(s.cfg.Upstream.User),
		PortalSession: mask(s.cfg.Upstream.Session),
		PushoverToken: mask(s.cfg.Pushover.Token),
		PushoverUser:  mask(s.cfg.Pushover.User),
		RedisAddr:     s.cfg.Redis.Addr,
		UpstreamBase:  s.cfg.Upstream.BaseURL,
	})
}

func trim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// mask shows just enough of a credential to confirm which one is loaded.
func mask(value string) string {
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:4] + "****"
}

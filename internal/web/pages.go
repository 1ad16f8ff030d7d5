package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/format"
)

type probeRow struct {
	ID        string
	Name      string
	TypeLabel string
	Value     string
	LastSeen  string
}

type probesPageData struct {
	Title       string
	AllOK       bool
	Alerts      []AlertItem
	Probes      []probeRow
	GeneratedAt string
}

func (s *Server) handleProbesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	probes, _, err := s.gateway.FetchProbes(ctx)
	if err != nil {
		s.writePageError(w, err)
		return
	}

	enriched := s.enrichProbes(ctx, probes)

	roster, _, rosterErr := s.gateway.FetchDevices(ctx)
	rosterOK := rosterErr == nil
	if rosterErr != nil {
		s.logger.Warn().Err(rosterErr).Msg("device roster unavailable for dashboard, using stored state")
	}

	now := time.Now().UTC()
	set := s.resolver.Resolve(ctx)
	alerts := s.alertSummary(ctx, enriched, roster, rosterOK, set, now)

	allOK := true
	for _, item := range alerts {
		if !item.OK {
			allOK = false
			break
		}
	}

	rows := make([]probeRow, 0, len(enriched))
	for _, probe := range enriched {
		rows = append(rows, probeRow{
			ID:        probe.ID,
			Name:      probe.Name,
			TypeLabel: format.ProbeTypeLabel(probe.ProbeType),
			Value:     format.ProbeValue(probe.Value, probe.ProbeType),
			LastSeen:  format.Timestamp(probe.Last),
		})
	}

	s.renderHTML(w, s.probesTmpl, probesPageData{
		Title:       "Sensor Probes",
		AllOK:       allOK,
		Alerts:      alerts,
		Probes:      rows,
		GeneratedAt: format.Timestamp(now.Unix()),
	})
}

// enrichProbes fetches each probe's current value concurrently. A failed
// fetch degrades that probe to "no value" instead of failing the page.
func (s *Server) enrichProbes(ctx context.Context, probes []fetcher.Probe) []probeWithValue {
	enriched := make([]probeWithValue, len(probes))

	var wg sync.WaitGroup
	for i, probe := range probes {
		enriched[i] = probeWithValue{Probe: probe}
		wg.Add(1)
		go func(i int, probeID string) {
			defer wg.Done()
			reading, _, err := s.gateway.FetchProbe(ctx, probeID)
			if err != nil {
				s.logger.Debug().Err(err).Str("probe", probeID).Msg("probe value fetch failed")
				return
			}
			enriched[i].Value = reading.Value
			if reading.Last > enriched[i].Last {
				enriched[i].Last = reading.Last
			}
		}(i, probe.ID)
	}
	wg.Wait()

	return enriched
}

type probePageData struct {
	Title     string
	ID        string
	Name      string
	TypeLabel string
	Value     string
	LastSeen  string
}

func (s *Server) handleSingleProbePage(w http.ResponseWriter, r *http.Request) {
	reading, _, err := s.gateway.FetchProbe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writePageError(w, err)
		return
	}

	lastSeen := reading.TimeLast
	if lastSeen == "" {
		lastSeen = format.Timestamp(reading.Last)
	}

	s.renderHTML(w, s.probeTmpl, probePageData{
		Title:     reading.Name,
		ID:        reading.ID,
		Name:      reading.Name,
		TypeLabel: format.ProbeTypeLabel(reading.ProbeType),
		Value:     format.ProbeValue(reading.Value, reading.ProbeType),
		LastSeen:  lastSeen,
	})
}

func (s *Server) renderHTML(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("template render failed")
	}
}

// writePageError maps gateway failures onto plain-text page errors with the
// upstream status when known.
func (s *Server) writePageError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	var statusErr *fetcher.StatusError
	switch {
	case errors.Is(err, fetcher.ErrNotConfigured):
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, "Missing authentication configuration")
	case errors.As(err, &statusErr):
		w.WriteHeader(statusErr.Status)
		fmt.Fprintf(w, "API request failed with status %d\n", statusErr.Status)
	default:
		s.logger.Error().Err(err).Msg("page request failed")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Internal error: %s\n", err)
	}
}

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"thermweb-monitor/internal/fetcher"
)

func (s *Server) handleDevicesAPI(w http.ResponseWriter, r *http.Request) {
	_, raw, err := s.gateway.FetchDevices(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	writeRawJSON(w, raw)
}

func (s *Server) handleProbesAPI(w http.ResponseWriter, r *http.Request) {
	_, raw, err := s.gateway.FetchProbes(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	writeRawJSON(w, raw)
}

func (s *Server) handleSingleProbeAPI(w http.ResponseWriter, r *http.Request) {
	_, raw, err := s.gateway.FetchProbe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	writeRawJSON(w, raw)
}

// writeAPIError maps gateway failures onto the structured error bodies the
// original proxy produced: the upstream status when known, else 500.
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	var statusErr *fetcher.StatusError

	switch {
	case errors.Is(err, fetcher.ErrNotConfigured):
		writeJSONError(w, http.StatusInternalServerError, "Missing authentication configuration")
	case errors.As(err, &statusErr):
		writeJSONError(w, statusErr.Status, fmt.Sprintf("API request failed with status %d", statusErr.Status))
	default:
		s.logger.Error().Err(err).Msg("api request failed")
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Internal error: %s", err))
	}
}

func writeRawJSON(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

const proxyCachePrefix = "proxycache:"

// cachedResponse is the envelope stored in the edge cache for proxied GETs.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// handleProxy is the catch-all pass-through to the upstream portal.
// Successful GET responses are cached for the configured TTL; cached hits
// are served without touching the upstream.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := *s.upstream
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery
	cacheKey := proxyCachePrefix + target.String()

	if r.Method == http.MethodGet && s.serveCached(w, r, cacheKey) {
		return
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(s.upstream)
			pr.Out.Host = s.upstream.Host
		},
		ModifyResponse: func(resp *http.Response) error {
			s.rewriteLocation(resp, r)
			if r.Method == http.MethodGet && resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.storeResponse(resp, cacheKey)
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("proxy request failed")
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "Proxy error: "+err.Error())
		},
	}

	proxy.ServeHTTP(w, r)
}

func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, cacheKey string) bool {
	raw, found, err := s.cache.Get(r.Context(), cacheKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("proxy cache read failed")
		return false
	}
	if !found {
		return false
	}

	var cached cachedResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return false
	}

	if cached.ContentType != "" {
		w.Header().Set("Content-Type", cached.ContentType)
	}
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
	return true
}

// storeResponse buffers the upstream body, caches it, and puts the bytes
// back so the client still receives them.
func (s *Server) storeResponse(resp *http.Response, cacheKey string) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(strings.NewReader(""))
		return
	}
	resp.Body = io.NopCloser(strings.NewReader(string(body)))

	encoded, err := json.Marshal(cachedResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		return
	}

	if err := s.cache.PutTTL(resp.Request.Context(), cacheKey, string(encoded)); err != nil {
		s.logger.Warn().Err(err).Msg("proxy cache write failed")
	}
}

// rewriteLocation points redirects back at the proxy instead of the
// upstream host.
func (s *Server) rewriteLocation(resp *http.Response, inbound *http.Request) {
	location := resp.Header.Get("Location")
	if location == "" {
		return
	}

	parsed, err := url.Parse(location)
	if err != nil {
		return
	}
	if parsed.Host != s.upstream.Host {
		return
	}

	scheme := "http"
	if inbound.TLS != nil {
		scheme = "https"
	}
	parsed.Scheme = scheme
	parsed.Host = inbound.Host
	resp.Header.Set("Location", parsed.String())
}

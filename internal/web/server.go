package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/cache"
	"thermweb-monitor/internal/config"
	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/monitor"
	"thermweb-monitor/internal/thresholds"
)

// Server exposes the proxy and dashboard HTTP surface: JSON API endpoints,
// HTML pages, the admin/debug pages, and the catch-all reverse proxy.
// All handlers are read-only with respect to alert state; only the manual
// health check trigger mutates it, and it does so through the checker.
type Server struct {
	cfg      *config.Config
	gateway  fetcher.Gateway
	cache    *cache.Cache
	states   *alertstate.Store
	resolver *thresholds.Resolver
	checker  *monitor.Checker
	logger   zerolog.Logger

	upstream       *url.URL
	probesTmpl     *template.Template
	probeTmpl      *template.Template
	adminTmpl      *template.Template
	debugTmpl      *template.Template
}

// NewServer constructs the HTTP surface.
func NewServer(cfg *config.Config, gateway fetcher.Gateway, edgeCache *cache.Cache, states *alertstate.Store, resolver *thresholds.Resolver, checker *monitor.Checker, logger zerolog.Logger) (*Server, error) {
	upstream, err := url.Parse(strings.TrimRight(cfg.Upstream.BaseURL, "/"))
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:        cfg,
		gateway:    gateway,
		cache:      edgeCache,
		states:     states,
		resolver:   resolver,
		checker:    checker,
		logger:     logger.With().Str("component", "web").Logger(),
		upstream:   upstream,
		probesTmpl: template.Must(template.New("probes").Parse(probesTemplate)),
		probeTmpl:  template.Must(template.New("probe").Parse(probeTemplate)),
		adminTmpl:  template.Must(template.New("admin").Parse(adminTemplate)),
		debugTmpl:  template.Must(template.New("debug").Parse(debugTemplate)),
	}, nil
}

// Handler builds the route table. Anything not matched falls through to the
// reverse proxy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/devices", s.handleDevicesAPI)
	mux.HandleFunc("GET /api/probes", s.handleProbesAPI)
	mux.HandleFunc("GET /api/probes/{id}", s.handleSingleProbeAPI)

	mux.HandleFunc("GET /probes", s.handleProbesPage)
	mux.HandleFunc("GET /probes/{id}", s.handleSingleProbePage)
	mux.HandleFunc("GET /admin", s.handleAdminPage)
	mux.HandleFunc("POST /admin/check", s.handleManualCheck)
	mux.HandleFunc("GET /debug", s.handleDebugPage)

	mux.HandleFunc("/", s.handleProxy)

	return s.withCORS(mux)
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info().Str("addr", s.cfg.Server.ListenAddr).Msg("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// withCORS mirrors the permissive CORS policy of the original proxy and
// answers preflight requests directly.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"thermweb-monitor/internal/alerting"
	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/cache"
	"thermweb-monitor/internal/config"
	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/monitor"
	"thermweb-monitor/internal/scheduler"
	"thermweb-monitor/internal/service"
	"thermweb-monitor/internal/storage"
	"thermweb-monitor/internal/thresholds"
	"thermweb-monitor/internal/web"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newGateway builds the portal gateway. An empty userAgent falls back to the
// configured one.
func (a *App) newGateway(userAgent string) fetcher.Gateway {
	up := a.Config.Upstream
	if userAgent == "" {
		userAgent = up.UserAgent
	}
	return fetcher.NewPortal(fetcher.PortalOptions{
		BaseURL:   up.BaseURL,
		User:      up.User,
		Session:   up.Session,
		UserAgent: userAgent,
		Timeout:   up.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Pushover.Enabled {
		cfg := a.Config.Pushover
		return alerting.NewPushoverNotifier(cfg.Token, cfg.User, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// openCache connects to the edge cache and verifies the connection. The cache
// holds alert state, so a monitor without it must not start.
func (a *App) openCache(ctx context.Context) (*cache.Cache, error) {
	edgeCache := cache.New(a.Config.Redis, a.Logger)
	if err := edgeCache.Ping(ctx); err != nil {
		edgeCache.Close()
		return nil, err
	}
	return edgeCache, nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service: the HTTP proxy surface
// plus the scheduled health check loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	edgeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer edgeCache.Close()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; history persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	gateway := a.newGateway("")
	states := alertstate.New(edgeCache, a.Logger)
	resolver := thresholds.NewResolver(edgeCache, a.Logger)

	var history monitor.HistoryRecorder
	if store != nil {
		history = store
	}

	checker := monitor.New(a.Config.Monitor, gateway, states, resolver, a.newNotifier(), history, a.Logger)

	server, err := web.NewServer(a.Config, gateway, edgeCache, states, resolver, checker, a.Logger)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToTick,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := service.New(sched, checker, server, a.Logger)

	a.Logger.Info().Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting reading history.
type ExportOptions struct {
	ProbeID   string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Events bool
}

// SimulateOptions configure a synthetic health check run.
type SimulateOptions struct {
	Check string
	Value float64
}

package app

import (
	"context"

	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/monitor"
	"thermweb-monitor/internal/thresholds"
)

// Check runs one health check cycle and exits. Intended for cron-style
// invocation next to, or instead of, the built-in scheduler.
func (a *App) Check(ctx context.Context) error {
	edgeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer edgeCache.Close()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	gateway := a.newGateway(a.Config.Upstream.UserAgent + "-cron")
	states := alertstate.New(edgeCache, a.Logger)
	resolver := thresholds.NewResolver(edgeCache, a.Logger)

	var history monitor.HistoryRecorder
	if store != nil {
		history = store
	}

	checker := monitor.New(a.Config.Monitor, gateway, states, resolver, a.newNotifier(), history, a.Logger)

	if err := checker.Run(ctx); err != nil {
		return err
	}

	a.Logger.Info().Msg("health check completed")
	return nil
}

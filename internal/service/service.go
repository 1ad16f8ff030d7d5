package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"thermweb-monitor/internal/monitor"
	"thermweb-monitor/internal/scheduler"
	"thermweb-monitor/internal/web"
)

// Service runs the long-lived pieces together: the HTTP surface and the
// scheduled health check loop.
type Service struct {
	scheduler *scheduler.Scheduler
	checker   *monitor.Checker
	server    *web.Server
	logger    zerolog.Logger
}

// New constructs the monitoring service.
func New(sched *scheduler.Scheduler, checker *monitor.Checker, server *web.Server, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		checker:   checker,
		server:    server,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Run blocks until the context is cancelled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.scheduler.Run(ctx, s.Tick)
	})

	if s.server != nil {
		group.Go(func() error {
			return s.server.Run(ctx)
		})
	}

	return group.Wait()
}

// Tick executes one health check cycle.
func (s *Service) Tick(ctx context.Context, tick time.Time) error {
	s.logger.Debug().Time("tick", tick).Msg("running health check")
	return s.checker.Run(ctx)
}

package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"thermweb-monitor/internal/alerting"
	"thermweb-monitor/internal/alertstate"
	"thermweb-monitor/internal/config"
	"thermweb-monitor/internal/fetcher"
	"thermweb-monitor/internal/format"
	"thermweb-monitor/internal/storage"
	"thermweb-monitor/internal/thresholds"
)

// HistoryRecorder persists per-run diagnostics. Optional; a nil recorder
// disables history.
type HistoryRecorder interface {
	InsertReadingSample(ctx context.Context, sample storage.ReadingSample) error
	InsertAlertEvent(ctx context.Context, event storage.AlertEvent) (storage.AlertEvent, error)
}

// Checker is the health check orchestrator. It is the sole writer of alert
// state: each run reads the stored record for a key once, classifies the
// transition, and writes at most one replacement record. Overlapping runs
// are not locked out; the scheduling interval is assumed long relative to
// run duration and a duplicate notification under that race is tolerated.
type Checker struct {
	gateway  fetcher.Gateway
	states   *alertstate.Store
	resolver *thresholds.Resolver
	notifier alerting.Notifier
	history  HistoryRecorder
	devices  []config.DeviceConfig
	checks   []probeCheck
	logger   zerolog.Logger

	now func() time.Time
}

// New constructs a Checker from the registered monitoring identities.
func New(cfg config.MonitorConfig, gateway fetcher.Gateway, states *alertstate.Store, resolver *thresholds.Resolver, notifier alerting.Notifier, history HistoryRecorder, logger zerolog.Logger) *Checker {
	return &Checker{
		gateway:  gateway,
		states:   states,
		resolver: resolver,
		notifier: notifier,
		history:  history,
		devices:  cfg.Devices,
		checks:   buildProbeChecks(cfg),
		logger:   logger.With().Str("component", "health_check").Logger(),
		now:      time.Now,
	}
}

// Run executes one health check cycle. Thresholds are resolved fresh, the
// device roster is fetched once, and each probe check runs concurrently
// with its own failure isolation. A failure in one check never suppresses
// the others; a whole-run panic is recovered, logged, and reported through
// a best-effort notification.
func (c *Checker) Run(ctx context.Context) (runErr error) {
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("health check panicked: %v", r)
			c.logger.Error().Interface("panic", r).Msg("health check run failed")
			c.send(ctx, notification{
				Message: fmt.Sprintf("Device health check failed: %v", r),
				Title:   "Thermweb Monitor Error",
			})
		}
	}()

	now := c.now().UTC()
	set := c.resolver.Resolve(ctx)

	c.checkDevices(ctx, set, now)

	var wg sync.WaitGroup
	for _, pc := range c.checks {
		wg.Add(1)
		go func(pc probeCheck) {
			defer wg.Done()
			c.runProbeCheck(ctx, pc, set, now)
		}(pc)
	}
	wg.Wait()

	return nil
}

// checkDevices evaluates the offline condition for every registered device.
// A roster fetch failure skips only the device checks for this cycle; the
// probe checks still run.
func (c *Checker) checkDevices(ctx context.Context, set thresholds.Set, now time.Time) {
	devices, _, err := c.gateway.FetchDevices(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("device roster fetch failed, skipping device checks this cycle")
		return
	}

	for _, registered := range c.devices {
		c.checkDevice(ctx, registered, devices, set, now)
	}
}

func (c *Checker) checkDevice(ctx context.Context, registered config.DeviceConfig, roster map[string]fetcher.Device, set thresholds.Set, now time.Time) {
	live, ok := roster[registered.ID]
	if !ok {
		c.logger.Warn().Str("device", registered.ID).Msg("registered device missing from portal roster")
		return
	}

	name := live.Name
	if name == "" {
		name = registered.Name
	}

	elapsed := now.Sub(time.Unix(live.Last, 0))
	isOffline := Above.Exceeds(elapsed.Seconds(), set.DeviceTimeout.Seconds())

	alertKey := alertstate.DeviceOfflineKey(registered.ID)
	prior := c.states.Get(ctx, alertKey)
	lastSeen := format.Timestamp(live.Last)

	transition := Classify(prior.Active, isOffline)
	c.logger.Debug().
		Str("device", registered.ID).
		Dur("since_report", elapsed).
		Str("transition", transition.String()).
		Msg("device evaluated")

	switch transition {
	case Raised:
		c.send(ctx, deviceOfflineNotification(name, format.Duration(elapsed), lastSeen))
		c.persist(ctx, alertKey, alertstate.Record{
			Active:     true,
			StartTime:  &now,
			DeviceID:   registered.ID,
			DeviceName: name,
		})
		c.recordEvent(ctx, alertKey, Raised, elapsed.Seconds(), set.DeviceTimeout.Seconds(), now)
	case Cleared:
		c.send(ctx, deviceRecoveredNotification(name, lastSeen))
		rec := prior
		rec.Active = false
		rec.StartTime = nil
		rec.LastClear = &now
		rec.LastCheck = &now
		rec.DeviceID = registered.ID
		rec.DeviceName = name
		c.persist(ctx, alertKey, rec)
		c.recordEvent(ctx, alertKey, Cleared, elapsed.Seconds(), set.DeviceTimeout.Seconds(), now)
	case Sustained:
		// Leave the record alone so the offline duration keeps counting
		// from the original raise.
	case Steady:
		rec := prior
		rec.Active = false
		rec.StartTime = nil
		rec.LastCheck = &now
		rec.DeviceID = registered.ID
		rec.DeviceName = name
		c.persist(ctx, alertKey, rec)
	}
}

// runProbeCheck fetches one probe and applies every condition it feeds.
func (c *Checker) runProbeCheck(ctx context.Context, pc probeCheck, set thresholds.Set, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str("check", pc.name).Msg("probe check failed")
		}
	}()

	reading, _, err := c.gateway.FetchProbe(ctx, pc.probeID)
	if err != nil {
		c.logger.Warn().Err(err).Str("check", pc.name).Msg("probe fetch failed, skipping this cycle")
		c.recordSample(ctx, storage.ReadingSample{
			Time:    now,
			ProbeID: pc.probeID,
			Name:    pc.name,
			Status:  "errored",
			Error:   strPtr(err.Error()),
		})
		return
	}

	if reading.Value == nil {
		c.logger.Info().Str("check", pc.name).Msg("no reading available, skipping this cycle")
		c.recordSample(ctx, storage.ReadingSample{
			Time:    now,
			ProbeID: pc.probeID,
			Name:    pc.name,
			Status:  "no-reading",
		})
		return
	}

	value := *reading.Value
	lastReading := lastReadingText(reading.TimeLast, reading.Last)

	for _, cond := range pc.conditions {
		c.applyCondition(ctx, cond, value, lastReading, set, now)
	}

	c.recordSample(ctx, storage.ReadingSample{
		Time:    now,
		ProbeID: pc.probeID,
		Name:    pc.name,
		Value:   decimal.NewFromFloat(value),
		Status:  "ok",
	})
}

func (c *Checker) applyCondition(ctx context.Context, cond probeCondition, value float64, lastReading string, set thresholds.Set, now time.Time) {
	limit := cond.limit(set)
	isActive := cond.comparator.Exceeds(value, limit)
	prior := c.states.Get(ctx, cond.alertKey)

	transition := Classify(prior.Active, isActive)
	c.logger.Debug().
		Str("alert", cond.alertKey).
		Float64("value", value).
		Float64("limit", limit).
		Str("transition", transition.String()).
		Msg("condition evaluated")

	switch transition {
	case Raised:
		c.send(ctx, cond.raised(value, limit, lastReading))
		c.persist(ctx, cond.alertKey, alertstate.Record{
			Active:    true,
			StartTime: &now,
			Value:     &value,
		})
		c.recordEvent(ctx, cond.alertKey, Raised, value, limit, now)
	case Cleared:
		c.send(ctx, cond.cleared(value, limit, lastReading))
		rec := prior
		rec.Active = false
		rec.StartTime = nil
		rec.LastClear = &now
		rec.LastCheck = &now
		rec.Value = &value
		c.persist(ctx, cond.alertKey, rec)
		c.recordEvent(ctx, cond.alertKey, Cleared, value, limit, now)
	case Sustained:
		c.logger.Info().Str("alert", cond.alertKey).Float64("value", value).Msg("still in alert state, notification already sent")
	case Steady:
		rec := prior
		rec.Active = false
		rec.StartTime = nil
		rec.LastCheck = &now
		rec.Value = &value
		c.persist(ctx, cond.alertKey, rec)
	}
}

func (c *Checker) send(ctx context.Context, note notification) {
	if c.notifier == nil {
		c.logger.Debug().Str("title", note.Title).Msg("no notifier configured, dropping notification")
		return
	}
	if err := c.notifier.Notify(ctx, note.Message, note.Title); err != nil {
		c.logger.Error().Err(err).Str("title", note.Title).Msg("failed to dispatch notification")
	}
}

func (c *Checker) persist(ctx context.Context, alertKey string, rec alertstate.Record) {
	if err := c.states.Set(ctx, alertKey, rec); err != nil {
		c.logger.Error().Err(err).Str("alert", alertKey).Msg("failed to persist alert state")
	}
}

func (c *Checker) recordSample(ctx context.Context, sample storage.ReadingSample) {
	if c.history == nil {
		return
	}
	if err := c.history.InsertReadingSample(ctx, sample); err != nil {
		c.logger.Error().Err(err).Str("probe", sample.ProbeID).Msg("failed to record reading sample")
	}
}

func (c *Checker) recordEvent(ctx context.Context, alertKey string, transition Transition, value, limit float64, now time.Time) {
	if c.history == nil {
		return
	}
	event := storage.AlertEvent{
		Time:       now,
		AlertKey:   alertKey,
		Transition: transition.String(),
		Value:      decimal.NewFromFloat(value),
		Limit:      decimal.NewFromFloat(limit),
	}
	if _, err := c.history.InsertAlertEvent(ctx, event); err != nil {
		c.logger.Error().Err(err).Str("alert", alertKey).Msg("failed to record alert event")
	}
}

func strPtr(s string) *string {
	return &s
}

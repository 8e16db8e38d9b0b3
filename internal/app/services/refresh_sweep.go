package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the proactive refresh every five minutes.
const DefaultSweepSchedule = "@every 5m"

// RefreshSweep periodically refreshes tokens before they expire.
type RefreshSweep struct {
	engine   *RefreshEngine
	schedule string
	cron     *cron.Cron
	log      *slog.Logger
}

// NewRefreshSweep builds a sweep; call Start to schedule it.
func NewRefreshSweep(engine *RefreshEngine, schedule string, log *slog.Logger) *RefreshSweep {
	if strings.TrimSpace(schedule) == "" {
		schedule = DefaultSweepSchedule
	}
	if log == nil {
		log = slog.Default()
	}
	return &RefreshSweep{
		engine:   engine,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:      log,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *RefreshSweep) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling; the returned context is done when a running sweep ends.
func (s *RefreshSweep) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce performs one sweep.
func (s *RefreshSweep) RunOnce(ctx context.Context) {
	refreshed, failed, err := s.engine.RefreshExpiring(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "refresh_sweep_failed", "error", err)
		return
	}
	if refreshed > 0 || failed > 0 {
		s.log.InfoContext(ctx, "refresh_sweep_done", "refreshed", refreshed, "failed", failed)
	}
}

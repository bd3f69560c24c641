package core

// scheduler.go runs background retention for the web service:
//  1. Evict runs that have been idle longer than the run TTL
//  2. Purge run history older than the configured number of days
//
// The sweeper is long-running and stops with its context. Failures are
// logged and never stop the application.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the retention sweeper.
// Zero values select the defaults noted on each field.
type RetentionConfig struct {
	RunTTL        time.Duration // Idle time before a run is evicted (default: 1h)
	HistoryDays   int           // Days of history to keep (default: 30)
	CheckInterval time.Duration // How often to sweep (default: 10m)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RunTTL <= 0 {
		c.RunTTL = time.Hour
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = 30
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 10 * time.Minute
	}
	return c
}

// StartRetentionSweeper sweeps immediately, then every CheckInterval, until
// ctx is cancelled.
func (s *Service) StartRetentionSweeper(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention sweeper started",
		"run_ttl", cfg.RunTTL,
		"history_days", cfg.HistoryDays,
		"interval", cfg.CheckInterval,
	)

	s.sweep(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case now := <-ticker.C:
			s.sweep(ctx, cfg, now)
		}
	}
}

// sweep performs one eviction + purge cycle relative to now.
func (s *Service) sweep(ctx context.Context, cfg RetentionConfig, now time.Time) {
	start := time.Now()

	evicted := s.EvictIdle(now.Add(-cfg.RunTTL))
	if evicted > 0 {
		slog.Info("evicted idle runs", "runs_evicted", evicted)
	}

	purged, err := s.history.Purge(ctx, now.AddDate(0, 0, -cfg.HistoryDays))
	if err != nil {
		slog.Error("history purge failed", "error", err)
	} else if purged > 0 {
		slog.Info("purged run history", "entries_purged", purged)
	}

	slog.Debug("retention sweep completed", "duration_ms", time.Since(start).Milliseconds())
}

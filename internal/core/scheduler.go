package core

// scheduler.go runs background maintenance for the server. Workspaces live
// only in memory, so idle ones are evicted on a fixed interval.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds configuration for the idle workspace sweeper.
type SweepConfig struct {
	IdleTimeout   time.Duration // Evict workspaces unused for this long
	CheckInterval time.Duration // How often to sweep
}

// StartSessionSweeper periodically evicts idle workspaces until ctx is
// cancelled. Run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, cfg SweepConfig) {
	slog.Info("session sweeper started",
		"idle_timeout", cfg.IdleTimeout,
		"interval", cfg.CheckInterval,
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case now := <-ticker.C:
			s.runSweep(now, cfg)
		}
	}
}

func (s *Service) runSweep(now time.Time, cfg SweepConfig) {
	start := time.Now()
	removed := s.SweepIdle(now, cfg.IdleTimeout)
	if removed == 0 {
		slog.Debug("session sweep found nothing to evict")
		return
	}
	slog.Info("evicted idle workspaces",
		"removed", removed,
		"remaining", s.WorkspaceCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

package core

// scheduler.go runs background maintenance for created output files.
//
// Created files are only ever read back by name through the download
// route, so anything older than the configured retention is swept on a
// fixed interval. A failed sweep is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 10 * time.Minute

// StartArtifactSweeper deletes expired output files immediately and then
// every interval until ctx is cancelled. It does nothing without an
// artifact store.
func (s *Service) StartArtifactSweeper(ctx context.Context, interval time.Duration) {
	if s.artifacts == nil {
		return
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	slog.Info("artifact sweeper started",
		"dir", s.artifacts.Dir(),
		"interval", interval.String(),
	)

	s.sweepArtifacts()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("artifact sweeper stopped")
			return
		case <-ticker.C:
			s.sweepArtifacts()
		}
	}
}

func (s *Service) sweepArtifacts() {
	start := time.Now()
	removed, err := s.artifacts.Sweep(start)
	if err != nil {
		slog.Error("artifact sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("expired artifacts removed",
			"removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

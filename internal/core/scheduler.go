package core

// scheduler.go runs history maintenance in the background.
//
// The pruner deletes run records older than the retention window. It runs
// once on start and then every CheckInterval until its context ends. A
// failed prune is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/recon/internal/config"
)

// StartHistoryPruner blocks until ctx is cancelled, pruning expired run
// history periodically. Call it in its own goroutine.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg config.HistoryConfig) {
	slog.Info("history pruner started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
	)

	s.PruneHistory(ctx, cfg.RetentionDays)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.PruneHistory(ctx, cfg.RetentionDays)
		}
	}
}

// PruneHistory deletes run records older than retentionDays and returns
// how many were removed.
func (s *Service) PruneHistory(ctx context.Context, retentionDays int) int64 {
	start := time.Now()
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	pruned, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned run history",
		"records_pruned", pruned,
		"cutoff", cutoff.UTC().Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pruned
}

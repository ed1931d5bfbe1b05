package core

// scheduler.go runs background maintenance for the scratch area.
//
// Every clean job releases its own workspace, but a crash or kill between
// creation and release leaves the namespace behind. The janitor sweeps
// namespaces older than the cleanup delay on a fixed interval. It logs
// failures and never stops the application because of them.

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// JanitorConfig holds configuration for the scratch janitor.
type JanitorConfig struct {
	Root          string        // scratch root holding job namespaces
	MaxAge        time.Duration // namespaces older than this are removed
	SweepInterval time.Duration // how often to sweep
}

// StartScratchJanitor sweeps once immediately, then every SweepInterval,
// until ctx is cancelled. It blocks; run it in its own goroutine.
func StartScratchJanitor(ctx context.Context, cfg JanitorConfig) {
	slog.Info("scratch janitor started",
		"root", cfg.Root,
		"max_age", cfg.MaxAge,
		"interval", cfg.SweepInterval,
	)

	SweepScratch(cfg.Root, cfg.MaxAge, time.Now())

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scratch janitor stopped")
			return
		case now := <-ticker.C:
			SweepScratch(cfg.Root, cfg.MaxAge, now)
		}
	}
}

// SweepScratch removes job namespaces under root last modified before
// now-maxAge and returns how many were removed.
func SweepScratch(root string, maxAge time.Duration, now time.Time) int {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("scratch sweep failed", "root", root, "error", err)
		}
		return 0
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workspacePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		dir := filepath.Join(root, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove orphaned workspace", "dir", dir, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("removed orphaned workspaces", "count", removed)
	}
	return removed
}

package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/tunebot/tunebot/internal/logctx"
)

// DeleteExpiredFiles removes regular files in dir whose modification
// time is older than keepDuration. Leftovers accumulate in the scratch
// and output directories when a run is interrupted mid-delivery, so the
// sweep uses file mod time as the age source.
func DeleteExpiredFiles(ctx context.Context, dir string, keepDuration time.Duration) error {
	logger := logctx.LoggerFromContext(ctx)
	now := time.Now()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // already deleted
			}

			logger.Error("Failed to stat file", "file", entry.Name(), "err", err)

			return err
		}

		if now.Sub(info.ModTime()) <= keepDuration {
			continue
		}

		filePath := filepath.Join(dir, entry.Name())

		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete expired file", "file", filePath, "err", err)

			return err
		}

		logger.Info("Deleted expired file", "file", filePath)
	}

	return nil
}

// Run sweeps the given directories on every tick until the context is
// cancelled.
func Run(ctx context.Context, interval, keepDuration time.Duration, dirs ...string) {
	logger := logctx.LoggerFromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, dir := range dirs {
				if err := DeleteExpiredFiles(ctx, dir, keepDuration); err != nil {
					logger.Error("cleanup sweep failed", "dir", dir, "err", err)
				}
			}
		}
	}
}
